package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler writes StandardErrors as JSON responses and logs them.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorBody is the payload clients receive on failure.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// HandleRequestError logs err and writes it to w.
func (h *ErrorHandler) HandleRequestError(w http.ResponseWriter, r *http.Request, stdErr *StandardError) {
	h.logError(r, stdErr)
	WriteJSON(w, stdErr)
}

// WriteJSON writes {"detail": message} with the error's status code.
func WriteJSON(w http.ResponseWriter, stdErr *StandardError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(stdErr.Status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Detail: stdErr.Message})
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError) {
	if h.logger == nil {
		return
	}

	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        stdErr.Status,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}

	if IsClientError(stdErr.Code) {
		h.logger.Warn("request rejected", fields)
		return
	}
	h.logger.Error("request failed", fields)
}
