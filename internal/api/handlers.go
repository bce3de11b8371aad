package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/events"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "signup", s.registry.Signup, events.TypeSignedUp)
}

func (s *Server) unregister(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "unregister", s.registry.Unregister, events.TypeUnregistered)
}

// mutate runs one roster operation, records it and publishes the event.
func (s *Server) mutate(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	apply func(name, email string) (string, error),
	eventType events.Type,
) {
	name := activityName(r)
	query := r.URL.Query()
	if !query.Has("email") {
		metrics.OperationErrors.WithLabelValues(operation, string(apperrors.ErrCodeMissingParameter)).Inc()
		s.errors.HandleRequestError(w, r, apperrors.NewMissingParameterError("email"))
		return
	}
	email := query.Get("email")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("activity.name", name),
		attribute.String("activity.operation", operation),
	)

	start := time.Now()
	message, err := apply(name, email)
	if err != nil {
		stdErr := apperrors.FromDomain(err, name, email)
		s.obs.RecordOperation(r.Context(), operation, string(stdErr.Code), time.Since(start))
		metrics.OperationErrors.WithLabelValues(operation, string(stdErr.Code)).Inc()
		span.SetAttributes(attribute.String("activity.error_code", string(stdErr.Code)))
		s.errors.HandleRequestError(w, r, stdErr)
		return
	}
	s.obs.RecordOperation(r.Context(), operation, "success", time.Since(start))

	switch eventType {
	case events.TypeSignedUp:
		metrics.SignupsTotal.WithLabelValues(name).Inc()
	case events.TypeUnregistered:
		metrics.UnregistersTotal.WithLabelValues(name).Inc()
	}
	s.updateRosterSize(name)

	s.logger.Info("roster updated", map[string]interface{}{
		"operation": operation,
		"activity":  name,
		"email":     email,
		"requestId": RequestIDFromContext(r.Context()),
	})

	s.dispatcher.Publish(r.Context(), events.NewEvent(eventType, name, email))

	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

func (s *Server) updateRosterSize(name string) {
	activity, err := s.registry.Get(name)
	if err != nil {
		return
	}
	metrics.RosterSize.WithLabelValues(name).Set(float64(len(activity.Participants)))
}

func (s *Server) activityHistory(w http.ResponseWriter, r *http.Request) {
	name := activityName(r)
	if _, err := s.registry.Get(name); err != nil {
		s.errors.HandleRequestError(w, r, apperrors.FromDomain(err, name, ""))
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errors.HandleRequestError(w, r, apperrors.NewInvalidParameterError("limit", raw))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	history, err := s.history.History(r.Context(), name, limit)
	if err != nil {
		s.errors.HandleRequestError(w, r, apperrors.NewInternalError(err))
		return
	}
	if history == nil {
		history = []events.Event{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	services := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			services[name] = err.Error()
			s.logger.Warn("readiness check failed", map[string]interface{}{
				"service": name,
				"error":   err.Error(),
			})
			continue
		}
		services[name] = "ok"
	}

	body := map[string]interface{}{
		"status":     "ready",
		"time":       time.Now().Format(time.RFC3339),
		"activities": len(s.registry.Names()),
		"services":   services,
	}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	writeJSON(w, status, body)
}

// activityName returns the decoded {activity_name} path segment.
func activityName(r *http.Request) string {
	name := chi.URLParam(r, "activity_name")
	if r.URL.RawPath == "" {
		return name
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
