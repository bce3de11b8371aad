// Package api exposes the activity registry over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"mergington-activities/internal/activities"
	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/events"
	"mergington-activities/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HistoryStore serves the audit trail of one activity.
type HistoryStore interface {
	History(ctx context.Context, activity string, limit int) ([]events.Event, error)
}

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Registry      *activities.Registry
	Dispatcher    *events.Dispatcher
	History       HistoryStore
	Observability *observability.Observability
	Logger        logger.Logger
	// Checks are run by /ready, keyed by service name.
	Checks map[string]ReadinessCheck
}

type Server struct {
	registry   *activities.Registry
	dispatcher *events.Dispatcher
	history    HistoryStore
	obs        *observability.Observability
	logger     logger.Logger
	errors     *apperrors.ErrorHandler
	checks     map[string]ReadinessCheck
	started    time.Time
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})

	return &Server{
		registry:   opts.Registry,
		dispatcher: opts.Dispatcher,
		history:    opts.History,
		obs:        opts.Observability,
		logger:     log,
		errors:     apperrors.NewErrorHandler(log),
		checks:     opts.Checks,
		started:    time.Now().UTC(),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.tracing)
	r.Use(s.accessLog)
	r.Use(instrument)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/static/index.html", http.StatusTemporaryRedirect)
	})
	r.Handle("/static/*", web.Handler())

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", s.listActivities)
		r.Post("/{activity_name}/signup", s.signup)
		r.Delete("/{activity_name}/unregister", s.unregister)
		if s.history != nil {
			r.Get("/{activity_name}/history", s.activityHistory)
		}
	})

	return r
}
