package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slackconnect/slackconnect/internal/transport/http/middleware"
)

// NewRouter assembles the full HTTP surface: health and metrics, the public
// OAuth endpoints, and the session-protected messaging API.
func NewRouter(
	authHandler *AuthHandler,
	messageHandler *MessageHandler,
	scheduledHandler *ScheduledHandler,
	sessions middleware.SessionVerifier,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler.RegisterRoutes(r)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireSession(sessions, logger))
		messageHandler.RegisterRoutes(protected)
		scheduledHandler.RegisterRoutes(protected)
	})

	return r
}

// requestLogger logs one line per completed request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
