package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/server/handler"
	"github.com/sevigo/diff-warden/internal/storage"
)

// NewRouter creates the HTTP router of the webhook server. store may be nil when no
// database is configured; the runs endpoint then answers 503.
func NewRouter(cfg *config.Config, dispatcher core.JobDispatcher, store storage.Store, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		webhookHandler := handler.NewWebhookHandler(cfg.GitHub.WebhookSecret, dispatcher, logger)
		r.Post("/webhook/github", webhookHandler.Handle)

		runsHandler := handler.NewRunsHandler(store, logger)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/latest", runsHandler.Latest)
	})

	return r
}
