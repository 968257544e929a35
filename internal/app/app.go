// Package app holds the long-running webhook server application.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/jobs"
	"github.com/sevigo/diff-warden/internal/server"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher *jobs.Dispatcher
	logger     *slog.Logger
}

// NewApp assembles the application from its wired parts.
func NewApp(cfg *config.Config, srv *server.Server, dispatcher *jobs.Dispatcher, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting Diff-Warden",
		"server_port", a.cfg.Server.Port,
		"provider", a.cfg.AI.LLMProvider,
		"model", a.cfg.AI.GeneratorModel,
		"max_workers", a.cfg.MaxWorkers)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts the server down first so no new events arrive, then waits for the
// queued scans to finish.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("shutting down Diff-Warden services")

	serverErr := a.server.Stop(ctx)
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return errors.Join(errors.New("diff-warden stopped with errors"), serverErr)
	}
	a.logger.Info("Diff-Warden stopped successfully")
	return nil
}
