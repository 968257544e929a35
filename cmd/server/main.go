// Command diffwarden-server scans pull requests on GitHub webhook events.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sevigo/diff-warden/internal/wire"
)

const shutdownTimeout = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx); err != nil {
		slog.Error("diffwarden server exited", "error", err)
		os.Exit(1)
	}
}

// serve runs until ctx is cancelled or the HTTP server fails, then drains the
// scan queue within shutdownTimeout.
func serve(ctx context.Context) error {
	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()

	startErr := make(chan error, 1)
	go func() { startErr <- app.Start() }()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown requested")
	case runErr = <-startErr:
		slog.Error("http server stopped", "error", runErr)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, app.Stop(stopCtx))
}
