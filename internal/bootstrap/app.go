package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/session"
	"github.com/yanqian/uv-australia/internal/infra/config"
)

// App encapsulates the HTTP server and the background workers.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	poller   *dataset.Poller
	sessions *session.Manager
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, poller *dataset.Poller, sessions *session.Manager) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		poller:   poller,
		sessions: sessions,
	}
}

// Run starts the poller, the session janitor and the HTTP server, and blocks
// until shutdown.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	defer func() {
		stopWorkers()
		workers.Wait()
	}()

	workers.Add(2)
	go func() {
		defer workers.Done()
		a.poller.Run(workerCtx)
	}()
	go func() {
		defer workers.Done()
		a.sessions.RunJanitor(workerCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		// Ending sessions first closes event streams so Shutdown does not wait on them.
		a.sessions.CloseAll()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
