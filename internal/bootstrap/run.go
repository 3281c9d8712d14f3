package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/attesta/certmailer/config"
	httpx "github.com/attesta/certmailer/internal/http"
)

const shutdownTimeout = 10 * time.Second

// RunConfig holds everything needed to run the application until shutdown.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// Run starts the HTTP server and, when configured, the background worker
// loop. It blocks until ctx is canceled, then shuts both down gracefully.
func Run(ctx context.Context, rc *RunConfig) error {
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Enqueue:     rc.Services.Enqueue,
		Worker:      rc.Services.Worker,
		Credentials: rc.Services.Credentials,
		Queue:       rc.Services.Queue,
		Metrics:     rc.Services.Metrics,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         rc.Config.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.InfoContext(ctx, "starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if interval := rc.Config.Worker.Interval; interval > 0 {
		group.Go(func() error {
			return runWorkerLoop(groupCtx, rc, interval)
		})
	}

	return group.Wait()
}

// runWorkerLoop drains the queue on a fixed period. Cycle errors are logged
// and do not stop the loop: an unauthorized grant today may be re-established
// tomorrow.
func runWorkerLoop(ctx context.Context, rc *RunConfig, interval time.Duration) error {
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "starting background worker",
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := rc.Services.Worker.RunCycle(ctx); err != nil {
				logger.WarnContext(ctx, "worker cycle failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
