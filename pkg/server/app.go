package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	icache "FinWatch/internal/service/cache"
	"FinWatch/pkg/config"
	xhttp "FinWatch/pkg/http"
	applogger "FinWatch/pkg/logger"
)

// App owns the process lifecycle: the HTTP API and the cache sweeper.
// Infrastructure is released by the cleanup returned from DI.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	cache      *icache.Store
}

func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, cache *icache.Store) *App {
	return &App{cfg: cfg, l: l, httpServer: httpServer, cache: cache}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		a.sweep(ctx)
	}()

	a.l.Info("finwatch started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("sink", a.cfg.Sink.Backend),
		applogger.String("store", a.cfg.Store.Type),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	<-sweepDone
	return a.shutdown()
}

// sweep drops expired cache entries every Cache.SweepInterval.
func (a *App) sweep(ctx context.Context) {
	interval := a.cfg.Cache.SweepInterval
	if interval <= 0 || a.cache == nil {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.cache.ClearExpired(ctx); n > 0 {
				a.l.Debug("cache sweep", applogger.Int("removed", n))
			}
		}
	}
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}
