package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/searchktools/docroot-server/config"
	"github.com/searchktools/docroot-server/core"
	"github.com/searchktools/docroot-server/core/pools"
)

// ShutdownTimeout bounds the wait for in-flight connections on exit
const ShutdownTimeout = 10 * time.Second

// App is the application instance
type App struct {
	cfg    *config.Config
	engine *core.Engine
}

// New creates an application instance
func New(cfg *config.Config) (*App, error) {
	gc := pools.GCConfig{
		GOGC:        cfg.GCPercent,
		MemoryLimit: int64(cfg.MemoryLimitMB) << 20,
	}
	if pools.ApplyGCConfig(gc) {
		log.Printf("⚙️  GC tuned: GOGC=%d, memory limit %d MiB", cfg.GCPercent, cfg.MemoryLimitMB)
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:    cfg,
		engine: engine,
	}, nil
}

// Engine returns the underlying engine
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.RunContext(ctx)
}

// RunContext serves until ctx is done
func (a *App) RunContext(ctx context.Context) error {
	log.Printf("🚀 Document server starting on port %d [%s]", a.cfg.Port, a.cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.engine.Run(a.cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := a.engine.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, core.ErrServerClosed) {
		return err
	}
	return nil
}

// Main loads configuration from the command line and runs the server
func Main() {
	cfg, err := config.New()
	if err != nil {
		log.Printf("Configuration error: %v", err)
		os.Exit(2)
	}

	application, err := New(cfg)
	if err != nil {
		log.Fatalf("Server startup failed: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
