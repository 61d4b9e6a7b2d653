package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/searchktools/reactor-http/config"
	"github.com/searchktools/reactor-http/core"
	"github.com/searchktools/reactor-http/core/middleware"
	"github.com/searchktools/reactor-http/core/observability"
	"github.com/searchktools/reactor-http/logging"
)

// App ties configuration, logging and the engine together
type App struct {
	cfg    *config.Config
	engine *core.Engine
	logger *slog.Logger
}

// New creates an application instance with an engine configured from cfg
func New(cfg *config.Config) *App {
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})
	return NewWithLogger(cfg, logger)
}

// NewWithLogger is New with a caller supplied logger
func NewWithLogger(cfg *config.Config, logger *slog.Logger) *App {
	engine := core.NewEngine().
		Workers(cfg.Workers).
		Timeouts(cfg.HeaderTimeout, cfg.ContentTimeout).
		MaxHeaderBytes(cfg.MaxHeaderBytes)
	engine.SetLogger(logger)
	engine.Use(middleware.Logger(logger), middleware.RequestID())
	engine.Monitor(observability.NewMonitor())

	return &App{
		cfg:    cfg,
		engine: engine,
		logger: logger,
	}
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Run listens on the configured port and serves until ctx is done or the
// process receives SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	if err := a.Listen(); err != nil {
		return err
	}
	return a.Serve(ctx)
}

// Listen binds the configured port.
func (a *App) Listen() error {
	return a.engine.Listen(a.cfg.Port)
}

// Serve runs the engine on an already bound port until ctx is done or a
// termination signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		a.logger.Info("shutting down", "cause", context.Cause(ctx))
		a.engine.Stop()
	}()

	return a.engine.Run()
}
