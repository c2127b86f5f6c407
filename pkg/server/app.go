package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockPilot/internal/handler/api"
	"StockPilot/internal/usecase"
	pkgch "StockPilot/pkg/clickhouse"
	"StockPilot/pkg/config"
	xhttp "StockPilot/pkg/http"
	applogger "StockPilot/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP surface, optional
// quote stream, outcome sink, and their shutdown order.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    *api.MarketHandler
	collector  *usecase.QuoteCollector
	recorder   *usecase.OutcomeRecorder
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler *api.MarketHandler,
	collector *usecase.QuoteCollector,
	recorder *usecase.OutcomeRecorder,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		recorder:  recorder,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, time.Second),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("quote collector error", applogger.Error(err))
			}
		}()
		a.log.Info("quote collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment),
		applogger.String("backend", a.cfg.Backend.Type))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops services in reverse start order: HTTP first so no new
// fetches arrive, then the stream, then the sink clients.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.log.Warn("quote collector stop error", applogger.Error(err))
		}
	}

	if a.recorder != nil {
		a.recorder.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
