package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
)

// Pipeline is a long-running background job tied to the app lifetime.
type Pipeline interface {
	Run(ctx context.Context) error
}

// App encapsulates the application lifecycle: HTTP server, optional
// streaming pipeline and Kafka consumer, and infrastructure teardown.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	httpHandler  xhttp.Handler
	httpServer   *xhttp.Server
	pipeline     Pipeline
	consumer     *pkgkafka.Consumer
	ticksHandler pkgkafka.MessageHandler
	chClient     *pkgch.Client
	closers      []io.Closer
}

// New creates the application. pipeline, consumer, ticksHandler and
// chClient may be nil when the corresponding features are disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	pipeline Pipeline,
	consumer *pkgkafka.Consumer,
	ticksHandler pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		httpHandler:  handler,
		pipeline:     pipeline,
		consumer:     consumer,
		ticksHandler: ticksHandler,
		chClient:     chClient,
	}
}

// AddCloser registers a resource closed during shutdown, after the
// HTTP server and pipeline have stopped.
func (a *App) AddCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Run starts everything and blocks until an interrupt arrives.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.pipeline != nil {
		go func() {
			if err := a.pipeline.Run(ctx); err != nil {
				a.log.Error("tick pipeline stopped", applogger.Error(err))
			}
		}()
		a.log.Info("tick pipeline started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if a.consumer != nil && a.ticksHandler != nil {
		a.consumer.RegisterHandler(a.ticksHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer stopped", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.ticksHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.log.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
