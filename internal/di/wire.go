//go:build wireinject
// +build wireinject

package di

import (
	"StockPulse/pkg/config"
	"StockPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Foundations
		ProvideLogger,
		ProvideCache,
		ProvideMetrics,
		ProvideHTTPClient,

		// Stock data providers
		ProvideLocalProvider,
		ProvideYahooProvider,
		ProvideAlphaVantageProvider,
		ProvideFinnhubProvider,
		ProvideOrchestrator,

		// Persistence
		ProvideClickHouseClient,
		ProvideBarStore,
		ProvideTickStore,

		// Services
		ProvideHistoryService,
		ProvidePredictionService,

		// Streaming
		ProvideKafkaProducer,
		ProvideTickPublisher,
		ProvideKafkaConsumer,
		ProvideTicksHandler,
		ProvideTickPipeline,

		// HTTP surface and app
		ProvideRouter,
		ProvideApp,
	)
	return &server.App{}, nil
}
