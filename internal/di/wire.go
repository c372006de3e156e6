//go:build wireinject
// +build wireinject

package di

import (
	"MacroPulse/pkg/config"
	"MacroPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideFREDClient,
		ProvideBlockchainClient,

		// Repositories
		ProvideObservationStore,
		ProvideEventPublisher,
		ProvideSeriesProvider,
		ProvidePortfolioStore,

		// Use cases
		ProvidePortfolioUseCase,
		ProvideDashboardConfig,
		ProvideDashboardUseCase,
		ProvideDashboardCache,
		ProvideIngestUseCase,
		ProvideRefreshQueue,

		// Transport
		ProvideHub,
		ProvideHealthChecks,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
