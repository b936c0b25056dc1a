//go:build wireinject
// +build wireinject

package di

import (
	"FinTrain/pkg/config"
	"FinTrain/pkg/server"

	"github.com/google/wire"
)

var commonSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
)

var modelSet = wire.NewSet(
	ProvideRand,
	ProvidePredictor,
	ProvideSnapshotStore,
)

// InitializeTrainingApp wires the retraining job.
// Wire will generate the implementation of this function.
func InitializeTrainingApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		commonSet,
		modelSet,

		// Data
		ProvideObservationSource,
		ProvideWindower,
		ProvideMetricsSink,

		// Use cases
		ProvideTrainer,
		ProvideRetrainJob,

		ProvideTrainingApp,
	)
	return nil, nil, nil
}

// InitializeServingApp wires the inference HTTP server.
func InitializeServingApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		commonSet,
		modelSet,

		ProvideInference,
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideServingApp,
	)
	return nil, nil, nil
}

// InitializeCollectorApp wires the Finnhub tick collector.
func InitializeCollectorApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		commonSet,

		ProvideFinnhubStream,
		ProvideTickRouter,
		ProvidePipeline,
		ProvideTickCollector,

		ProvideCollectorApp,
	)
	return nil, nil, nil
}
