//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"regenwasi/internal"
	"regenwasi/internal/controllers"
	"regenwasi/internal/gateways"
	"regenwasi/internal/guardian"
	"regenwasi/internal/providers"
	"regenwasi/internal/services"
	"regenwasi/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewAuthProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		services.NewPetService,

		gateways.NewChatGateway,
		gateways.NewMemoryGateway,
		gateways.NewEvaluationGateway,
		gateways.NewHubGateway,

		guardian.NewZstdCompressor,
		guardian.NewFileManager,
		guardian.NewAutosaver,
		guardian.NewScheduler,

		controllers.NewPetController,
		controllers.NewChatController,
		controllers.NewTrainingController,
		controllers.NewHubController,
		controllers.NewHealthController,

		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
