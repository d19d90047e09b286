//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"lfd/internal"
	"lfd/internal/controllers"
	"lfd/internal/lecture"
	"lfd/internal/providers"
	"lfd/internal/services"
	"lfd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,

		services.NewFeedbackService,
		services.NewDiscussionService,

		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		lecture.NewZstdCompressor,
		lecture.NewFileManager,
		lecture.NewArchive,
		lecture.NewScheduler,

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
