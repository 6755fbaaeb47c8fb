//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/uv-australia/internal/bootstrap"
	"github.com/yanqian/uv-australia/internal/domain/dataset"
	"github.com/yanqian/uv-australia/internal/domain/session"
	"github.com/yanqian/uv-australia/internal/domain/uvadvisor"
	"github.com/yanqian/uv-australia/internal/infra/config"
	httpiface "github.com/yanqian/uv-australia/internal/interface/http"
	"github.com/yanqian/uv-australia/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideUVAdvisorConfig,
		provideChatClient,
		provideDatasetConfig,
		provideSessionConfig,
		provideUpstreamClient,
		provideGazetteer,
		provideUVFetcher,
		provideLocator,
		provideCacheStore,
		provideSnapshotCache,
		provideTrendStore,
		dataset.NewHolder,
		dataset.NewPoller,
		uvadvisor.NewService,
		session.NewManager,
		wire.Bind(new(session.SnapshotSource), new(*dataset.Holder)),
		wire.Bind(new(session.Advisor), new(uvadvisor.Service)),
		wire.Bind(new(httpiface.SnapshotSource), new(*dataset.Holder)),
		wire.Bind(new(httpiface.Refresher), new(*dataset.Poller)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
