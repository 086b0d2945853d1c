package main

import (
	"context"

	"fixflow/internal/pkg/bootstrap"
	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/database"
	"fixflow/internal/pkg/discovery"
	"fixflow/internal/pkg/httpclient"
	"fixflow/internal/pkg/logger"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/service/repairs/application"
	"fixflow/internal/service/repairs/infrastructure"
	"fixflow/internal/service/repairs/infrastructure/adapter"
	"fixflow/internal/service/repairs/interfaces"

	"go.opentelemetry.io/otel"
)

const port = 8082

func main() {
	var statusAdapter *adapter.StatusKafkaAdapter

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.RepairService,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.RepairService)

			db, err := database.Open(appCtx.Cfg)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			repo, err := infrastructure.NewGormRepairRepository(db)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to prepare repairs repository")
			}

			selector := discovery.NewSelector(appCtx.Registry)
			client := httpclient.NewClient(tracer, selector)
			reservations := adapter.NewInventoryHTTPAdapter(client)

			statusTopic := appCtx.Registry.GetKV(constants.KVStatusTopicName)
			if statusTopic == "" {
				statusTopic = constants.DefaultStatusTopic
			}
			statusAdapter = adapter.NewStatusKafkaAdapter(
				mq.NewKafkaWriter(appCtx.Cfg.KafkaBrokerList(), statusTopic))

			service := application.NewRepairService(repo, reservations, statusAdapter, tracer)
			interfaces.NewRepairHandler(service).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if statusAdapter != nil {
				if err := statusAdapter.Close(); err != nil {
					logger.L().Error().Err(err).Msg("Error closing status notifier")
				}
			}
		},
	})
}
