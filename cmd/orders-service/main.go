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
	"fixflow/internal/service/orders/application"
	"fixflow/internal/service/orders/infrastructure"
	"fixflow/internal/service/orders/infrastructure/adapter"
	"fixflow/internal/service/orders/infrastructure/rule"
	"fixflow/internal/service/orders/interfaces"

	"go.opentelemetry.io/otel"
)

const port = 8081

func main() {
	var statusAdapter *adapter.StatusKafkaAdapter

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.OrdersService,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.OrdersService)

			db, err := database.Open(appCtx.Cfg)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			repo, err := infrastructure.NewGormOrderRepository(db)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to prepare orders repository")
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

			// 复核规则文本由注册中心 KV 下发，空值落到内置兜底规则
			reviewRules, err := rule.NewCELRulesEngine(appCtx.Registry.GetKV(constants.KVOrderReviewRuleName))
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to compile order review rule")
			}

			service := application.NewOrderService(repo, reservations, statusAdapter, reviewRules, tracer)
			interfaces.NewOrderHandler(service).RegisterRoutes(appCtx.Mux)
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
