package main

import (
	"context"

	"fixflow/internal/pkg/bootstrap"
	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/logger"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/pkg/zookeeper"
	"fixflow/internal/service/orderparts/application"
	"fixflow/internal/service/orderparts/infrastructure"
	"fixflow/internal/service/orderparts/infrastructure/adapter"
	"fixflow/internal/service/orderparts/interfaces"

	"go.opentelemetry.io/otel"
)

const port = 8084

func main() {
	var procurementAdapter *adapter.ProcurementKafkaAdapter
	var zkConn *zookeeper.Conn

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.OrderPartsService,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.OrderPartsService)

			// 积压 hash 的名字由注册中心 KV 下发，多实例共享同一个积压
			mapName := appCtx.Registry.GetKV(constants.KVBacklogMapName)
			if mapName == "" {
				mapName = constants.DefaultBacklogMapName
			}
			store := infrastructure.NewRedisBacklogStore(appCtx.Cfg.Infra.Redis.Addr, mapName)

			procurementTopic := appCtx.Registry.GetKV(constants.KVProcurementTopic)
			if procurementTopic == "" {
				procurementTopic = constants.DefaultProcurementTopic
			}
			procurementAdapter = adapter.NewProcurementKafkaAdapter(
				mq.NewKafkaWriter(appCtx.Cfg.KafkaBrokerList(), procurementTopic))

			var err error
			zkConn, err = zookeeper.Connect(appCtx.Cfg.ZookeeperServerList())
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to connect to zookeeper")
			}
			flushLock, err := zookeeper.NewDistributedLock(zkConn, "backlog-flush")
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to prepare flush lock")
			}

			service := application.NewBacklogService(store, procurementAdapter, flushLock, tracer)
			interfaces.NewBacklogHandler(service).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if procurementAdapter != nil {
				if err := procurementAdapter.Close(); err != nil {
					logger.L().Error().Err(err).Msg("Error closing procurement publisher")
				}
			}
			if zkConn != nil {
				zkConn.Close()
			}
		},
	})
}
