package main

import (
	"context"

	"fixflow/internal/pkg/bootstrap"
	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/discovery"
	"fixflow/internal/pkg/httpclient"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/service/inventory/application"
	"fixflow/internal/service/inventory/infrastructure"
	"fixflow/internal/service/inventory/infrastructure/adapter"
	"fixflow/internal/service/inventory/interfaces"

	"go.opentelemetry.io/otel"
)

const port = 8083

func main() {
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	var shipmentConsumer *interfaces.ShipmentConsumer

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.InventoryService,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.InventoryService)

			store := infrastructure.NewRedisStore(appCtx.Cfg.Infra.Redis.Addr)

			selector := discovery.NewSelector(appCtx.Registry)
			client := httpclient.NewClient(tracer, selector)
			backlog := adapter.NewBacklogHTTPAdapter(client)

			engine := application.NewReservationEngine(store, backlog, tracer)
			interfaces.NewInventoryHandler(engine).RegisterRoutes(appCtx.Mux)

			shipmentTopic := appCtx.Registry.GetKV(constants.KVShipmentTopicName)
			if shipmentTopic == "" {
				shipmentTopic = constants.DefaultShipmentTopic
			}
			reader := mq.NewKafkaReader(appCtx.Cfg.KafkaBrokerList(), shipmentTopic, constants.InventoryService)
			shipmentConsumer = interfaces.NewShipmentConsumer(reader, engine)
			shipmentConsumer.Start(consumerCtx)
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumer()
			if shipmentConsumer != nil {
				shipmentConsumer.Stop()
			}
		},
	})
}
