package main

import (
	"context"
	"net/http"

	"fixflow/internal/pkg/bootstrap"
	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/pkg/session"
	"fixflow/internal/service/push"

	"github.com/google/uuid"
)

const port = 8088

func main() {
	nodeID := constants.PushGateway + "-" + uuid.New().String()[:8]

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	var (
		hub      *push.Hub
		consumer *push.NotificationConsumer
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.PushGateway,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			sessions := session.NewManager(appCtx.Cfg.Infra.Redis.Addr)
			hub = push.NewHub(sessions, nodeID)
			go hub.Run()

			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				push.ServeWS(hub, w, r)
			})

			statusTopic := appCtx.Registry.GetKV(constants.KVStatusTopicName)
			if statusTopic == "" {
				statusTopic = constants.DefaultStatusTopic
			}
			// 每个节点独立消费组：所有节点都能看到全量通知，各投各的在线用户
			reader := mq.NewKafkaReader(appCtx.Cfg.KafkaBrokerList(), statusTopic, nodeID)
			consumer = push.NewNotificationConsumer(reader, hub, sessions, nodeID)
			consumer.Start(consumerCtx)
		},
		OnShutdown: func(ctx context.Context) {
			stopConsumer()
			if consumer != nil {
				consumer.Stop()
			}
			if hub != nil {
				hub.Stop()
			}
		},
	})
}
