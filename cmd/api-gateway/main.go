package main

import (
	"fixflow/internal/gateway"
	"fixflow/internal/pkg/bootstrap"
	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/discovery"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const port = 8080

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.APIGateway,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			selector := discovery.NewSelector(appCtx.Registry)
			router := gateway.NewRouter(selector, nil)

			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.Handle("/api/", router)
		},
	})
}
