// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fixflow/internal/pkg/config"
	"fixflow/internal/pkg/logger"
	"fixflow/internal/pkg/registry"
	"fixflow/internal/pkg/tracing"
	"fixflow/internal/pkg/utils"

	"github.com/google/uuid"
)

// AppCtx 传递给各服务的路由注册回调，携带组装好的公共依赖。
type AppCtx struct {
	Mux      *http.ServeMux
	Registry *registry.Client
	Cfg      *config.Config
}

// AppInfo 描述启动一个微服务所需的特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在服务注销之后、进程退出之前执行，用于关闭消费者等后台资源
	OnShutdown func(ctx context.Context)
}

// StartService 封装所有微服务通用的启动与优雅关停逻辑：
// 加载配置 → 初始化日志/追踪 → 注册到注册中心 → 启动 HTTP → 等待信号 →
// 注销 → 逐层关闭。注销在所有退出路径上都会被执行。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to load config")
	}

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	reg, err := registry.New(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to initialize registry client")
	}

	ip, err := utils.GetOutboundIP()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to get outbound IP address")
	}

	instanceID := info.ServiceName + "-" + uuid.New().String()[:8]
	if err := reg.Register(info.ServiceName, instanceID, ip, info.Port); err != nil {
		logger.L().Fatal().Err(err).Msg("failed to register service")
	}
	// 无论因何退出，都尝试注销，避免网关继续路由到死实例
	defer func() {
		if err := reg.Deregister(); err != nil {
			logger.L().Error().Err(err).Msg("Error deregistering service")
		}
	}()

	mux := http.NewServeMux()
	// 注册中心和实例选择器都探测这个路径
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Registry: reg, Cfg: cfg})
	}

	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	serverErr := make(chan error, 1)
	go func() {
		logger.L().Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.L().Info().Msgf("Received signal %v, shutting down %s...", sig, info.ServiceName)
	case err := <-serverErr:
		logger.L().Error().Err(err).Msg("HTTP server failed, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := reg.Deregister(); err != nil {
		logger.L().Error().Err(err).Msg("Error deregistering service")
	}

	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.L().Error().Err(err).Msg("Error shutting down tracer provider")
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.L().Error().Err(err).Msg("Error shutting down http server")
	}

	logger.L().Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}
