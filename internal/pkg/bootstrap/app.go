// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"shopcore/internal/pkg/config"
	"shopcore/internal/pkg/logger"
	"shopcore/internal/pkg/nacos"
	"shopcore/internal/pkg/tracing"
)

// AppCtx 传给每个服务的路由注册回调。
type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 描述启动一个服务进程所需的信息。
type AppInfo struct {
	ServiceName      string
	Config           *config.Config
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器关闭后执行，用于释放 Kafka / DB 等资源（后进先出）。
	OnShutdown func(ctx context.Context)
}

// StartService 封装所有服务进程的通用启动与优雅关停流程：
// 日志、链路追踪、可选的 Nacos 注册、HTTP 服务器、信号处理。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	cfg := info.Config

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// Nacos 未配置时跳过注册，方便本地单进程运行
	var registry *nacos.Client
	var ip string
	if cfg.Nacos.Addrs != "" {
		registry, err = nacos.NewClient(cfg.Nacos.Addrs, cfg.Nacos.Namespace, cfg.Nacos.Group)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		ip, err = outboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := registry.RegisterServiceInstance(info.ServiceName, ip, cfg.Service.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
		log.Info().Str("ip", ip).Int("port", cfg.Service.Port).Msg("service registered with nacos")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Service.Port), Handler: mux}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理顺序与初始化相反
	if registry != nil {
		if err := registry.DeregisterServiceInstance(info.ServiceName, ip, cfg.Service.Port); err != nil {
			log.Error().Err(err).Msg("failed to deregister from nacos")
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}
	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down tracer provider")
	}
	log.Info().Msg("shutdown complete")
}

// outboundIP 取本机默认路由使用的 IP，作为注册到 Nacos 的实例地址。
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
