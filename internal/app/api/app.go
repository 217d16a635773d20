// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"ecoforge/internal/app"
	"ecoforge/pkg/config"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用：装配 Hertz Router 与 Handler，仅依赖 Bootstrap 中的 Runner
type App struct {
	bootstrap    *app.Bootstrap
	handler      *Handler
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	if bootstrap == nil || bootstrap.Runner == nil {
		return nil, fmt.Errorf("bootstrap 未初始化")
	}
	return &App{
		bootstrap: bootstrap,
		handler:   NewHandler(bootstrap.Runner, bootstrap.Logger),
	}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 日志配置对齐
	output := os.Stdout
	if f := a.bootstrap.Config.Log.File; f != "" {
		file, err := os.OpenFile(f, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = file
	}
	levelVar := &slog.LevelVar{}
	switch a.bootstrap.Config.Log.Level {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))

	opts := []hertzconfig.Option{server.WithHostPorts(addr)}
	mon := a.bootstrap.Config.Monitoring
	if mon.OTelEnabled && mon.OTelEndpoint != "" {
		serviceName := mon.ServiceName
		if serviceName == "" {
			serviceName = "ecoforge-api"
		}
		p := provider.NewOpenTelemetryProvider(
			provider.WithServiceName(serviceName),
			provider.WithExportEndpoint(mon.OTelEndpoint),
			provider.WithInsecure(),
		)
		a.otelProvider = p
		tracerOpt, cfg := hertztracing.NewServerTracer()
		opts = append(opts, tracerOpt)
		a.hertz = server.New(opts...)
		a.hertz.Use(hertztracing.ServerMiddleware(cfg))
		a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", mon.OTelEndpoint)
	} else {
		a.hertz = server.New(opts...)
	}

	a.registerRoutes()
	return a.hertz.Run()
}

func (a *App) registerRoutes() {
	a.hertz.GET("/health", a.handler.Health)
	a.hertz.GET("/metrics", a.handler.Metrics)

	v1 := a.hertz.Group("/api/v1")
	v1.POST("/analyze", a.handler.Analyze)
	v1.GET("/sessions/:id/plan", a.handler.SessionPlan)
	v1.GET("/sessions/:id/stats", a.handler.SessionStats)
}

// Shutdown 优雅关闭（传入 ctx 以支持超时）
func (a *App) Shutdown(ctx context.Context) error {
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	return a.bootstrap.Close()
}

// Addr 根据配置计算监听地址
func Addr(cfg *config.Config) string {
	if cfg != nil && cfg.API.Port > 0 {
		return fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	}
	return ":8080"
}
