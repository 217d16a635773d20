// Copyright 2026 fanjia1024
// OpenTelemetry integration for distributed tracing

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelConfig OpenTelemetry 配置
type OTelConfig struct {
	ServiceName    string
	ExportEndpoint string
	Insecure       bool
}

// InitTracer 初始化 OpenTelemetry tracer
func InitTracer(config OTelConfig) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.ExportEndpoint),
	}
	if config.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartRunSpan 开始一次完整分析 run 的 span
func StartRunSpan(ctx context.Context, sessionID, runID string) (context.Context, trace.Span) {
	tracer := otel.Tracer("ecoforge")
	ctx, span := tracer.Start(ctx, "run.analyze",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("run.id", runID),
		),
	)
	return ctx, span
}

// StartStageSpan 开始单个 pipeline 阶段的 span
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	tracer := otel.Tracer("ecoforge")
	ctx, span := tracer.Start(ctx, "stage."+stage,
		trace.WithAttributes(
			attribute.String("stage", stage),
		),
	)
	return ctx, span
}

// StartToolSpan 开始单次外部数据调用的 span
func StartToolSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	tracer := otel.Tracer("ecoforge")
	ctx, span := tracer.Start(ctx, "tool.fetch",
		trace.WithAttributes(
			attribute.String("tool.kind", kind),
		),
	)
	return ctx, span
}
