package trace

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// InitTrace 初始化全局 TracerProvider，span 批量经 OTLP gRPC 发往 collector。
//
// 追踪是旁路能力：exporter 建不起来就记一条日志并返回 nil，
// 调用方据此跳过 otelhttp 包装，服务照常启动。
// 返回的 shutdown 负责 flush 未发送的 span，进程退出前要调用。
func InitTrace(endpoint string, serviceName string) (shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // collector 在内网，明文 gRPC
	)
	if err != nil {
		slog.Error("otlp exporter init failed", "endpoint", endpoint, "err", err)
		return nil
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
