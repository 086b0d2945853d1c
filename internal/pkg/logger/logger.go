// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var base zerolog.Logger

func init() {
	// 未显式 Init 时也能输出，避免库代码里打日志 panic
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init 初始化全局日志器，所有日志都会带上 service 字段。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// L 返回全局日志器。
func L() *zerolog.Logger {
	return &base
}

// Ctx 返回绑定了当前 trace_id 的日志器，便于在 Jaeger 里按 trace 聚合日志。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &base
	}
	l := base.With().Str("trace_id", sc.TraceID().String()).Logger()
	return &l
}
