package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingConfig 日志中间件配置
type LoggingConfig struct {
	Logger        *slog.Logger
	SlowThreshold time.Duration // 慢请求阈值，超过此时间会记录为 WARN
	SkipPaths     []string      // 跳过日志的路径（如健康检查）
}

// StructuredLogger 结构化日志中间件
func StructuredLogger(config LoggingConfig) func(http.Handler) http.Handler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.SlowThreshold == 0 {
		config.SlowThreshold = 500 * time.Millisecond
	}

	skipPathMap := make(map[string]bool)
	for _, p := range config.SkipPaths {
		skipPathMap[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPathMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", status),
				slog.Duration("duration", duration),
				slog.String("client_ip", ClientIP(r)),
				slog.Int("bytes", ww.BytesWritten()),
			}
			// URL params are only known once the router has matched.
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if id := rctx.URLParam("id"); id != "" {
					attrs = append(attrs, slog.String("order_id", id))
				}
			}
			if key := r.Header.Get("Idempotency-Key"); key != "" {
				attrs = append(attrs, slog.String("idempotency_key", key))
			}
			if query := r.URL.RawQuery; query != "" {
				attrs = append(attrs, slog.String("query", query))
			}

			// 根据状态和耗时选择日志级别
			level := slog.LevelInfo
			msg := "request completed"
			switch {
			case status >= 500:
				level = slog.LevelError
				msg = "request failed"
			case status >= 400:
				level = slog.LevelWarn
				msg = "request error"
			case duration > config.SlowThreshold:
				level = slog.LevelWarn
				msg = "slow request"
				attrs = append(attrs, slog.Duration("slow_threshold", config.SlowThreshold))
			}

			config.Logger.LogAttrs(r.Context(), level, msg, attrs...)
		})
	}
}
