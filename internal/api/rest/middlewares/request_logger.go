package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLoggerMiddleware writes one access log entry per request.
// 5xx responses are logged at error level, 4xx at warn and everything else at info.
type RequestLoggerMiddleware struct {
	logger *slog.Logger
}

// Handle logs method, path, status, bytes written, duration and request id after next returns.
func (m *RequestLoggerMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.logger.LogAttrs(
			r.Context(),
			levelForStatus(status),
			"http request",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewRequestLoggerMiddleware returns a Middleware logging every request to logger.
func NewRequestLoggerMiddleware(logger *slog.Logger) Middleware {
	return &RequestLoggerMiddleware{logger: logger}
}
