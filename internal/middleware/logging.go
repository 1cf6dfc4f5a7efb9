package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"alarmserver/internal/logger"
)

// RequestLogger logs method, path, status and duration of every request.
// Server errors go to the error log, client errors to the warning log.
func RequestLogger(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			requestID := chiMiddleware.GetReqID(r.Context())

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("[%s] %s %s -> %d (%s)", requestID, r.Method, r.URL.Path, status, time.Since(start))
			case status >= http.StatusBadRequest:
				logger.Warning("[%s] %s %s -> %d (%s)", requestID, r.Method, r.URL.Path, status, time.Since(start))
			default:
				logger.Info("[%s] %s %s -> %d %dB (%s)", requestID, r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start))
			}
		})
	}
}
