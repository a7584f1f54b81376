package middleware

import (
	"net/http"
	"time"

	"bankly/utils"
)

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *LoggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware логирует запрос и записывает его в метрики. Тело ответа
// не логируется: в нем балансы и токены.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		failed := lrw.statusCode >= http.StatusInternalServerError
		utils.GetMetrics().RecordRequest(duration, failed)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"bytes", lrw.size,
			"duration", duration,
		}
		if failed {
			utils.LogError("request failed", args...)
			return
		}
		utils.LogInfo("request", args...)
	})
}
