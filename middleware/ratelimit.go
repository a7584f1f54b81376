package middleware

import (
	"net"
	"net/http"
	"strconv"

	"bankly/utils"
)

// RateLimitMiddleware ограничивает частоту запросов с одного IP-адреса
func RateLimitMiddleware(limiter *utils.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := clientIP(r)

			if !limiter.Allow(clientIP) {
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(limiter, clientIP), 10))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			// Добавляем заголовки с информацией о лимитах
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.GetRemaining(clientIP)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(limiter.GetResetTime(clientIP).Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(limiter *utils.RateLimiter, key string) int64 {
	return int64(limiter.RetryAfter(key).Seconds()) + 1
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
