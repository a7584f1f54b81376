package utils

import (
	"sync"
	"time"
)

// RateLimiter ограничивает число запросов на ключ в скользящем окне
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// prune удаляет запросы, вышедшие за окно; вызывается под mu
func (rl *RateLimiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-rl.window)
	kept := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(rl.requests, key)
		return nil
	}
	rl.requests[key] = kept
	return kept
}

// Allow проверяет, разрешен ли запрос, и учитывает его
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.prune(key, now)) >= rl.limit {
		return false
	}
	rl.requests[key] = append(rl.requests[key], now)
	return true
}

// Reset сбрасывает счетчик для ключа
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.requests, key)
}

// Limit возвращает максимальное число запросов в окне
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// GetRemaining возвращает количество оставшихся запросов
func (rl *RateLimiter) GetRemaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.limit - len(rl.prune(key, rl.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetResetTime возвращает момент, когда освободится самый старый слот
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	active := rl.prune(key, now)
	if len(active) == 0 {
		return now
	}
	return active[0].Add(rl.window)
}

// RetryAfter возвращает, сколько ждать до освобождения слота
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	wait := rl.GetResetTime(key).Sub(rl.now())
	if wait < 0 {
		return 0
	}
	return wait
}
