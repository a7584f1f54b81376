package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики операций с деньгами
	Deposits      int64
	Withdrawals   int64
	Transfers     int64
	FraudBlocks   int64
	ScorerErrors  int64
	FailOpenPass  int64
	LastOperation time.Time

	// Отказы по бизнес-правилам (нехватка средств, блокировка и т.п.), по операциям
	Rejections map[string]int64

	// Суммарная длительность и число операций, для средней задержки по операциям
	OperationLatency map[string]time.Duration
	OperationCount   map[string]int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{}
		metrics.resetLocked()
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordOperation записывает метрики операции над счетом. err != nil означает сбой.
func (m *Metrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observeLocked(operation, duration)
	if err != nil {
		m.recordErrorLocked(operation)
		return
	}

	switch operation {
	case "deposit":
		m.Deposits++
	case "withdrawal":
		m.Withdrawals++
	case "transfer":
		m.Transfers++
	}
}

// RecordRejection учитывает операцию, отклоненную по бизнес-правилу. Это не ошибка системы.
func (m *Metrics) RecordRejection(operation string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observeLocked(operation, duration)
	m.Rejections[operation]++
}

func (m *Metrics) observeLocked(operation string, duration time.Duration) {
	m.LastOperation = time.Now()
	m.OperationLatency[operation] += duration
	m.OperationCount[operation]++
}

// RecordFraudBlock учитывает операцию, заблокированную скорером
func (m *Metrics) RecordFraudBlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FraudBlocks++
}

// RecordScorerError учитывает недоступность скорера; bypassed означает fail-open пропуск
func (m *Metrics) RecordScorerError(bypassed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScorerErrors++
	if bypassed {
		m.FailOpenPass++
	}
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(kind)
}

func (m *Metrics) recordErrorLocked(kind string) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()
	if kind == "" {
		kind = "unknown"
	}
	m.ErrorTypes[kind]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}
	rejections := make(map[string]int64, len(m.Rejections))
	for k, v := range m.Rejections {
		rejections[k] = v
	}
	latency := make(map[string]int64, len(m.OperationCount))
	for k, n := range m.OperationCount {
		latency[k] = (m.OperationLatency[k] / time.Duration(n)).Milliseconds()
	}

	return map[string]interface{}{
		"total_requests":     m.TotalRequests,
		"failed_requests":    m.FailedRequests,
		"average_latency_ms": m.AverageLatency.Milliseconds(),
		"deposits":           m.Deposits,
		"withdrawals":        m.Withdrawals,
		"transfers":          m.Transfers,
		"fraud_blocks":       m.FraudBlocks,
		"scorer_errors":      m.ScorerErrors,
		"fail_open_passes":   m.FailOpenPass,
		"rejections":         rejections,
		"operation_avg_ms":   latency,
		"error_count":        m.ErrorCount,
		"last_error_time":    m.LastErrorTime,
		"error_types":        errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Metrics) resetLocked() {
	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.Deposits = 0
	m.Withdrawals = 0
	m.Transfers = 0
	m.FraudBlocks = 0
	m.ScorerErrors = 0
	m.FailOpenPass = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
	m.Rejections = make(map[string]int64)
	m.OperationLatency = make(map[string]time.Duration)
	m.OperationCount = make(map[string]int64)
}
