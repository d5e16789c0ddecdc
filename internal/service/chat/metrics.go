package chat

import (
	"sync"
	"time"
)

// Metrics tracks simple service counters for monitoring.
type Metrics struct {
	mu sync.RWMutex

	totalCompletions    int64
	totalPromptTokens   int64
	totalResponseTokens int64

	responseTimesSum time.Duration
	responseCount    int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordCompletion(promptTokens, responseTokens int, responseTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalCompletions++
	m.totalPromptTokens += int64(promptTokens)
	m.totalResponseTokens += int64(responseTokens)

	m.responseTimesSum += responseTime
	m.responseCount++
}

func (m *Metrics) Stats() (completions, promptTokens, responseTokens int64, avgTime time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.responseCount > 0 {
		avgTime = m.responseTimesSum / time.Duration(m.responseCount)
	}

	return m.totalCompletions, m.totalPromptTokens, m.totalResponseTokens, avgTime
}
