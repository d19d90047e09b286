package testutil

import (
	"sync"
	"time"

	"lfd/internal/models"
	"lfd/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Levels returns the recorded log levels in order.
func (m *MockLogger) Levels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := make([]string, 0, len(m.Logs))
	for _, e := range m.Logs {
		levels = append(levels, e.Level)
	}
	return levels
}

// MockArchiver implements interfaces.ArchiverInterface in memory.
type MockArchiver struct {
	mu       sync.Mutex
	Archived map[string]*models.LectureData
	Fail     error
}

func NewMockArchiver() *MockArchiver {
	return &MockArchiver{Archived: make(map[string]*models.LectureData)}
}

func (m *MockArchiver) Archive(lecture string, data *models.LectureData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.Archived[lecture] = data
	return nil
}

func (m *MockArchiver) Restore(lecture string) (*models.LectureData, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, false, m.Fail
	}
	data, ok := m.Archived[lecture]
	if ok {
		delete(m.Archived, lecture)
	}
	return data, ok, nil
}

func (m *MockArchiver) Close() error { return nil }

// MockMetrics implements providers.MetricsProviderInterface and counts
// calls.
type MockMetrics struct {
	mu               sync.Mutex
	Requests         int
	CacheHits        int
	CacheMisses      int
	Persists         int
	EventGauges      map[string]int
	CommentGauges    map[string]int
	OrphanedReplies  int
	MalformedRecords int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		EventGauges:   make(map[string]int),
		CommentGauges: make(map[string]int),
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persists++
}

func (m *MockMetrics) SetEventsTotal(lecture string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EventGauges[lecture] = count
}

func (m *MockMetrics) SetCommentsTotal(lecture string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommentGauges[lecture] = count
}

func (m *MockMetrics) IncOrphanedReplies() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrphanedReplies++
}

func (m *MockMetrics) IncMalformedRecords() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MalformedRecords++
}
