package mocks

import (
	"sync"

	"github.com/kevin07696/bnpl-service/internal/domain/ports"
)

// MockLogger records log calls per level. Safe for use from the consumer goroutines.
type MockLogger struct {
	mu         sync.Mutex
	InfoCalls  []LogCall
	ErrorCalls []LogCall
	WarnCalls  []LogCall
	DebugCalls []LogCall
}

// LogCall is one recorded log line
type LogCall struct {
	Message string
	Fields  []ports.Field
}

// Field returns the value logged under key
func (c LogCall) Field(key string) (interface{}, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(calls *[]LogCall, msg string, fields []ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*calls = append(*calls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  { m.record(&m.InfoCalls, msg, fields) }
func (m *MockLogger) Error(msg string, fields ...ports.Field) { m.record(&m.ErrorCalls, msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  { m.record(&m.WarnCalls, msg, fields) }
func (m *MockLogger) Debug(msg string, fields ...ports.Field) { m.record(&m.DebugCalls, msg, fields) }

// Find returns the first call with msg across all levels
func (m *MockLogger) Find(msg string) (LogCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, calls := range [][]LogCall{m.ErrorCalls, m.WarnCalls, m.InfoCalls, m.DebugCalls} {
		for _, c := range calls {
			if c.Message == msg {
				return c, true
			}
		}
	}
	return LogCall{}, false
}
