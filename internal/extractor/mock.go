package extractor

import (
	"context"
	"sync"
)

// MockExtractor returns canned text for tests. When Texts has an entry for
// the requested path it wins over the default Text.
type MockExtractor struct {
	Text  string
	Texts map[string]string
	Err   error

	mu    sync.Mutex
	Calls []string
}

// Extract records the call and returns the configured text or error.
func (m *MockExtractor) Extract(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, path)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if t, ok := m.Texts[path]; ok {
		return t, nil
	}
	return m.Text, nil
}

// CallCount returns how many times Extract was invoked.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
