package categorizer

import (
	"context"
	"sync"
)

// MockAIClient returns canned suggestions for tests. Errs are consumed
// before Response, so a flaky-then-successful sequence can be simulated.
type MockAIClient struct {
	Response Suggestion
	Errs     []error

	mu      sync.Mutex
	Prompts []string
}

// Suggest records the prompt and pops the next configured error, returning
// Response once Errs is exhausted.
func (m *MockAIClient) Suggest(ctx context.Context, prompt string) (Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		if err != nil {
			return Suggestion{}, err
		}
	}
	return m.Response, nil
}

// CallCount returns how many times Suggest was invoked.
func (m *MockAIClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
