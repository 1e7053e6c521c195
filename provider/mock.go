package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ZaguanLabs/tlproxy"
)

// MockProvider is a deterministic in-process engine for tests and dry runs.
// It is safe for concurrent use.
type MockProvider struct {
	mu           sync.Mutex
	translations map[string]string
	calls        map[string]int
	failures     map[string]bool
	delay        time.Duration
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		translations: map[string]string{
			"Привіт":          "Hello",
			"світ":            "world",
			"Привіт світ":     "Hello world",
			"Ласкаво просимо": "Welcome",
			"Дякую":           "Thank you",
		},
		calls:    make(map[string]int),
		failures: make(map[string]bool),
	}
}

// SetTranslation registers a canned translation.
func (m *MockProvider) SetTranslation(text, translation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.translations[text] = translation
}

// SetDelay makes every call take d, or until the context is done.
func (m *MockProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// FailOn makes calls for text return a retryable error.
func (m *MockProvider) FailOn(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[text] = true
}

// Translate returns mock translations. Unknown texts come back bracketed.
func (m *MockProvider) Translate(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.calls[text]++
	delay := m.delay
	fail := m.failures[text]
	translation, known := m.translations[text]
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", &tlproxy.ProviderError{Message: "mock call cancelled", Cause: ctx.Err()}
		}
	}

	if fail {
		return "", &tlproxy.ProviderError{Message: "mock failure", StatusCode: 503, Retryable: true}
	}

	if !known {
		// Return bracketed text for unknown translations
		translation = fmt.Sprintf("[%s]", text)
	}
	return translation, nil
}

// Calls returns how many times text was requested.
func (m *MockProvider) Calls(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[text]
}

// CallCount returns the total number of calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// Reset clears the call counters.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

// Verify MockProvider implements Upstream
var _ Upstream = (*MockProvider)(nil)
