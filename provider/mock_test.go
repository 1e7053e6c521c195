package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZaguanLabs/tlproxy"
)

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	out, err := m.Translate(context.Background(), "Привіт")
	if err != nil {
		t.Fatalf("MockProvider.Translate failed: %v", err)
	}
	if out != "Hello" {
		t.Errorf("Expected 'Hello', got %q", out)
	}

	out, _ = m.Translate(context.Background(), "Невідомо")
	if out != "[Невідомо]" {
		t.Errorf("Expected '[Невідомо]', got %q", out)
	}

	if m.CallCount() != 2 {
		t.Errorf("Expected CallCount 2, got %d", m.CallCount())
	}

	m.Reset()
	if m.CallCount() != 0 {
		t.Errorf("Expected CallCount 0 after Reset, got %d", m.CallCount())
	}
}

func TestMockProvider_FailOn(t *testing.T) {
	m := NewMockProvider()
	m.FailOn("Дякую")

	_, err := m.Translate(context.Background(), "Дякую")
	var pe *tlproxy.ProviderError
	if !errors.As(err, &pe) || !pe.Retryable {
		t.Errorf("Expected retryable ProviderError, got %v", err)
	}
}

func TestMockProvider_DelayHonoursContext(t *testing.T) {
	m := NewMockProvider()
	m.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := m.Translate(ctx, "Привіт"); err == nil {
		t.Error("Expected error when context expires during delay")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Delay should stop when the context is done")
	}
}

func TestMockProvider_Concurrent(t *testing.T) {
	m := NewMockProvider()
	m.SetTranslation("Так", "Yes")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Translate(context.Background(), "Так")
		}()
	}
	wg.Wait()

	if m.Calls("Так") != 50 {
		t.Errorf("Expected 50 calls, got %d", m.Calls("Так"))
	}
}
