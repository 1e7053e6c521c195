package tlproxy

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestInFlight_SingleCaller(t *testing.T) {
	f := NewInFlight()

	v, shared := f.Resolve("key", func() string { return "value" })
	if v != "value" {
		t.Errorf("Expected 'value', got %q", v)
	}
	if shared {
		t.Error("A lone caller should not be shared")
	}
}

func TestInFlight_ConcurrentCallersShareOneCall(t *testing.T) {
	f := NewInFlight()
	release := make(chan struct{})
	var calls atomic.Int64

	compute := func() string {
		calls.Add(1)
		<-release
		return "result"
	}

	const callers = 20
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]string, callers)

	// First caller owns the flight
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = f.Resolve("key", compute)
	}()

	// Wait until the flight is registered
	for f.Pending() == 0 {
		time.Sleep(time.Millisecond)
	}

	for i := 1; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			results[i], _ = f.Resolve("key", compute)
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("Expected 1 compute call, got %d", calls.Load())
	}
	for i, r := range results {
		if r != "result" {
			t.Errorf("Caller %d got %q", i, r)
		}
	}
	if f.Pending() != 0 {
		t.Errorf("Expected no pending keys after completion, got %d", f.Pending())
	}
}

func TestInFlight_KeyForgottenAfterCompletion(t *testing.T) {
	f := NewInFlight()
	var calls int

	for i := 0; i < 3; i++ {
		f.Resolve("key", func() string {
			calls++
			return "v"
		})
	}

	if calls != 3 {
		t.Errorf("Sequential callers should each compute, got %d calls", calls)
	}
}

func TestInFlight_DifferentKeysIndependent(t *testing.T) {
	f := NewInFlight()
	release := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Resolve("slow", func() string {
			<-release
			return "slow"
		})
	}()

	for f.Pending() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Must not wait for "slow"
	v, _ := f.Resolve("fast", func() string { return "fast" })
	if v != "fast" {
		t.Errorf("Expected 'fast', got %q", v)
	}

	close(release)
	wg.Wait()
}
