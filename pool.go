package tlproxy

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// runPool applies fn to every text using at most parallelism goroutines.
// Workers claim indices from a shared cursor until the list is drained, so no
// more than min(parallelism, len(texts)) calls run at once. The result maps
// each text to fn's output; ordering of completion does not matter.
//
// A panic in fn is re-raised on the calling goroutine after all workers stop.
func runPool(texts []string, parallelism int, fn func(string) string) map[string]string {
	out := make(map[string]string, len(texts))
	if len(texts) == 0 {
		return out
	}

	workers := min(parallelism, len(texts))
	if workers < 1 {
		workers = 1
	}

	results := make([]string, len(texts))
	var cursor atomic.Int64
	var wg sync.WaitGroup
	var panicOnce sync.Once
	var panicked interface{}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicked = r })
				}
			}()

			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(texts) {
					return
				}
				results[i] = fn(texts[i])
			}
		}()
	}
	wg.Wait()

	if panicked != nil {
		panic(fmt.Sprintf("translation worker panicked: %v", panicked))
	}

	for i, text := range texts {
		out[text] = results[i]
	}
	return out
}
