package tlproxy

import (
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// InFlight collapses concurrent work for the same key into one call.
// All callers that arrive while a call for key is running receive its result;
// the key is forgotten as soon as the call returns, so later callers start a
// new one (and normally find the value in the cache first).
type InFlight struct {
	group   singleflight.Group
	pending atomic.Int64
}

// NewInFlight creates an empty deduplicator.
func NewInFlight() *InFlight {
	return &InFlight{}
}

// Resolve returns compute's result for key, running compute at most once for
// all concurrent callers. shared reports whether the value was delivered to
// more than one caller.
func (f *InFlight) Resolve(key string, compute func() string) (value string, shared bool) {
	v, _, shared := f.group.Do(key, func() (interface{}, error) {
		f.pending.Add(1)
		defer f.pending.Add(-1)
		return compute(), nil
	})
	return v.(string), shared
}

// Pending returns the number of keys currently being computed.
func (f *InFlight) Pending() int {
	return int(f.pending.Load())
}
