package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportFormat represents the JSON structure of a cache snapshot.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Count      int               `json:"count"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry represents a single cache entry.
type ExportEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	ExpiresAt string `json:"expires_at,omitempty"` // RFC 3339, empty when the entry never expires
}

// Snapshotter is implemented by caches that can list their live entries.
type Snapshotter interface {
	Snapshot() []ExportEntry
}

// Exporter writes read-only snapshots of a cache. Snapshots are for
// inspection only; there is no import path.
type Exporter struct {
	cache TranslationCache
	now   func() time.Time
}

// NewExporter creates a new cache exporter.
func NewExporter(cache TranslationCache) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes the cache contents to a writer in JSON format.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) error {
	s, ok := e.cache.(Snapshotter)
	if !ok {
		return fmt.Errorf("cache type %T does not support export", e.cache)
	}

	entries := s.Snapshot()
	export := ExportFormat{
		Version:    "1.0",
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}
