package tlproxy

import "time"

// Config holds the proxy's limits and policy toggles. All values are fixed for
// the lifetime of a Service; none can be set per request.
type Config struct {
	Enabled      bool   `mapstructure:"enabled"`       // Serve translations at all (default: true)
	AllowPII     bool   `mapstructure:"allow_pii"`     // Forward emails, phone numbers and URLs (default: false)
	TargetLang   string `mapstructure:"target_lang"`   // Fixed target language code (default: "en")
	SourceScript string `mapstructure:"source_script"` // unicode.Scripts name a text must contain (default: "Cyrillic")

	MaxItems        int `mapstructure:"max_items"`         // Texts accepted per request
	MaxItemLength   int `mapstructure:"max_item_length"`   // Runes kept per text
	MaxTotalLength  int `mapstructure:"max_total_length"`  // Runes accepted per request
	MaxPayloadBytes int `mapstructure:"max_payload_bytes"` // Raw body size cap

	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	Parallelism int           `mapstructure:"parallelism"`  // Upstream calls in flight per request
	CallTimeout time.Duration `mapstructure:"call_timeout"` // Budget for one text, retries included
	Retries     int           `mapstructure:"retries"`      // Extra attempts for retryable upstream errors

	RateWindow        time.Duration `mapstructure:"rate_window"`
	RateMax           int           `mapstructure:"rate_max"`
	RateSweepInterval time.Duration `mapstructure:"rate_sweep_interval"` // How often idle client windows are dropped
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		AllowPII:     false,
		TargetLang:   "en",
		SourceScript: "Cyrillic",

		MaxItems:        100,
		MaxItemLength:   500,
		MaxTotalLength:  20000,
		MaxPayloadBytes: 64 << 10,

		CacheSize: 5000,
		CacheTTL:  24 * time.Hour,

		Parallelism: 6,
		CallTimeout: 8 * time.Second,
		Retries:     1,

		RateWindow:        time.Minute,
		RateMax:           60,
		RateSweepInterval: 5 * time.Minute,
	}
}

// Validate checks that every limit is usable.
func (c Config) Validate() error {
	positive := []struct {
		field string
		value int64
	}{
		{"max_items", int64(c.MaxItems)},
		{"max_item_length", int64(c.MaxItemLength)},
		{"max_total_length", int64(c.MaxTotalLength)},
		{"max_payload_bytes", int64(c.MaxPayloadBytes)},
		{"cache_size", int64(c.CacheSize)},
		{"parallelism", int64(c.Parallelism)},
		{"call_timeout", int64(c.CallTimeout)},
		{"rate_window", int64(c.RateWindow)},
		{"rate_max", int64(c.RateMax)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &ConfigError{Field: p.field, Message: "must be positive"}
		}
	}

	if c.Retries < 0 {
		return &ConfigError{Field: "retries", Message: "must not be negative"}
	}
	if c.TargetLang == "" {
		return &ConfigError{Field: "target_lang", Message: "is required"}
	}
	if _, ok := LookupScript(c.SourceScript); !ok {
		return &ConfigError{Field: "source_script", Message: "unknown script " + c.SourceScript}
	}
	return nil
}

// Policy returns the sanitizer policy carried by the config.
func (c Config) Policy() Policy {
	return Policy{
		MaxItems:        c.MaxItems,
		MaxItemLength:   c.MaxItemLength,
		MaxTotalLength:  c.MaxTotalLength,
		MaxPayloadBytes: c.MaxPayloadBytes,
		AllowPII:        c.AllowPII,
		SourceScript:    c.SourceScript,
	}
}
