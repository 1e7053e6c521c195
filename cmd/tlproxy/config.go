package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/server"
)

// FileConfig is the full configuration read from file and environment.
type FileConfig struct {
	tlproxy.Config `mapstructure:",squash"`

	Server   server.Config  `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// ProviderConfig selects and configures the upstream engine.
type ProviderConfig struct {
	Name         string `mapstructure:"name"` // google, openai or mock
	BaseURL      string `mapstructure:"base_url"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	OpenAIModel  string `mapstructure:"openai_model"`
}

// RedisConfig enables the shared rate limiter when URL is set.
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// setDefaults registers every key so that environment variables are seen by
// Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper) {
	core := tlproxy.DefaultConfig()
	srv := server.DefaultConfig()

	defaults := map[string]interface{}{
		"enabled":             core.Enabled,
		"allow_pii":           core.AllowPII,
		"target_lang":         core.TargetLang,
		"source_script":       core.SourceScript,
		"max_items":           core.MaxItems,
		"max_item_length":     core.MaxItemLength,
		"max_total_length":    core.MaxTotalLength,
		"max_payload_bytes":   core.MaxPayloadBytes,
		"cache_size":          core.CacheSize,
		"cache_ttl":           core.CacheTTL,
		"parallelism":         core.Parallelism,
		"call_timeout":        core.CallTimeout,
		"retries":             core.Retries,
		"rate_window":         core.RateWindow,
		"rate_max":            core.RateMax,
		"rate_sweep_interval": core.RateSweepInterval,

		"server.addr":             srv.Addr,
		"server.path":             srv.Path,
		"server.debug":            srv.Debug,
		"server.shutdown_timeout": srv.ShutdownTimeout,

		"provider.name":           "google",
		"provider.base_url":       "",
		"provider.openai_api_key": "",
		"provider.openai_model":   "",

		"redis.url":        "",
		"redis.key_prefix": "",
		"redis.timeout":    500 * time.Millisecond,

		"log.level": "info",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// flagBindings maps config keys to command-line flags.
var flagBindings = map[string]string{
	"provider.name": "provider",
	"log.level":     "log-level",
	"server.addr":   "addr",
	"target_lang":   "lang",
}

// loadConfig reads the optional config file, TLPROXY_* environment variables
// and any flags set on cmd, in increasing order of precedence.
func loadConfig(path string, cmd *cobra.Command) (*FileConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TLPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if cmd != nil {
		for key, name := range flagBindings {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	decoderOpt := func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}

	cfg := new(FileConfig)
	if err := v.Unmarshal(cfg, decoderOpt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds a JSON logger writing to w at the given level.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core, zap.AddCaller()).Named(tlproxy.Name), nil
}
