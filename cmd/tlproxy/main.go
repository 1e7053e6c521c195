// Command tlproxy runs the translation proxy and its maintenance tools.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/cache"
	"github.com/ZaguanLabs/tlproxy/extract"
	"github.com/ZaguanLabs/tlproxy/provider"
	"github.com/ZaguanLabs/tlproxy/ratelimit"
	"github.com/ZaguanLabs/tlproxy/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           tlproxy.Name,
		Short:         tlproxy.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("provider", "", "translation engine: google, openai or mock")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("lang", "", "target language code")

	root.AddCommand(
		newServeCmd(&configPath),
		newTranslateCmd(&configPath),
		newExtractCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP translation proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath, cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			srv, err := server.New(cfg.Server, a.svc, a.registry, a.logger.Named("server"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("starting",
				zap.String("version", tlproxy.FullVersion()),
				zap.String("provider", cfg.Provider.Name),
				zap.String("target_lang", cfg.TargetLang),
				zap.Bool("shared_rate_limit", cfg.Redis.URL != ""))
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	return cmd
}

func newTranslateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate texts given as arguments or one per line on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, cmd)
			if err != nil {
				return err
			}

			texts := args
			if len(texts) == 0 {
				texts, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			out := tlproxy.Response{Translations: a.svc.TranslateBatch(cmd.Context(), texts)}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

// extractResult is printed by "extract --json".
type extractResult struct {
	Snippets []extract.Snippet `json:"snippets"`
	Accepted []string          `json:"accepted"`
}

func newExtractCmd(configPath *string) *cobra.Command {
	var (
		jsonOutput bool
		translate  bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "extract <file.html>",
		Short: "List the page texts the proxy would translate, or translate the page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()

			doc, snippets, err := extract.NewExtractor().WithMaxTextLength(cfg.MaxItemLength).Extract(f)
			if err != nil {
				return err
			}

			sanitizer, err := tlproxy.NewSanitizer(cfg.Policy())
			if err != nil {
				return err
			}
			accepted := sanitizer.Clean(extract.Texts(snippets))

			if !translate {
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), extractResult{Snippets: snippets, Accepted: accepted})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%d snippets, %d accepted for translation\n", len(snippets), len(accepted))
				for _, text := range accepted {
					fmt.Fprintf(w, "  %s\n", text)
				}
				return nil
			}

			a, err := newApp(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			page, err := doc.Apply(a.svc.Translate(cmd.Context(), accepted))
			if err != nil {
				return err
			}

			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), page)
				return err
			}
			return os.WriteFile(output, []byte(page), 0o644)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print snippets as JSON")
	cmd.Flags().BoolVar(&translate, "translate", false, "translate the page and print the resulting HTML")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write translated HTML to file instead of stdout")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", tlproxy.Name, tlproxy.Version)
			if tlproxy.GitCommit != "unknown" && tlproxy.GitCommit != "" {
				fmt.Fprintf(w, "  commit:  %s\n", tlproxy.GitCommit)
			}
			if tlproxy.BuildDate != "unknown" && tlproxy.BuildDate != "" {
				fmt.Fprintf(w, "  built:   %s\n", tlproxy.BuildDate)
			}
		},
	}
}

// app holds the components shared by the commands.
type app struct {
	logger   *zap.Logger
	svc      *tlproxy.Service
	registry *prometheus.Registry
}

func newApp(cfg *FileConfig, logOut io.Writer) (*app, error) {
	logger, err := newLogger(cfg.Log.Level, logOut)
	if err != nil {
		return nil, err
	}

	upstream, err := newUpstream(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := tlproxy.NewMetrics(reg)

	mc, err := cache.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	metrics.RegisterCacheSize(reg, mc.Len)

	opts := []tlproxy.Option{
		tlproxy.WithLogger(logger),
		tlproxy.WithCache(mc),
		tlproxy.WithMetrics(metrics),
	}

	var limiter *ratelimit.Limiter
	if cfg.Redis.URL != "" {
		limiter, err = newRedisLimiter(cfg, logger.Named("ratelimit"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, tlproxy.WithLimiter(limiter))
	}

	svc, err := newService(cfg, upstream, limiter, opts...)
	if err != nil {
		return nil, err
	}

	return &app{logger: logger, svc: svc, registry: reg}, nil
}

// newService builds the Service. A limiter passed in is owned by the Service
// on success and closed here on failure.
func newService(cfg *FileConfig, upstream tlproxy.Upstream, limiter *ratelimit.Limiter, opts ...tlproxy.Option) (*tlproxy.Service, error) {
	svc, err := tlproxy.New(cfg.Config, upstream, opts...)
	if err != nil {
		if limiter != nil {
			_ = limiter.Close()
		}
		return nil, err
	}
	return svc, nil
}

// newRedisLimiter builds the limiter shared by every proxy process using the
// same Redis.
func newRedisLimiter(cfg *FileConfig, logger *zap.Logger) (*ratelimit.Limiter, error) {
	store, err := ratelimit.NewRedisStore(ratelimit.RedisConfig{
		URL:       cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix,
		Timeout:   cfg.Redis.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return newLimiter(cfg, store, logger)
}

// newLimiter wraps store; the store is closed if the limiter cannot be built.
func newLimiter(cfg *FileConfig, store ratelimit.Store, logger *zap.Logger) (*ratelimit.Limiter, error) {
	limiter, err := ratelimit.New(store, ratelimit.Config{Max: cfg.RateMax, Window: cfg.RateWindow}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return limiter, nil
}

func (a *app) close() {
	if err := a.svc.Close(); err != nil {
		a.logger.Warn("closing service", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newUpstream(cfg *FileConfig) (tlproxy.Upstream, error) {
	switch strings.ToLower(cfg.Provider.Name) {
	case "", "google":
		return provider.NewGoogleProvider(provider.GoogleConfig{
			TargetLang: cfg.TargetLang,
			BaseURL:    cfg.Provider.BaseURL,
		}), nil
	case "openai":
		key := cfg.Provider.OpenAIAPIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, &tlproxy.ConfigError{Field: "provider.openai_api_key", Message: "is required for the openai provider"}
		}
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:     key,
			Model:      cfg.Provider.OpenAIModel,
			BaseURL:    cfg.Provider.BaseURL,
			TargetLang: cfg.TargetLang,
		}), nil
	case "mock":
		return provider.NewMockProvider(), nil
	default:
		return nil, &tlproxy.ConfigError{Field: "provider.name", Message: "unknown provider " + cfg.Provider.Name}
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Compile-time check that the shared limiter fits the service.
var _ tlproxy.Limiter = (*ratelimit.Limiter)(nil)
