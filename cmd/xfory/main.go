package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SteveDakota/xfory/internal/backend"
	"github.com/SteveDakota/xfory/internal/config"
	"github.com/SteveDakota/xfory/internal/logging"
	"github.com/SteveDakota/xfory/internal/pitch"
	"github.com/SteveDakota/xfory/internal/ratelimit"
	"github.com/SteveDakota/xfory/internal/server"
	"github.com/SteveDakota/xfory/internal/store"
	"github.com/SteveDakota/xfory/internal/usage"
)

var (
	// Global flags
	verbose bool
	cfgPath string

	// Loaded in PersistentPreRunE, shared by all subcommands
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xfory",
	Short: "xfory - \"X for Y\" startup pitch generator",
	Long: `xfory turns an app name and a niche into a startup pitch.

It fronts a generative backend (Cloudflare Workers AI, Gemini, or an
OpenAI-compatible endpoint) with a small HTTP service: per-client rate
limiting, a hard call deadline, and deterministic fallbacks so every
request gets a well-shaped answer even when the model misbehaves.

Run 'xfory serve' to start the service, or 'xfory generate' for a
one-shot pitch on the command line.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pitch HTTP service",
	Long: `Starts the HTTP service.

Routes:
  POST /       generate a pitch from {"app", "niche", "wants_quip"}
  GET  /debug  runtime configuration snapshot (no secrets)

The service answers 200 with a JSON pitch, 400 on bad input, 429 when a
client exceeds its per-minute budget, and falls back to deterministic
templates when the backend times out or returns something unusable.`,
	RunE: runServe,
}

// generateCmd produces a single pitch without the HTTP boundary
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single pitch and print it as JSON",
	Long: `Generates one pitch directly, without starting the server.

Example:
  xfory generate --app Uber --niche "dog grooming" --quip`,
	RunE: runGenerate,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the xfory version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xfory %s\n", cfg.Version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "xfory.yaml", "Path to config file")

	// Generate flags
	generateCmd.Flags().String("app", "", "Well-known app to riff on (required)")
	generateCmd.Flags().String("niche", "", "Niche market to aim it at (required)")
	generateCmd.Flags().Bool("quip", false, "Include a one-liner quip")
	generateCmd.MarkFlagRequired("app")
	generateCmd.MarkFlagRequired("niche")

	// Add commands to root
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServe wires the full service together and runs it until a signal
// arrives.
func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, err := newRunner(ctx)
	if err != nil {
		return err
	}

	// Counter store: Redis when configured, otherwise per-process memory.
	counter := newCounter(ctx)
	if closer, ok := counter.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	storeKind := "memory"
	if k, ok := counter.(store.Kind); ok {
		storeKind = k.Kind()
	}

	limiter := ratelimit.NewFixedWindow(counter, ratelimit.Config{
		Window:      cfg.GetWindow(),
		MaxRequests: cfg.Limiter.MaxRequests,
		Expiry:      cfg.GetExpiry(),
		KeyPrefix:   cfg.Limiter.KeyPrefix,
	})

	svc := pitch.NewService(runner, limiter, &pitch.ServiceConfig{
		Model:       cfg.Backend.Model,
		Temperature: cfg.Backend.Temperature,
		MaxTokens:   cfg.Backend.MaxTokens,
		Timeout:     cfg.GetBackendTimeout(),
	})
	svc.SetLogger(logger)

	if cfg.Usage.Enabled {
		cwd, _ := os.Getwd()
		tracker, err := usage.NewTracker(cwd)
		if err != nil {
			logger.Warn("Usage metering disabled", zap.Error(err))
		} else {
			svc.SetTracker(tracker)
			defer tracker.Save()
		}
	}

	if cfg.Pitch.TemplatePath != "" {
		if cfg.Pitch.WatchTemplate {
			watcher, err := pitch.NewTemplateWatcher(svc.Prompts(), cfg.Pitch.TemplatePath, logger)
			if err != nil {
				return fmt.Errorf("failed to watch prompt template: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				return fmt.Errorf("failed to watch prompt template: %w", err)
			}
			defer watcher.Stop()
		} else if err := svc.Prompts().LoadFile(cfg.Pitch.TemplatePath); err != nil {
			logger.Warn("Prompt template not loaded, using built-in",
				zap.String("path", cfg.Pitch.TemplatePath),
				zap.Error(err))
		}
	}

	srv := server.New(svc, server.Options{
		Addr:            cfg.Server.Addr,
		AllowedOrigin:   cfg.Server.AllowedOrigin,
		MaxConns:        cfg.Server.MaxConns,
		ReadTimeout:     cfg.GetReadTimeout(),
		WriteTimeout:    cfg.GetWriteTimeout(),
		ShutdownTimeout: cfg.GetShutdownTimeout(),
		Version:         cfg.Version,
		Provider:        cfg.Backend.Provider,
		Model:           cfg.Backend.Model,
		StoreKind:       storeKind,
		Window:          cfg.GetWindow(),
		Limit:           cfg.Limiter.MaxRequests,
	}, logger)

	logger.Info("Starting xfory",
		zap.String("addr", cfg.Server.Addr),
		zap.String("provider", cfg.Backend.Provider),
		zap.String("model", cfg.Backend.Model),
		zap.String("store", storeKind),
		zap.Int("rate_limit", cfg.Limiter.MaxRequests))

	return srv.Run(ctx)
}

// runGenerate produces one pitch and prints it to stdout as JSON.
func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := cfg.Validate(); err != nil {
		return err
	}

	app, _ := cmd.Flags().GetString("app")
	niche, _ := cmd.Flags().GetString("niche")
	quip, _ := cmd.Flags().GetBool("quip")

	runner, err := newRunner(ctx)
	if err != nil {
		return err
	}

	// One shot from the local terminal needs no shared counter.
	limiter := ratelimit.NewFixedWindow(store.NewMemoryCounter(), ratelimit.Config{
		MaxRequests: cfg.Limiter.MaxRequests,
	})
	svc := pitch.NewService(runner, limiter, &pitch.ServiceConfig{
		Model:       cfg.Backend.Model,
		Temperature: cfg.Backend.Temperature,
		MaxTokens:   cfg.Backend.MaxTokens,
		Timeout:     cfg.GetBackendTimeout(),
	})
	svc.SetLogger(logger)

	if cfg.Pitch.TemplatePath != "" {
		if err := svc.Prompts().LoadFile(cfg.Pitch.TemplatePath); err != nil {
			logger.Warn("Prompt template not loaded, using built-in", zap.Error(err))
		}
	}

	result, err := svc.Generate(ctx, "cli", pitch.Request{
		App:       app,
		Niche:     niche,
		WantsQuip: quip,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pitch: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// newRunner builds the backend runner from config, falling back to
// environment detection when the config file names no provider.
func newRunner(ctx context.Context) (backend.Runner, error) {
	providerCfg := &backend.ProviderConfig{
		Provider:  backend.Provider(cfg.Backend.Provider),
		APIKey:    cfg.Backend.APIKey,
		AccountID: cfg.Backend.AccountID,
		Model:     cfg.Backend.Model,
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.GetBackendTimeout(),
		Pacing:    cfg.GetPacingInterval(),
	}
	if providerCfg.APIKey == "" {
		detected, err := backend.DetectProvider()
		if err != nil {
			return nil, err
		}
		detected.Model = providerCfg.Model
		detected.Timeout = providerCfg.Timeout
		detected.Pacing = providerCfg.Pacing
		providerCfg = detected
	}
	return backend.NewRunnerFromConfig(ctx, providerCfg)
}

// newCounter picks the counter store. Redis failure is a warning, not a
// startup failure: the service degrades to per-process limiting.
func newCounter(ctx context.Context) store.Counter {
	if cfg.Redis.Addr == "" {
		return store.NewMemoryCounter()
	}
	counter, err := store.NewRedisCounter(ctx, store.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis unreachable, falling back to in-memory counter",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		return store.NewMemoryCounter()
	}
	return counter
}
