package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roundtable-ai/roundtable/internal/config"
	"github.com/roundtable-ai/roundtable/internal/conversation"
	"github.com/roundtable-ai/roundtable/internal/database"
	"github.com/roundtable-ai/roundtable/internal/llm"
	"github.com/roundtable-ai/roundtable/internal/llm/providers"
	"github.com/roundtable-ai/roundtable/internal/memory"
	"github.com/roundtable-ai/roundtable/internal/observability"
	"github.com/roundtable-ai/roundtable/internal/orchestrator"
	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/types"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Roundtable - multi-persona advisory core",
	Long: `Roundtable routes your messages to a panel of configured advisor
personas. Relevant personas answer directly, compatible views are listed
side by side, and conflicting views are argued out through a short debate
with a neutral synthesis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "roundtable.yaml", "Path to the configuration file")
}

// app holds everything a subcommand needs after bootstrap.
type app struct {
	cfg        *config.Config
	db         *database.DB
	logger     *slog.Logger
	personas   persona.Store
	shortTerm  *memory.ShortTermManager
	mediumTerm *memory.MediumTermManager
	orch       *orchestrator.Orchestrator
}

// buildApp loads configuration and wires the full stack: database and
// migrations, model providers and slots, stores, memory managers, and the
// orchestrator.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	handler := newLogHandler(cfg.Logging)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if _, err := observability.InitTracing(ctx, cfg.Tracing); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	client, err := buildClient(cfg.LLM)
	if err != nil {
		db.Close()
		return nil, err
	}

	personas := persona.NewSQLiteStore(db)
	messages := conversation.NewSQLiteMessageStore(db)
	summaries := conversation.NewSQLiteSummaryStore(db)

	memoryLog := observability.NewTracedLogger(handler, "", "memory")
	shortTerm := memory.NewShortTermManager(messages, summaries, client, cfg.Memory, memoryLog)
	mediumTerm := memory.NewMediumTermManager(memory.NewSQLiteStore(db), cfg.Memory, memoryLog)

	orch, err := orchestrator.New(orchestrator.Deps{
		Personas:   personas,
		Messages:   messages,
		ShortTerm:  shortTerm,
		MediumTerm: mediumTerm,
		Client:     client,
		Config:     cfg.Orchestrator,
		Logger:     observability.NewTracedLogger(handler, "", "orchestrator"),
		Tracer:     observability.Tracer(),
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		db:         db,
		logger:     logger,
		personas:   personas,
		shortTerm:  shortTerm,
		mediumTerm: mediumTerm,
		orch:       orch,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func newLogHandler(cfg config.LoggingConfig) slog.Handler {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "text" {
		return observability.NewTextHandler(os.Stderr, level)
	}
	return observability.NewJSONHandler(os.Stderr, level)
}

// buildClient registers every configured provider, applies the optional
// rate limit, and binds the configured slots.
func buildClient(cfg config.LLMConfig) (*llm.Client, error) {
	registry := llm.NewRegistry()

	for name, providerCfg := range cfg.Providers {
		provider, err := buildProvider(name, providerCfg)
		if err != nil {
			return nil, err
		}
		if cfg.RateLimit.RequestsPerSecond > 0 {
			provider = llm.NewRateLimitedProvider(provider,
				cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		}
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	return llm.NewClient(registry, cfg.Slots)
}

func buildProvider(name string, cfg llm.ProviderConfig) (llm.Provider, error) {
	switch name {
	case "anthropic":
		return providers.NewAnthropicProvider(cfg)
	case "openai":
		return providers.NewOpenAIProvider(cfg)
	case "ollama":
		return providers.NewOllamaProvider(cfg)
	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown provider %q", name))
	}
}

// requireID parses a flag value as a UUID, naming the flag in the error.
func requireID(flag, value string) (types.ID, error) {
	if value == "" {
		return "", types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("--%s is required", flag))
	}
	id, err := types.ParseID(value)
	if err != nil {
		return "", types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("--%s must be a UUID: %v", flag, err))
	}
	return id, nil
}
