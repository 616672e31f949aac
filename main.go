package main

import (
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/idss-ai/text2sql-engine/pkg/config"
	"github.com/idss-ai/text2sql-engine/pkg/handlers"
	"github.com/idss-ai/text2sql-engine/pkg/knowledge"
	"github.com/idss-ai/text2sql-engine/pkg/llm"
	"github.com/idss-ai/text2sql-engine/pkg/middleware"
	"github.com/idss-ai/text2sql-engine/pkg/services"
	enginesql "github.com/idss-ai/text2sql-engine/pkg/sql"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("knowledge_dir", cfg.Knowledge.Dir),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_endpoint", cfg.LLM.Endpoint),
		zap.String("llm_model", cfg.LLM.Model))

	// Load knowledge documents
	store := knowledge.Load(cfg.Knowledge.Dir, logger)
	logger.Info("Knowledge loaded",
		zap.Int("tables", len(store.Tables())),
		zap.Int("rules", len(store.Rules())),
		zap.Int("examples", len(store.Examples())))

	// Create the synthesizer client
	synth, err := llm.NewSynthesizer(&llm.Config{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create synthesizer", zap.Error(err))
	}

	validator := enginesql.NewFieldValidator(store,
		orNil(cfg.Validator.PseudoFields), orNil(cfg.Validator.SkipTokens))

	querySvc := services.NewQueryService(store, synth, validator, services.GenerateOptions{
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(querySvc, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	logger.Info("Starting text2sql-engine",
		zap.String("addr", cfg.Addr()),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(cfg.Addr(), handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// orNil keeps empty config lists falling back to the built-in defaults.
func orNil(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
