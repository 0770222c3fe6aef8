package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/embedding"
	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/outreach"
	"github.com/jonathan/outreach-agent/internal/portfolio"
	"github.com/jonathan/outreach-agent/internal/vectorstore"
)

// newLLMClient is swapped out in tests
var newLLMClient = func(ctx context.Context, cfg *llm.Config, apiKey string) (llm.Client, error) {
	return llm.NewClient(ctx, cfg, apiKey)
}

// app bundles the components a command needs. Fields are created lazily.
type app struct {
	cfg config.Config
	log *slog.Logger

	llm      llm.Client
	embedder embedding.Embedder
	index    vectorstore.Index
	store    *portfolio.Store
	closers  []io.Closer
}

// loadSettings resolves the effective configuration: flags win over the
// config file, which wins over built-in defaults.
func loadSettings() (config.Config, error) {
	fileCfg := config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, &config.ConfigError{Field: "config", Message: "cannot be loaded", Cause: err}
		}
		fileCfg = *loaded
	}

	merged := fileCfg.MergeWithDefaults(config.Default())
	cfg := flagValues.MergeWithDefaults(merged)
	cfg.Strict = flagValues.Strict || fileCfg.Strict
	cfg.Verbose = verboseFlag || fileCfg.Verbose
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newApp() (*app, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: newLogger(cfg.Verbose, os.Stderr)}, nil
}

// Close releases everything the app opened, in reverse order
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) apiKey() (string, error) {
	return a.cfg.ResolveAPIKey(apiKeyFlag)
}

func (a *app) llmClient(ctx context.Context) (llm.Client, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	key, err := a.apiKey()
	if err != nil {
		return nil, err
	}

	llmCfg := llm.DefaultGeminiConfig()
	if a.cfg.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, a.cfg.Model)
	}

	client, err := newLLMClient(ctx, llmCfg, key)
	if err != nil {
		return nil, err
	}
	a.llm = client
	a.closers = append(a.closers, client)
	return client, nil
}

func (a *app) outreachClient(ctx context.Context) (*outreach.Client, error) {
	client, err := a.llmClient(ctx)
	if err != nil {
		return nil, err
	}
	return outreach.New(client,
		outreach.WithPersona(outreach.Persona{
			Name:    a.cfg.SenderName,
			Title:   a.cfg.SenderTitle,
			Company: a.cfg.SenderCompany,
			Pitch:   a.cfg.CompanyPitch,
		}),
		outreach.WithStrictSchema(a.cfg.Strict),
		outreach.WithLogger(a.log),
	), nil
}

func (a *app) embedderFor(ctx context.Context) (embedding.Embedder, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	switch a.cfg.Embedder {
	case "hashing":
		a.embedder = embedding.NewHashing(0)
	default:
		key, err := a.apiKey()
		if err != nil {
			return nil, err
		}
		g, err := embedding.NewGemini(ctx, key, a.cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		a.embedder = g
		a.closers = append(a.closers, g)
	}
	return a.embedder, nil
}

// portfolioStore opens the vector index and the portfolio table, then loads
// the table into the index if the collection is empty.
func (a *app) portfolioStore(ctx context.Context) (*portfolio.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	embedder, err := a.embedderFor(ctx)
	if err != nil {
		return nil, err
	}

	index, err := vectorstore.Open(ctx, vectorstore.Options{
		Backend:     a.cfg.Backend,
		PersistDir:  a.cfg.PersistDir,
		Collection:  a.cfg.Collection,
		DatabaseURL: a.cfg.DatabaseURL,
		QdrantAddr:  a.cfg.QdrantAddr,
	}, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	a.index = index
	a.closers = append(a.closers, index)

	store, err := portfolio.Open(ctx, portfolio.Options{
		SourcePath:      a.cfg.SourcePath,
		PersistDir:      a.cfg.PersistDir,
		ResultsPerSkill: a.cfg.ResultsPerSkill,
		Logger:          a.log,
	}, index)
	if err != nil {
		return nil, err
	}

	loaded, err := store.LoadIfEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if loaded > 0 {
		a.log.Info("portfolio loaded", "entries", loaded)
	}

	a.store = store
	return store, nil
}
