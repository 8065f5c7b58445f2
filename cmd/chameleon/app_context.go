package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/chameleon/internal/client"
	"github.com/alexisbeaulieu97/chameleon/internal/config"
	"github.com/alexisbeaulieu97/chameleon/internal/coordinator"
	"github.com/alexisbeaulieu97/chameleon/internal/llm"
	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/persistence"
	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// AppContext bundles long-lived services created for one command run.
type AppContext struct {
	Config    *config.Config
	Log       *logger.Logger
	Store     persistence.Store
	Location  *persistence.FileLocation
	Generator ports.Generator
	Rewriter  ports.Rewriter
	Extractor ports.Extractor

	flags *rootFlags
}

func newAppContext(cmd *cobra.Command, flags *rootFlags) (*AppContext, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, newCommandError("load configuration", configDescription(flags.configPath), err, "Fix the reported key in your config file or CHAMELEON_* environment variables.")
	}

	log, err := newLogger(cmd, cfg, flags.verbose)
	if err != nil {
		return nil, newCommandError("configure logging", "log.level "+cfg.Log.Level, err, "Use one of debug, info, warn or error.")
	}

	store, err := persistence.Open(cmd.Context(), cfg.StorageOptions(), log)
	if err != nil {
		return nil, newCommandError("open storage", cfg.Storage.Backend+" backend", err, "Check the storage section of your config, or set storage.backend to memory.")
	}

	app := &AppContext{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Location: persistence.NewFileLocation(cfg.Share.Location, cfg.Share.BaseURL, cfg.Share.Param),
		flags:    flags,
	}
	app.Generator, app.Rewriter, app.Extractor = buildServices(cfg, log)
	return app, nil
}

// Close releases the store.
func (a *AppContext) Close() {
	if err := persistence.Close(a.Store); err != nil {
		a.Log.WarnErr(err, "failed to close storage")
	}
}

// Coordinator builds a coordinator over the configured services and restores
// the starting vibe. A --url flag takes precedence over the saved location.
func (a *AppContext) Coordinator(ctx context.Context, extra ...coordinator.Option) (*coordinator.Coordinator, error) {
	opts := []coordinator.Option{
		coordinator.WithStore(a.Store),
		coordinator.WithSlugStore(a.Location),
		coordinator.WithTimeout(a.Config.API.GenerationTimeout),
		coordinator.WithLogger(a.Log),
	}
	coord := coordinator.New(a.Generator, append(opts, extra...)...)

	if a.flags.url == "" {
		coord.Restore(ctx)
		return coord, nil
	}

	loc, err := persistence.NewLocation(a.flags.url, a.Config.Share.Param)
	if err != nil {
		return nil, newCommandError("read --url", a.flags.url, err, "Pass an absolute URL such as https://example.com/page?vibe=cyberpunk.")
	}
	key, _ := loc.ReadSlug(ctx)

	var persisted *vibe.Vibe
	if v, ok := a.Store.Load(ctx); ok {
		persisted = &v
	}
	coord.Initialize(key, persisted)
	return coord, nil
}

// ServicesConfigured reports whether generation can reach a model, either
// through a Chameleon server or a Gemini API key.
func (a *AppContext) ServicesConfigured() bool {
	return a.Config.UsesServer() || a.Config.LLM.APIKey != ""
}

func buildServices(cfg *config.Config, log *logger.Logger) (ports.Generator, ports.Rewriter, ports.Extractor) {
	if cfg.UsesServer() {
		c := client.New(cfg.API.BaseURL, client.WithLogger(log))
		return c, c, c
	}

	provider := llm.NewGemini(llm.GeminiConfig{
		APIKey:      cfg.LLM.APIKey,
		Endpoint:    cfg.LLM.Endpoint,
		Temperature: cfg.LLM.Temperature,
		Logger:      log,
	})
	return llm.Stylist{Provider: provider, Model: cfg.LLM.StylistModel},
		llm.Editor{Provider: provider, Model: cfg.LLM.EditorModel},
		llm.Vision{Provider: provider, Model: cfg.LLM.VisionModel}
}

func newLogger(cmd *cobra.Command, cfg *config.Config, verbose bool) (*logger.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}

	var human bool
	switch cfg.Log.Format {
	case "console":
		human = true
	case "json":
		human = false
	default:
		human = isTerminal(os.Stderr)
	}

	return logger.New(logger.Options{Level: level, HumanReadable: human, Writer: cmd.ErrOrStderr()})
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth(f *os.File, fallback int) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

func configDescription(path string) string {
	if path == "" {
		return config.DefaultPath()
	}
	return path
}
