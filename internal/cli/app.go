package cli

import (
	"fmt"
	"os"

	"github.com/harun/oracle/internal/config"
	"github.com/harun/oracle/internal/logger"
	"github.com/harun/oracle/pkg/dispatch"
	"github.com/harun/oracle/pkg/provider"
	"github.com/harun/oracle/pkg/runner"
	"github.com/harun/oracle/pkg/session"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// app is everything a command needs, resolved once from flags and config.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	logger     zerolog.Logger
	store      *session.Store
	dispatcher *dispatch.Dispatcher
	runner     *runner.Runner
	closed     bool
}

func newApp(g *globalOptions) (*app, error) {
	cfg, err := config.Load(g.home, g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    isatty.IsTerminal(os.Stderr.Fd()),
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zl := log.Zerolog()

	for _, w := range config.NewValidator().Warnings(cfg) {
		zl.Warn().Err(w).Msg("Configuration warning")
	}

	store, err := session.NewStore(cfg.SessionsDir, zl)
	if err != nil {
		log.Close()
		return nil, err
	}

	factory := g.factory
	if factory == nil {
		factory = provider.DefaultFactory
	}
	registry := provider.NewRegistryWithFactory(cfg.Credentials(), factory, zl)
	dispatcher := dispatch.New(registry, zl)

	return &app{
		cfg:        cfg,
		log:        log,
		logger:     zl,
		store:      store,
		dispatcher: dispatcher,
		runner: runner.New(store, dispatcher, runner.Config{
			Version:         version,
			MaxInputBytes:   cfg.MaxInputBytes,
			MetricsTextfile: cfg.Metrics.Textfile,
		}, zl),
	}, nil
}

// Close flushes and releases the diagnostic log. Later calls are no-ops.
func (a *app) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.log.Close()
}
