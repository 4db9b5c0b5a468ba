package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/roach88/acterstore/internal/kvstore"
	"github.com/roach88/acterstore/internal/memstore"
	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/store"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// Config selects and sizes the model store. Every field has an environment
// variable; command-line flags take precedence.
type Config struct {
	DB        string `env:"ACTERSTORE_DB"`
	Backend   string `env:"ACTERSTORE_BACKEND" envDefault:"sqlite"`
	UserID    string `env:"ACTERSTORE_USER_ID" envDefault:"@observer:localhost"`
	Workers   int    `env:"ACTERSTORE_WORKERS" envDefault:"4"`
	CacheSize int    `env:"ACTERSTORE_CACHE_SIZE" envDefault:"1024"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the command.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendPebble, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q: must be one of sqlite, pebble, memory", c.Backend)
	}
	if c.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache size must be at least 1, got %d", c.CacheSize)
	}
	return nil
}

// OpenBackend opens the configured store. Persistent backends need DB.
func (c Config) OpenBackend() (model.Backend, error) {
	if c.Backend != BackendMemory && c.DB == "" {
		return nil, NewExitError(ExitCommandError, "database path required: set --db or ACTERSTORE_DB")
	}

	var (
		b   model.Backend
		err error
	)
	switch c.Backend {
	case BackendSQLite:
		b, err = store.Open(c.DB, c.UserID)
	case BackendPebble:
		b, err = kvstore.Open(c.DB, c.UserID, c.CacheSize)
	case BackendMemory:
		b = memstore.New(c.UserID)
	default:
		err = fmt.Errorf("unknown backend %q", c.Backend)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return b, nil
}

// configFlags mirrors Config on the command line.
type configFlags struct {
	db        string
	backend   string
	userID    string
	workers   int
	cacheSize int
}

func (f *configFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.db, "db", "", "database path (env ACTERSTORE_DB)")
	pf.StringVar(&f.backend, "backend", "", "store backend: sqlite|pebble|memory (env ACTERSTORE_BACKEND)")
	pf.StringVar(&f.userID, "user", "", "acting user id (env ACTERSTORE_USER_ID)")
	pf.IntVar(&f.workers, "workers", 0, "execute parallelism (env ACTERSTORE_WORKERS)")
	pf.IntVar(&f.cacheSize, "cache-size", 0, "pebble read cache entries (env ACTERSTORE_CACHE_SIZE)")
}

// apply overrides cfg with every flag set explicitly on cmd.
func (f *configFlags) apply(cmd *cobra.Command, cfg Config) Config {
	changed := cmd.Flags().Changed
	if changed("db") {
		cfg.DB = f.db
	}
	if changed("backend") {
		cfg.Backend = f.backend
	}
	if changed("user") {
		cfg.UserID = f.userID
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("cache-size") {
		cfg.CacheSize = f.cacheSize
	}
	return cfg
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
