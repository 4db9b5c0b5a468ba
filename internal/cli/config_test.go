package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/kvstore"
	"github.com/roach88/acterstore/internal/memstore"
	"github.com/roach88/acterstore/internal/ref"
	"github.com/roach88/acterstore/internal/store"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"ACTERSTORE_DB", "ACTERSTORE_BACKEND", "ACTERSTORE_USER_ID", "ACTERSTORE_WORKERS", "ACTERSTORE_CACHE_SIZE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Backend:   BackendSQLite,
		UserID:    "@observer:localhost",
		Workers:   4,
		CacheSize: 1024,
	}, cfg)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("ACTERSTORE_DB", "/tmp/x.db")
	t.Setenv("ACTERSTORE_BACKEND", "pebble")
	t.Setenv("ACTERSTORE_USER_ID", "@me:example.org")
	t.Setenv("ACTERSTORE_WORKERS", "9")
	t.Setenv("ACTERSTORE_CACHE_SIZE", "32")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{
		DB:        "/tmp/x.db",
		Backend:   BackendPebble,
		UserID:    "@me:example.org",
		Workers:   9,
		CacheSize: 32,
	}, cfg)
}

func TestLoadConfig_BadNumber(t *testing.T) {
	t.Setenv("ACTERSTORE_WORKERS", "many")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Backend: BackendMemory, UserID: "@a:x", Workers: 1, CacheSize: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Backend = "redis" }, "unknown backend"},
		{"user", func(c *Config) { c.UserID = "" }, "user id is required"},
		{"workers", func(c *Config) { c.Workers = 0 }, "workers must be at least 1"},
		{"cache", func(c *Config) { c.CacheSize = 0 }, "cache size must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	flags := &configFlags{}
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--backend", "memory", "--workers", "7"}))

	cfg := flags.apply(cmd, Config{Backend: BackendSQLite, UserID: "@env:x", Workers: 4, CacheSize: 10})
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "@env:x", cfg.UserID, "unset flags keep the environment value")
	assert.Equal(t, 10, cfg.CacheSize)
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
		want any
	}{
		{"sqlite", Config{Backend: BackendSQLite, DB: filepath.Join(dir, "a.db"), UserID: "@a:x"}, &store.Store{}},
		{"pebble", Config{Backend: BackendPebble, DB: filepath.Join(dir, "kv"), UserID: "@a:x", CacheSize: 8}, &kvstore.Store{}},
		{"memory", Config{Backend: BackendMemory, UserID: "@a:x"}, &memstore.Store{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.cfg.OpenBackend()
			require.NoError(t, err)
			defer b.Close()
			assert.IsType(t, tt.want, b)
			assert.Equal(t, "@a:x", b.UserID())

			_, err = b.ListIndex(context.Background(), ref.AllHistory())
			assert.NoError(t, err)
		})
	}
}

func TestOpenBackend_RequiresDB(t *testing.T) {
	_, err := Config{Backend: BackendSQLite, UserID: "@a:x"}.OpenBackend()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database path required")
}
