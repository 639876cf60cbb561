// Package cli implements the treetop command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treetop/pkg/buildinfo"
	"github.com/matzehuels/treetop/pkg/cache"
	"github.com/matzehuels/treetop/pkg/pipeline"
	"github.com/matzehuels/treetop/pkg/render"
	"github.com/matzehuels/treetop/pkg/source"
	"github.com/matzehuels/treetop/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "treetop"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger. Configuration is
// loaded from the config file and environment; a broken config file is
// reported but does not prevent startup.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	cfg, err := LoadConfig()
	if err != nil {
		logger.Warn("config file ignored", "err", err)
		cfg = DefaultConfig()
	}
	return &CLI{Logger: logger, Config: cfg}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Treetop turns JSON documents into node-link diagrams",
		Long:         `Treetop normalizes arbitrary JSON documents into node-link graphs, lays them out as tidy trees, and renders them as SVG, PNG, DOT, or positioned JSON. It also ships an interactive terminal viewer and an HTTP API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner & Fetcher Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newFetcher creates a document fetcher sharing the CLI cache, with the
// local document store wired in so "doc:<ref>" sources resolve.
func (c *CLI) newFetcher(noCache bool) (*source.Fetcher, func(), error) {
	fc, err := newCache(noCache)
	if err != nil {
		return nil, nil, err
	}
	opts := []source.Option{
		source.WithCache(fc, cache.NewDefaultKeyer()),
		source.WithLogger(c.Logger),
	}

	cleanup := func() { _ = fc.Close() }
	if st, err := c.openStore(); err == nil {
		opts = append(opts, source.WithStore(store.Resolver{Store: st}))
		cleanup = func() {
			_ = st.Close()
			_ = fc.Close()
		}
	}
	return source.NewFetcher(opts...), cleanup, nil
}

// openStore opens the local SQLite document store.
func (c *CLI) openStore() (store.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(filepath.Join(dir, "documents.db"))
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/treetop/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory (~/.local/share/treetop/) holding the
// local document store.
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// stateDir returns the state directory (~/.local/state/treetop/) holding
// viewer sessions.
func stateDir() (string, error) {
	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		return filepath.Join(stateHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseList splits a comma-separated flag value, dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// nopCloser wraps an io.Writer with a no-op Close method, so os.Stdout
// can stand in for a file.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path, or stdout when the
// path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
