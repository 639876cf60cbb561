package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treetop/internal/api"
	"github.com/matzehuels/treetop/pkg/cache"
	"github.com/matzehuels/treetop/pkg/pipeline"
	"github.com/matzehuels/treetop/pkg/store"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	cfg := c.Config.Serve

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

The server exposes the pipeline statelessly (POST /v1/layout) plus
document CRUD. Backends are selectable: SQLite or MongoDB for the
document store, file, Redis, or no cache.

A .env file in the working directory is loaded before flags are read,
so deployment secrets (e.g. TREETOP_MONGO_URI) can live there.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// .env autoload: values apply only where no flag was given,
			// keeping flags > env > config > built-in precedence.
			if err := godotenv.Load(); err == nil {
				c.Config.applyEnv()
				env := c.Config.Serve
				overlay := map[string]func(){
					"addr":       func() { cfg.Addr = env.Addr },
					"store":      func() { cfg.Store = env.Store },
					"mongo-uri":  func() { cfg.MongoURI = env.MongoURI },
					"mongo-db":   func() { cfg.MongoDB = env.MongoDB },
					"cache":      func() { cfg.Cache = env.Cache },
					"redis-addr": func() { cfg.RedisAddr = env.RedisAddr },
					"rate-limit": func() { cfg.RateLimit = env.RateLimit },
					"rate-burst": func() { cfg.RateBurst = env.RateBurst },
				}
				for name, apply := range overlay {
					if !cmd.Flags().Changed(name) {
						apply()
					}
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&cfg.Store, "store", cfg.Store, "document store backend (sqlite|mongo)")
	cmd.Flags().StringVar(&cfg.MongoURI, "mongo-uri", cfg.MongoURI, "MongoDB connection URI")
	cmd.Flags().StringVar(&cfg.MongoDB, "mongo-db", cfg.MongoDB, "MongoDB database name")
	cmd.Flags().StringVar(&cfg.Cache, "cache", cfg.Cache, "cache backend (file|redis|none)")
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	cmd.Flags().Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "per-client requests/second (0 disables)")
	cmd.Flags().IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "per-client burst size")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg ServeConfig) error {
	serveCache, err := c.serveCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer serveCache.Close()

	st, err := c.serveStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runner := pipeline.NewRunner(serveCache, nil, c.Logger)
	server := api.NewServer(runner, st, c.Logger, api.Config{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "cache", cfg.Cache)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// serveCache builds the cache backend for the server.
func (c *CLI) serveCache(ctx context.Context, cfg ServeConfig) (cache.Cache, error) {
	switch cfg.Cache {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cfg.RedisAddr, "", 0)
	case "file", "":
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q (file|redis|none)", cfg.Cache)
	}
}

// serveStore builds the document store backend for the server.
func (c *CLI) serveStore(ctx context.Context, cfg ServeConfig) (store.Store, error) {
	switch cfg.Store {
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	case "sqlite", "":
		return c.openStore()
	default:
		return nil, fmt.Errorf("unknown store backend: %q (sqlite|mongo)", cfg.Store)
	}
}
