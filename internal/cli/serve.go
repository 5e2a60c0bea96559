package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphsplit/internal/server"
	"github.com/matzehuels/graphsplit/pkg/cache"
	apperrors "github.com/matzehuels/graphsplit/pkg/errors"
	"github.com/matzehuels/graphsplit/pkg/pipeline"
	"github.com/matzehuels/graphsplit/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	redisURL string // optional Redis cache backend
	mongoURL string // optional Mongo result store
	noCache  bool
}

// serveCommand creates the serve command.
//
// With no backend flags the server runs self-contained: file cache, in-memory
// run store. Redis and Mongo make cache and runs shared across instances.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the graphsplit HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the pipeline cache (redis://...)")
	cmd.Flags().StringVar(&opts.mongoURL, "mongo", "", "MongoDB URL for the run store (mongodb://...)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	ca, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(ca, nil, c.Logger)
	defer runner.Close()

	st, err := c.serveStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	srv := &http.Server{
		Addr:    opts.addr,
		Handler: server.New(runner, st, c.Logger).Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("serving", "addr", opts.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (c *CLI) serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.redisURL != "" {
		if err := apperrors.ValidateURL(opts.redisURL); err != nil {
			return nil, err
		}
		ca, err := cache.NewRedisCache(ctx, opts.redisURL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		c.Logger.Info("using redis cache")
		return ca, nil
	}
	return newCache(opts.noCache)
}

func (c *CLI) serveStore(ctx context.Context, opts *serveOpts) (store.Store, error) {
	if opts.mongoURL != "" {
		if err := apperrors.ValidateURL(opts.mongoURL); err != nil {
			return nil, err
		}
		st, err := store.NewMongoStore(ctx, opts.mongoURL)
		if err != nil {
			return nil, fmt.Errorf("mongo store: %w", err)
		}
		c.Logger.Info("using mongo run store")
		return st, nil
	}
	return store.NewMemoryStore(), nil
}
