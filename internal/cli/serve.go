package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ammiranda/tree_diagram/cache"
	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/handlers"
	"github.com/ammiranda/tree_diagram/internal/diagram"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/repository"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type serveOpts struct {
	addr       string
	store      string
	dbPath     string
	configPath string
}

func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the node and diagram API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.store, "store", "sqlite", "node store: postgres, sqlite or memory")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "sqlite database file (default ~/.tree_diagram/nodes.db)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML config file")
	return cmd
}

func openRepository(ctx context.Context, store, dbPath string, provider config.Provider) (repository.Repository, error) {
	switch store {
	case "postgres":
		return repository.NewPostgresRepository(ctx, provider)
	case "sqlite":
		return repository.NewSQLiteRepository(dbPath), nil
	case "memory":
		return repository.NewMockRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store %q: must be postgres, sqlite or memory", store)
	}
}

func runServe(ctx context.Context, opts serveOpts) error {
	logger := logging.FromContext(ctx)

	provider, err := configProvider(opts.configPath)
	if err != nil {
		return err
	}

	repo, err := openRepository(ctx, opts.store, opts.dbPath, provider)
	if err != nil {
		return err
	}
	if err := repo.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", opts.store, err)
	}
	defer repo.Cleanup(ctx)

	layoutCfg, err := config.GetLayoutConfig(ctx, provider)
	if err != nil {
		return err
	}
	cacheCfg, err := config.GetCacheConfig(ctx, provider)
	if err != nil {
		return err
	}
	diagrams, err := cache.New(ctx, cacheCfg)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(diagram.NewService(repo, diagrams, layoutCfg), logger)

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "store", opts.store, "cache", cacheCfg.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
