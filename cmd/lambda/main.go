package main

import (
	"context"
	"os"

	"github.com/ammiranda/tree_diagram/cache"
	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/internal/diagram"
	"github.com/ammiranda/tree_diagram/internal/lambda"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/repository"

	awslambda "github.com/aws/aws-lambda-go/lambda"
)

func main() {
	ctx := context.Background()
	level, err := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := logging.New(os.Stderr, level)
	if err != nil {
		logger.Warn("falling back to info level", "err", err)
	}

	// Secrets Manager when a secret is configured, plain environment otherwise
	var cfgProvider config.Provider = config.NewEnvProvider("")
	if os.Getenv("AWS_SECRET_NAME") != "" {
		p, err := config.NewAWSConfigProvider()
		if err != nil {
			logger.Fatal("failed to create config provider", "err", err)
		}
		cfgProvider = p
	}

	// Initialize repository
	var repo repository.Repository = repository.NewMockRepository()
	if os.Getenv("DB_HOST") != "" || os.Getenv("AWS_SECRET_NAME") != "" {
		pg, err := repository.NewPostgresRepository(ctx, cfgProvider)
		if err != nil {
			logger.Fatal("failed to create repository", "err", err)
		}
		repo = pg
	}
	if err := repo.Initialize(ctx); err != nil {
		logger.Fatal("failed to initialize repository", "err", err)
	}

	layoutCfg, err := config.GetLayoutConfig(ctx, cfgProvider)
	if err != nil {
		logger.Fatal("failed to load layout config", "err", err)
	}
	cacheCfg, err := config.GetCacheConfig(ctx, cfgProvider)
	if err != nil {
		logger.Fatal("failed to load cache config", "err", err)
	}
	diagrams, err := cache.New(ctx, cacheCfg)
	if err != nil {
		logger.Fatal("failed to initialize cache", "err", err)
	}

	// Create handler with the diagram service
	handler := lambda.NewHandler(diagram.NewService(repo, diagrams, layoutCfg))

	// Start Lambda
	awslambda.StartWithOptions(handler.Handle, awslambda.WithContext(logging.WithLogger(ctx, logger)))
}
