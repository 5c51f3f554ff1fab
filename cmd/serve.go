package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/database"
	"github.com/ortelius/gost-sbom/internal/api"
	"github.com/ortelius/gost-sbom/internal/config"
	"github.com/ortelius/gost-sbom/internal/kafka"
	"github.com/ortelius/gost-sbom/internal/services"
	"github.com/ortelius/gost-sbom/internal/validator"
	"github.com/ortelius/gost-sbom/internal/vcsprobe"
	"github.com/ortelius/gost-sbom/util"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the REST and GraphQL API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := util.InitLogger()
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	policy, err := validator.LoadPolicy(afero.NewOsFs(), cfg.PolicyFile)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	prober := vcsprobe.NewProber(
		vcsprobe.WithTimeout(cfg.VCSTimeout),
		vcsprobe.WithMaxRedirects(cfg.VCSMaxRedirects),
		vcsprobe.WithMaxInFlight(cfg.VCSMaxInFlight),
		vcsprobe.WithLogger(logger),
	)
	svc := services.NewSBOMService(store, validator.New(policy), prober, logger)

	if cfg.KafkaEnabled() {
		if err := kafka.RunEventProcessor(ctx, cfg, svc, logger); err != nil {
			logger.Warn("Kafka event processor disabled", zap.Error(err))
		}
	}

	app, err := api.NewFiberApp(cfg, svc)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreBackend),
		zap.String("graphql", "/api/graphql"))
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.Store, error) {
	if cfg.StoreBackend == config.BackendArango {
		return database.NewArangoStore(ctx, database.ArangoConfig{
			URL:            cfg.ArangoURL,
			User:           cfg.ArangoUser,
			Password:       cfg.ArangoPass,
			MaxElapsedTime: 5 * time.Minute,
		}, logger)
	}
	return database.NewFileStore(afero.NewOsFs(), cfg.DataDir, logger)
}
