package main

import (
	"context"
	"fmt"
	"os"

	"bizledger/internal/cache"
	"bizledger/internal/config"
	"bizledger/internal/logging"
	"bizledger/internal/repository"
	"bizledger/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  repository.Store
	cache  cache.Cache
	svc    *service.Service
}

func (a *app) close(ctx context.Context) {
	if a.cache != nil {
		_ = a.cache.Close()
		a.cache = nil
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func main() {
	if err := run(&app{}, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run executes one command line and releases what it opened, also when the
// command fails. Cobra skips post-run hooks on error.
func run(a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	defer a.close(context.Background())
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "bizctl",
		Short:        "Administer the bizledger store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(envFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Production(), cfg.LogLevel)
			if err != nil {
				return err
			}
			store, err := repository.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
			}
			a.cfg, a.logger, a.store = cfg, logger, store

			// writes made here must also drop the server's cached views
			a.cache = cache.Nop{}
			if cfg.RedisURL != "" {
				redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL, logger)
				if err != nil {
					logger.Warn("redis unavailable, cached views may be stale", zap.Error(err))
				} else {
					a.cache = redisCache
				}
			}
			a.svc = service.New(store, a.cache, logger, cfg.Location)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(newSeedCmd(a), newImportProductsCmd(a), newReportCmd(a))
	return root
}
