package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tasknest/internal/budget"
	"tasknest/internal/cache"
	"tasknest/internal/cli"
	"tasknest/internal/config"
	apphttp "tasknest/internal/http"
	"tasknest/internal/log"
	"tasknest/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	defaults, err := config.LoadDistribution(cfg.DistributionFile)
	if err != nil {
		logger.Error("Failed to load default distribution",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err,
			"path", cfg.DistributionFile)
		os.Exit(1)
	}

	backend := cli.OpenBackend(context.Background(), logger, cfg)

	statsCache := cache.NewLRUCache[budget.Stats](cfg.StatsCacheSize, cfg.StatsCacheTTL)
	cacheManager := cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentCache))
	cacheManager.Register(statsCache)
	cacheManager.StartCleanup(time.Minute)

	budgets := services.NewBudgetService(backend.Store, backend.Publisher, defaults, statsCache,
		logger.WithComponent(log.ComponentBudget))
	expenses := services.NewExpenseService(backend.Store, budgets,
		logger.WithComponent(log.ComponentExpense))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Budgets:            budgets,
		Expenses:           expenses,
		Health:             backend.Store,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	_, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting tasknest server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events_enabled", backend.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
