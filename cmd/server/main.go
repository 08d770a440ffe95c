package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/api"
	"github.com/greenmart/groceryapi/internal/config"
	"github.com/greenmart/groceryapi/internal/gateway"
	"github.com/greenmart/groceryapi/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	tx := postgres.NewTxManager(db, logger)
	charger := gateway.NewClient(cfg.Gateway, logger)

	router := api.NewRouter(cfg, repos, tx, charger, logger)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
