package main

import (
	"context"
	"os"

	"github.com/binhbb2204/bookhub/internal/devserver"
	"github.com/binhbb2204/bookhub/pkg/config"
	"github.com/binhbb2204/bookhub/pkg/database"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load environment variables from .env if present (optional)
	config.LoadEnv()

	jsonFormat := os.Getenv("LOG_FORMAT") == "json"
	logger.Init(logger.ParseLevel(os.Getenv("LOG_LEVEL")), jsonFormat, os.Stdout)

	log := logger.GetLogger().WithContext("component", "devserver")
	log.Info("starting_devserver", "version", "1.0.0")

	cfg := config.LoadDevServerConfig()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed_to_open_database", "error", err.Error(), "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.CreateAPITables(db); err != nil {
		log.Error("failed_to_create_tables", "error", err.Error())
		os.Exit(1)
	}

	if cfg.Seed {
		if err := devserver.Seed(context.Background(), db); err != nil {
			log.Error("failed_to_seed_database", "error", err.Error())
			os.Exit(1)
		}
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "your-secret-key-change-this-in-production"
		log.Warn("using_default_jwt_secret", "message", "Set JWT_SECRET environment variable in production!")
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := devserver.New(db, cfg, logger.GetLogger()).Router()

	log.Info("listening", "port", cfg.Port, "frontend_url", cfg.FrontendURL)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("failed_to_start_devserver", "error", err.Error())
		os.Exit(1)
	}
}
