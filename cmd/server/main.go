package main

import (
	"go.uber.org/zap"

	"lenstrack/backend/internal/config"
	"lenstrack/backend/internal/db"
	"lenstrack/backend/internal/handler"
	"lenstrack/backend/internal/repository"
	"lenstrack/backend/internal/router"
	"lenstrack/backend/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(database)
	lensRepo := repository.NewLensRepository(database)
	pushRepo := repository.NewPushRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	lensService := service.NewLensService(lensRepo)
	notificationService := service.NewNotificationService(pushRepo, logger)

	authHandler := handler.NewAuthHandler(authService)
	lensHandler := handler.NewLensHandler(lensService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	engine := router.New(cfg, logger, authService, authHandler, lensHandler, notificationHandler)
	logger.Info("backend listening", zap.String("port", cfg.Port))
	if err := engine.Run(":" + cfg.Port); err != nil {
		logger.Fatal("run server", zap.Error(err))
	}
}
