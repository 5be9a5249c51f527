package main

import (
	"log"

	"lesson-booking/cmd"
	"lesson-booking/internal/cache"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/events"
	"lesson-booking/internal/wire"
	"lesson-booking/pkg/database"
	"lesson-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Read cache for slot listings. Optional: nil when disabled.
	slotCache, err := cache.New(config, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer slotCache.Close()
	if slotCache != nil {
		logger.Info("Redis connected successfully")
	}

	// Booking event publisher. Optional: nil when disabled.
	publisher, err := events.New(config, logger)
	if err != nil {
		logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
	}
	defer publisher.Close()
	if publisher != nil {
		logger.Info("RabbitMQ connected successfully")
	}

	repos := repository.NewRepository(db, logger)

	app := wire.Wiring(repos, slotCache, publisher, config, logger)

	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
