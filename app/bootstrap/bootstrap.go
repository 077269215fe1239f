package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/studyhub/backend-go/internal/config"
	"github.com/studyhub/backend-go/internal/database"
	"github.com/studyhub/backend-go/internal/di"
	"github.com/studyhub/backend-go/internal/kafka"
	"github.com/studyhub/backend-go/internal/knowledge"
	"github.com/studyhub/backend-go/internal/logger"
	"github.com/studyhub/backend-go/internal/services"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	Holder   *knowledge.PairHolder
	reloader *knowledge.Reloader
	cleanup  []func() error
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// Init bootstraps configuration, logger, database connections and the
// knowledge index required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	app := &App{}

	if _, err := database.InitDB(); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		if _, err := database.InitRedis(); err != nil {
			logger.Warn("redis unavailable, profile cache disabled", zap.Error(err))
		} else {
			app.cleanup = append(app.cleanup, database.CloseRedis)
		}
	}

	if cfg.Kafka.Enabled {
		if err := kafka.InitProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			logger.Warn("kafka unavailable, turn audit disabled", zap.Error(err))
		} else {
			app.cleanup = append(app.cleanup, kafka.Close)
		}
	}

	// The index pair is required to serve queries. A missing or mismatched
	// pair is a deployment error, not something to limp through.
	pair, err := knowledge.LoadIndexPair(cfg.Retrieval.IndexDir)
	if err != nil {
		return nil, err
	}
	app.Holder = knowledge.NewPairHolder(pair)
	logger.Info("knowledge index loaded",
		zap.Int("chunks", pair.Count()),
		zap.Int("dimension", pair.Dimension()))

	reloader, err := knowledge.NewReloader(app.Holder, cfg.Retrieval.IndexDir)
	if err != nil {
		logger.Warn("index hot-reload disabled", zap.Error(err))
	} else {
		app.reloader = reloader
		app.cleanup = append(app.cleanup, reloader.Close)
	}

	container := di.InitContainer()
	if err := di.RegisterProviders(container, app.Holder); err != nil {
		return nil, err
	}

	if err := di.Invoke(func(metrics *services.MetricsService) {
		metrics.SetIndexSize(pair.Count())
	}); err != nil {
		return nil, err
	}

	globalApp = app
	return app, nil
}

// Shutdown releases resources acquired during Init.
func (a *App) Shutdown() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			logger.Warn("cleanup task failed", zap.Error(err))
		}
	}
	logger.Sync()
}
