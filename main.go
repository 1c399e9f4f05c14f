package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory/internal/config"
	"inventory/internal/handlers"
	"inventory/internal/logger"
	"inventory/internal/middleware"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.App.Env)
	defer log.Sync() //nolint:errcheck

	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	productRepo := repositories.NewGORMProductRepository(db)
	if err := productRepo.Migrate(); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// Product events are optional; without a broker the API still serves.
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log)
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		publisher = mqClient

		err = mqClient.ConsumeProductEvents(func(event rabbitmq.ProductEvent) error {
			log.Info("product event received",
				zap.String("type", event.Type),
				zap.String("product_id", event.ProductID),
				zap.String("sku", event.SKU),
				zap.Time("occurred_at", event.OccurredAt),
			)
			return nil
		})
		if err != nil {
			log.Error("failed to start product event consumer", zap.Error(err))
		}
	} else {
		log.Info("RABBITMQ_URL not set, product events disabled")
	}

	app := newApp(productRepo, publisher, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("addr", cfg.App.Port))
		if err := app.Listen(cfg.App.Port); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// newApp wires the product API onto a Fiber app.
func newApp(repo repositories.ProductRepository, publisher services.EventPublisher, log *zap.Logger) *fiber.App {
	productService := services.NewProductService(repo, publisher, log)
	productHandler := handlers.NewProductHandler(productService, log)

	app := fiber.New(fiber.Config{
		AppName:               "inventory",
		DisableStartupMessage: true,
	})
	app.Use(middleware.RequestLogger(log))

	productHandler.RegisterRoutes(app.Group("/api"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
}
