package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"khaltipay/internal/config"
	"khaltipay/internal/database"
	"khaltipay/internal/handlers"
	"khaltipay/internal/repositories"
	"khaltipay/internal/routes"
	"khaltipay/internal/services"
)

func main() {
	cfg := config.Load()

	var (
		transactions repositories.TransactionRepository
		events       repositories.PaymentEventRepository
	)
	switch cfg.StoreDriver {
	case "memory":
		transactions = repositories.NewMemoryTransactionRepository()
		events = repositories.NewMemoryPaymentEventRepository()
	default:
		db := database.Connect(cfg.DatabaseURL)
		transactions = repositories.NewGormTransactionRepository(db)
		events = repositories.NewGormPaymentEventRepository(db)
	}

	var cache repositories.TransactionCache = repositories.NoopTransactionCache{}
	if cfg.RedisURL != "" {
		client, err := repositories.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		cache = repositories.NewRedisTransactionCache(client)
	}

	var publisher services.EventPublisher = services.NoopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, err := services.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	// The gateway implementation is chosen once here; nothing downstream
	// branches on the mode again.
	var gateway services.GatewayClient
	var mock *services.MockGateway
	if cfg.IsMockMode() {
		mock = services.NewMockGateway(cfg.PublicBaseURL)
		gateway = mock
	} else {
		gateway = services.NewKhaltiClient(cfg.KhaltiBaseURL, cfg.KhaltiSecretKey, cfg.GatewayTimeout)
	}

	paymentService := services.NewPaymentService(cfg, gateway, transactions, events, cache, publisher)

	app := fiber.New(fiber.Config{
		AppName:      "Khalti Payment Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, cfg, paymentService, mock)

	log.Printf("Starting server on :%s (khalti %s, %s mode)", cfg.AppPort, cfg.KhaltiEnvironment, cfg.KhaltiMode)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
