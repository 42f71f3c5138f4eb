package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"librarydesk_backend/internals/configs"
	database "librarydesk_backend/internals/databases"
	"librarydesk_backend/internals/features/finance/payments/gateway"
	subscriptionScheduler "librarydesk_backend/internals/features/subscriptions/subscriptions/scheduler"
	authScheduler "librarydesk_backend/internals/features/users/auth/scheduler"
	"librarydesk_backend/internals/helpers/reporter"
	middlewares "librarydesk_backend/internals/middlewares"
	"librarydesk_backend/internals/middlewares/logger"
	routes "librarydesk_backend/internals/route"
)

var version = "dev"

func main() {
	configs.LoadEnv()
	reporter.Init(version)
	defer reporter.Close()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		ErrorHandler:            middlewares.ErrorHandler,
		BodyLimit:               8 * 1024 * 1024,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ base middleware
	app.Use(middlewares.RecoveryMiddleware())
	app.Use(middlewares.RequestID(10 * time.Second))
	app.Use(logger.LoggerMiddleware())
	app.Use(middlewares.CorsMiddleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(middlewares.GlobalRateLimiter())

	// 🔌 DB + redis
	database.ConnectDB()
	database.TunePool()
	if configs.GetBool("AUTO_MIGRATE") {
		if err := database.Migrate(database.DB); err != nil {
			log.Fatalf("❌ migrate: %v", err)
		}
	}
	database.WarmUpQueries()
	database.ConnectRedis()

	// ✅ payment gateway
	gateway.InitMidtrans(configs.GetEnv("MIDTRANS_SERVER_KEY"), configs.GetBool("MIDTRANS_USE_PROD"))

	// ⏱ schedulers once the DB is ready
	authScheduler.StartBlacklistCleanupScheduler(database.DB)
	sweep := subscriptionScheduler.StartSubscriptionSweep(database.DB)

	routes.SetupRoutes(app, database.DB)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")
	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop cron, drain HTTP, close pools
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")

	<-sweep.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	database.CloseRedis()
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
