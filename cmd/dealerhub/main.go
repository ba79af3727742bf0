package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/DealerHub/app/controllers"
	"github.com/ManuelReschke/DealerHub/internal/pkg/billing"
	"github.com/ManuelReschke/DealerHub/internal/pkg/cache"
	"github.com/ManuelReschke/DealerHub/internal/pkg/database"
	"github.com/ManuelReschke/DealerHub/internal/pkg/env"
	"github.com/ManuelReschke/DealerHub/internal/pkg/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env.SetupEnvFile()
	cfg, err := env.Load()
	if err != nil {
		log.Fatal(err)
	}

	app, cleanup := NewApplication(cfg)

	go func() {
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Infof("Received signal %v, shutting down", sig)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
	cleanup()
	log.Info("Shutdown complete")
}

// NewApplication wires the store, cache, pipeline and HTTP routes. The
// returned cleanup flushes outcome sinks and closes connections.
func NewApplication(cfg *env.Config) (*fiber.App, func()) {
	// Nothing here calls the Stripe API yet; the key is installed so any
	// stripe-go client added later is authenticated. Webhooks are verified
	// with the endpoint secret only.
	stripe.Key = cfg.StripeSecretKey

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := cache.NewClient(cfg)
	sinks := billing.MultiSink{billing.LogSink{}}
	var redisSink *billing.RedisSink
	if redisClient != nil {
		redisSink = billing.NewRedisSink(redisClient)
		sinks = append(sinks, redisSink)
	}

	processor := billing.NewProcessor(
		billing.NewVerifier(cfg.StripeWebhookSecret, cfg.WebhookTolerance),
		billing.NewRepository(db),
		sinks,
		cfg.StoreTimeout,
	)

	app := fiber.New(router.AppConfig())

	// recovery and logging
	app.Use(recover.New(), requestID, logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	router.InstallRouter(app, router.Dependencies{
		Billing:          controllers.NewBillingController(processor, 0),
		LimiterStorage:   cache.NewLimiterStorage(cfg),
		WebhookRateLimit: cfg.WebhookRateLimit,
		MetricsUser:      cfg.MetricsUser,
		MetricsPassword:  cfg.MetricsPassword,
	})

	cleanup := func() {
		redisSink.Close()
		closeRedis(redisClient)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return app, cleanup
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("requestid", id)
	c.Set(fiber.HeaderXRequestID, id)
	return c.Next()
}

func closeRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Warnf("[Cache] Close: %v", err)
	}
}
