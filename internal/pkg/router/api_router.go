package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/DealerHub/app/controllers"
)

// Dependencies carries what the routes need from main.
type Dependencies struct {
	Billing          *controllers.BillingController
	LimiterStorage   fiber.Storage
	WebhookRateLimit int
	MetricsUser      string
	MetricsPassword  string
}

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limit := h.deps.WebhookRateLimit
	if limit <= 0 {
		limit = 120
	}

	stripe := app.Group("/api/stripe",
		cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "POST,OPTIONS",
			AllowHeaders: "Content-Type,Stripe-Signature",
		}),
		limiter.New(limiter.Config{
			Max:        limit,
			Expiration: time.Minute,
			Storage:    h.deps.LimiterStorage,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
			},
		}),
	)
	stripe.Post("/webhook", h.deps.Billing.HandleStripeWebhook)
	// preflights carrying Access-Control-Request-Method are answered by cors
	stripe.Options("/webhook", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
