package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/DealerHub/internal/pkg/billing"
)

const stripeSignatureHeader = "Stripe-Signature"

// DefaultWebhookTimeout bounds the whole pipeline for one delivery. Stripe
// gives up on an endpoint after a few seconds more than this.
const DefaultWebhookTimeout = 15 * time.Second

type BillingController struct {
	processor *billing.Processor
	timeout   time.Duration
}

func NewBillingController(processor *billing.Processor, timeout time.Duration) *BillingController {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &BillingController{processor: processor, timeout: timeout}
}

// HandleStripeWebhook feeds the raw request body to the activation pipeline.
// The body is copied before anything else touches it because the signature
// covers the exact bytes.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get(stripeSignatureHeader)

	ctx, cancel := context.WithTimeout(c.UserContext(), bc.timeout)
	defer cancel()

	resp := bc.processor.Handle(ctx, rawBody, signature)
	return c.Status(resp.StatusCode).JSON(resp.Body)
}

// HandleHealth is a liveness probe.
func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
