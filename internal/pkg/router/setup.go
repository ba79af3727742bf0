package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// WebhookBodyLimit caps a single request. The only endpoint taking a body is
// the webhook, so the limit is enforced by fasthttp for the whole app.
const WebhookBodyLimit = 64 * 1024

// AppConfig is the fiber configuration the routes are written against.
func AppConfig() fiber.Config {
	return fiber.Config{
		AppName:      "DealerHub",
		BodyLimit:    WebhookBodyLimit,
		ErrorHandler: ErrorHandler,
	}
}

// ErrorHandler renders every error that reaches fiber, including the 413
// fasthttp produces for oversized bodies, as {"error": "..."}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers the service routes: liveness and metrics first,
// then the webhook API.
func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
