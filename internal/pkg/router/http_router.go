package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/DealerHub/app/controllers"
)

type HttpRouter struct {
	metricsUsers map[string]string
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", controllers.HandleHealth)

	// fiber metrics, only exposed with credentials
	if len(h.metricsUsers) > 0 {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: h.metricsUsers,
		}), monitor.New(monitor.Config{Title: "DealerHub Metrics"}))
	}
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	users := map[string]string{}
	if deps.MetricsUser != "" {
		users[deps.MetricsUser] = deps.MetricsPassword
	}
	return &HttpRouter{metricsUsers: users}
}
