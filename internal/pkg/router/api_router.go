package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/PurchaseDesk/app/controllers"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/cache"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/env"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/middleware"
)

type ApiRouter struct {
	admin middleware.AdminCredentials
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT_PER_MINUTE", 60),
		Expiration: 1 * time.Minute,
		Storage:    cache.GetStorage(),
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too_many_requests",
				"message": "rate limit exceeded",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1", middleware.RequireAPIAdmin(h.admin))
	v1.Get("/reports/:context", controllers.HandleAPIReport)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{admin: middleware.LoadAdminCredentials()}
}
