package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/cache"
	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/env"
)

// csrfProtection guards the admin forms.
func csrfProtection() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Storage:        cache.GetStorage(),
	})
}
