package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/PurchaseDesk/internal/pkg/env"
)

const adminRealm = "PurchaseDesk Admin"

// AdminCredentials is the single admin account guarding /admin and /api.
type AdminCredentials struct {
	User         string
	PasswordHash string // bcrypt
}

// LoadAdminCredentials reads ADMIN_USER and ADMIN_PASSWORD_HASH.
func LoadAdminCredentials() AdminCredentials {
	return AdminCredentials{
		User:         env.GetEnv("ADMIN_USER", "admin"),
		PasswordHash: env.GetEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

// Check compares a login against the account. Without a password hash every
// login fails.
func (a AdminCredentials) Check(user, password string) bool {
	if a.PasswordHash == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// RequireAdmin answers 401 with a basic auth challenge unless the request
// carries the admin login.
func RequireAdmin(creds AdminCredentials) fiber.Handler {
	if creds.PasswordHash == "" {
		log.Warn("[Auth] ADMIN_PASSWORD_HASH is not set, admin routes will reject every login")
	}
	return basicauth.New(basicauth.Config{
		Realm:      adminRealm,
		Authorizer: creds.Check,
	})
}

// RequireAPIAdmin is RequireAdmin with a JSON body on failure.
func RequireAPIAdmin(creds AdminCredentials) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm:      adminRealm,
		Authorizer: creds.Check,
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `basic realm="`+adminRealm+`"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "admin login required",
			})
		},
	})
}
