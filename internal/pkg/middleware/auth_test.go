package middleware

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testCredentials(t *testing.T) AdminCredentials {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return AdminCredentials{User: "admin", PasswordHash: string(hash)}
}

func TestAdminCredentialsCheck(t *testing.T) {
	creds := testCredentials(t)

	assert.True(t, creds.Check("admin", "s3cret"))
	assert.False(t, creds.Check("admin", "wrong"))
	assert.False(t, creds.Check("root", "s3cret"))
	assert.False(t, AdminCredentials{User: "admin"}.Check("admin", ""))
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", RequireAdmin(testCredentials(t)), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", fiber.StatusUnauthorized},
		{"wrong password", basicAuth("admin", "nope"), fiber.StatusUnauthorized},
		{"valid", basicAuth("admin", "s3cret"), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequireAPIAdminAnswersJSON(t *testing.T) {
	app := fiber.New()
	app.Get("/api", RequireAPIAdmin(testCredentials(t)), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}
