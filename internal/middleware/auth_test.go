package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicpay/internal/models"
	"civicpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestMiddleware() *AuthMiddleware {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAuthMiddleware(testSecret, log)
}

func token(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.IssueToken(secret, &models.UserClaims{UserID: "u-1", Role: role}, ttl)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware_Handler(t *testing.T) {
	m := newTestMiddleware()
	app := fiber.New()
	app.Get("/me", m.Handler, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userID").(string))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token(t, testSecret, models.RoleResident, time.Hour), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + token(t, "other-secret", models.RoleResident, time.Hour), http.StatusUnauthorized},
		{"expired token", "Bearer " + token(t, testSecret, models.RoleResident, -time.Minute), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusOK {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, "u-1", string(body))
			}
		})
	}
}

func TestAuthMiddleware_JobAuth(t *testing.T) {
	hash, err := utils.HashSecret("job-token")
	require.NoError(t, err)

	m := newTestMiddleware()
	app := fiber.New()
	app.Post("/sweep", m.JobAuth(hash), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{
			name:       "valid job token",
			headers:    map[string]string{JobTokenHeader: "job-token"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong job token",
			headers:    map[string]string{JobTokenHeader: "guess"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "admin bearer token",
			headers:    map[string]string{fiber.HeaderAuthorization: "Bearer " + token(t, testSecret, models.RoleAdmin, time.Hour)},
			wantStatus: http.StatusOK,
		},
		{
			name:       "resident bearer token",
			headers:    map[string]string{fiber.HeaderAuthorization: "Bearer " + token(t, testSecret, models.RoleResident, time.Hour)},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no credentials",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sweep", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name       string
		claims     *models.UserClaims
		wantStatus int
	}{
		{"granted", &models.UserClaims{UserID: "u-1", Permissions: []string{models.PermissionJobsRun}}, http.StatusOK},
		{"admin", &models.UserClaims{UserID: "u-1", Role: models.RoleAdmin}, http.StatusOK},
		{"missing permission", &models.UserClaims{UserID: "u-1", Role: models.RoleResident}, http.StatusForbidden},
		{"no claims", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tt.claims != nil {
					c.Locals("claims", tt.claims)
				}
				return c.Next()
			})
			app.Get("/", HasPermission(models.PermissionJobsRun), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
