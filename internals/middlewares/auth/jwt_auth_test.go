package auth_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk_backend/internals/constants"
	"librarydesk_backend/internals/middlewares"
	"librarydesk_backend/internals/middlewares/auth"
	helperAuth "librarydesk_backend/internals/helpers/auth"
)

const secret = "test-secret"

func newApp(revoked map[string]bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	api := app.Group("/api/a", auth.AuthJWT(auth.AuthJWTOpts{
		Secret: secret,
		BlacklistChecker: func(raw string) (bool, error) {
			return revoked[raw], nil
		},
		AllowCookieFallback: true,
	}))
	api.Get("/whoami", func(c *fiber.Ctx) error {
		caller, err := helperAuth.GetCaller(c)
		if err != nil {
			return err
		}
		return c.SendString(caller.LibraryID.String() + "|" + caller.Role)
	})
	api.Get("/owner-only", auth.OnlyOwner("handover review"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func token(t *testing.T, role string, libraryID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	tok, _, err := helperAuth.IssueAccessToken(secret, ttl, helperAuth.AccessClaims{
		UserID:    uuid.New(),
		LibraryID: libraryID,
		Role:      role,
		Name:      "Desk",
		Timezone:  "Asia/Kolkata",
	}, time.Now())
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, app *fiber.App, path, bearer string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthJWT_HydratesCaller(t *testing.T) {
	lib := uuid.New()
	app := newApp(nil)

	code, body := do(t, app, "/api/a/whoami", token(t, constants.RoleStaff, lib, time.Hour))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, lib.String()+"|staff", body)
}

func TestAuthJWT_Rejects(t *testing.T) {
	lib := uuid.New()
	expired := token(t, constants.RoleOwner, lib, -time.Minute)
	revoked := token(t, constants.RoleOwner, lib, time.Hour)
	app := newApp(map[string]bool{revoked: true})

	for name, bearer := range map[string]string{
		"missing": "",
		"garbage": "not-a-jwt",
		"expired": expired,
		"revoked": revoked,
	} {
		code, body := do(t, app, "/api/a/whoami", bearer)
		assert.Equal(t, fiber.StatusUnauthorized, code, name)
		assert.Contains(t, body, `"error_code":"UNAUTHORIZED"`, name)
	}
}

func TestAuthJWT_CookieFallback(t *testing.T) {
	lib := uuid.New()
	app := newApp(nil)

	req := httptest.NewRequest(fiber.MethodGet, "/api/a/whoami", nil)
	req.Header.Set("Cookie", "access_token="+token(t, constants.RoleOwner, lib, time.Hour))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOnlyOwner(t *testing.T) {
	lib := uuid.New()
	app := newApp(nil)

	code, _ := do(t, app, "/api/a/owner-only", token(t, constants.RoleOwner, lib, time.Hour))
	assert.Equal(t, fiber.StatusOK, code)

	code, body := do(t, app, "/api/a/owner-only", token(t, constants.RoleStaff, lib, time.Hour))
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Contains(t, body, "only the library owner can access handover review")
}
