package auth

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/calendar-feeds/pkg/util/errorutil"
)

const (
	testUserID    = "6f1c2a8e-3b7d-4c1e-9a52-0d4e8f7b2c11"
	testCompanyID = "b3e5d7c9-1a2b-4c3d-8e4f-5a6b7c8d9e0f"
)

func newAuthTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/me", mw.Handle, RequirePrincipal(), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errors.New("principal missing")
		}
		return c.SendString(principal.CompanyID + "/" + principal.UserID)
	})
	return app
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(testUserID, testCompanyID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newAuthTestApp(tm).Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testCompanyID+"/"+testUserID, string(body))
}

func TestAuthMiddlewareRejects(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	foreign, _, err := NewTokenManager("other", 5).GenerateToken(testUserID, testCompanyID)
	require.NoError(t, err)

	nonUUIDUser, _, err := tm.GenerateToken("user-1", testCompanyID)
	require.NoError(t, err)
	nonUUIDCompany, _, err := tm.GenerateToken(testUserID, "company-1")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":   "",
		"wrong scheme":     "Basic abc",
		"bad signature":    "Bearer " + foreign,
		"non-uuid subject": "Bearer " + nonUUIDUser,
		"non-uuid company": "Bearer " + nonUUIDCompany,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := newAuthTestApp(tm).Test(req)
			require.NoError(t, err)
			assert.Equal(t, 401, resp.StatusCode)
		})
	}
}

func TestParseTokenRequiresCompany(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(testUserID, "")
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRequiresUUIDClaims(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	valid, _, err := tm.GenerateToken(testUserID, testCompanyID)
	require.NoError(t, err)
	claims, err := tm.ParseToken(valid)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, testCompanyID, claims.CompanyID)

	invalid, _, err := tm.GenerateToken("alice", testCompanyID)
	require.NoError(t, err)
	_, err = tm.ParseToken(invalid)
	assert.Error(t, err)
}
