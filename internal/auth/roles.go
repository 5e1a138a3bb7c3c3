package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequirePrincipal ensures a tenant-bound user is authenticated.
func RequirePrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.UserID == "" || principal.CompanyID == "" {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
