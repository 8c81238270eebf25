package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	LocClaims = "jwt_claims"
	LocRole   = "role"
	LocEmail  = "admin_email"

	RoleAdmin = "admin"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(rawToken string) (bool, error) // true when revoked
	AllowCookieFallback bool                                // read cookie access_token when no Bearer header
}

// AuthJWT verifies an HS256 token and stores its claims in locals.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: secret is required")
	}

	return func(c *fiber.Ctx) error {
		raw := ExtractToken(c, o.AllowCookieFallback)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		if o.BlacklistChecker != nil {
			if black, err := o.BlacklistChecker(raw); err == nil && black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals(LocClaims, claims)
		c.Locals(LocRole, strings.ToLower(strings.TrimSpace(claims.Role)))
		c.Locals(LocEmail, claims.Subject)
		return c.Next()
	}
}

// ExtractToken reads "Authorization: Bearer x", tolerating extra spaces and quotes.
func ExtractToken(c *fiber.Ctx, cookieFallback bool) string {
	fields := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(fields) >= 2 && strings.EqualFold(fields[0], "bearer") {
		return strings.Trim(fields[1], "\"'")
	}
	if cookieFallback {
		return strings.TrimSpace(c.Cookies("access_token"))
	}
	return ""
}

// OnlyRoles must run after AuthJWT.
func OnlyRoles(message string, allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocRole).(string)
		if role == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Role not found")
		}
		for _, a := range allowed {
			if role == a {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, message)
	}
}

// AdminOnly is AuthJWT followed by the admin role check.
func AdminOnly(o AuthJWTOpts) []fiber.Handler {
	return []fiber.Handler{AuthJWT(o), OnlyRoles("Admin access required", RoleAdmin)}
}
