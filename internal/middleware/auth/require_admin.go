package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/qoricharge/storefront/internal/handlers"
	"github.com/qoricharge/storefront/internal/service/token"
)

// RequireAdmin validates the auth cookies, transparently rotating an
// expired access token, and rejects anyone without the admin role.
func RequireAdmin(t *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			newAccess, newRefresh, role, err := t.CheckCookie(c)
			if err != nil {
				return err
			}

			if role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}

			if newRefresh != "" {
				c.SetCookie(handlers.CreateCookie("accessToken", newAccess, "/", time.Now().Add(token.AccessTTL)))
				c.SetCookie(handlers.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(token.RefreshTTL)))
			}

			parsed, _ := jwt.Parse(newAccess, func(j *jwt.Token) (interface{}, error) { return t.JWTSecret, nil })
			if parsed != nil {
				if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
					if sub, ok := claims["sub"].(float64); ok {
						c.Set("adminID", uint(sub))
					}
					c.Set("role", role)
				}
			}
			return next(c)
		}
	}
}
