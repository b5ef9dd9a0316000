package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/qoricharge/storefront/internal/hash"
	"github.com/qoricharge/storefront/internal/logging"
	"github.com/qoricharge/storefront/internal/models"
	"github.com/qoricharge/storefront/internal/service/token"
)

type AuthHandler struct {
	DB     *gorm.DB
	Tokens *token.Service
}

func (h *AuthHandler) Login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var admin models.AdminUser
	if err := h.DB.Where("username = ?", req.Username).First(&admin).Error; err != nil {
		l.Warn("login failed", "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(admin.PasswordHash, req.Password) {
		l.Warn("login failed", "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	access, refresh, err := h.Tokens.IssuePair(admin.ID, admin.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}

	c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(token.RefreshTTL)))

	l.Info("admin logged in", "admin_id", admin.ID)
	return c.JSON(http.StatusOK, admin)
}

// Logout revokes the stored refresh token and expires both cookies, sending
// the operator back to the login route.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Tokens.Revoke(c); err != nil {
		logging.FromContext(c.Request().Context()).Warn("refresh token revoke failed", "error", err)
	}

	expired := time.Unix(0, 0)
	c.SetCookie(CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"redirect": "/admin/login"})
}
