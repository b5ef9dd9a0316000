package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qoricharge/storefront/internal/service/presence"
)

type PresenceHandler struct {
	Svc *presence.Service
}

type heartbeatRequest struct {
	PagePath  string `json:"page_path"`
	UserAgent string `json:"user_agent"`
}

func (h *PresenceHandler) Heartbeat(c echo.Context) error {
	var req heartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PagePath == "" {
		req.PagePath = "/"
	}
	ua := req.UserAgent
	if ua == "" {
		ua = c.Request().UserAgent()
	}

	if err := h.Svc.Heartbeat(c.Request().Context(), c.RealIP(), req.PagePath, ua); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "presence update failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PresenceHandler) Depart(c echo.Context) error {
	h.Svc.Depart(c.Request().Context(), c.RealIP())
	return c.NoContent(http.StatusNoContent)
}

func (h *PresenceHandler) Online(c echo.Context) error {
	rows, err := h.Svc.Online(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list online users")
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "users": rows})
}
