package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qoricharge/storefront/internal/handlers"
	authmw "github.com/qoricharge/storefront/internal/middleware/auth"
	"github.com/qoricharge/storefront/internal/service/token"
)

type Deps struct {
	CheckoutHandler *handlers.CheckoutHandler
	GeoHandler      *handlers.GeoHandler
	PresenceHandler *handlers.PresenceHandler
	AuthHandler     *handlers.AuthHandler
	AdminHandler    *handlers.AdminHandler
	Tokens          *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	api.GET("/pricing", d.CheckoutHandler.Quote)
	api.POST("/checkout", d.CheckoutHandler.Submit)
	api.POST("/checkout/draft", d.CheckoutHandler.Draft)

	geo := api.Group("/geo")
	geo.GET("/departments", d.GeoHandler.Departments)
	geo.GET("/provinces", d.GeoHandler.Provinces)
	geo.GET("/districts", d.GeoHandler.Districts)

	pres := api.Group("/presence")
	pres.POST("/heartbeat", d.PresenceHandler.Heartbeat)
	pres.DELETE("", d.PresenceHandler.Depart)
	pres.GET("/online", d.PresenceHandler.Online)

	admin := e.Group("/admin")
	admin.POST("/login", d.AuthHandler.Login)

	sec := admin.Group("", authmw.RequireAdmin(d.Tokens))
	sec.POST("/logout", d.AuthHandler.Logout)
	sec.GET("/orders", d.AdminHandler.ListOrders)
	sec.GET("/orders/search", d.AdminHandler.SearchOrders)
	sec.GET("/orders/:id", d.AdminHandler.GetOrder)
	sec.PATCH("/orders/:id/shipping", d.AdminHandler.UpdateShipping)
	sec.PATCH("/orders/:id/payment", d.AdminHandler.UpdatePayment)
	sec.PATCH("/customers/:id", d.AdminHandler.UpdateCustomer)
}
