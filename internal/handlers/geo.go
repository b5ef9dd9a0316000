package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qoricharge/storefront/internal/geo"
)

type GeoHandler struct {
	Table *geo.Table
}

func (h *GeoHandler) Departments(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"departments": h.Table.Departments()})
}

func (h *GeoHandler) Provinces(c echo.Context) error {
	dep := c.QueryParam("departamento")
	if dep == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "departamento requerido")
	}
	return c.JSON(http.StatusOK, echo.Map{"provinces": h.Table.Provinces(dep)})
}

func (h *GeoHandler) Districts(c echo.Context) error {
	dep := c.QueryParam("departamento")
	prov := c.QueryParam("provincia")
	if dep == "" || prov == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "departamento y provincia requeridos")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"districts": h.Table.Districts(dep, prov),
		"required":  h.Table.DistrictRequired(dep, prov),
	})
}
