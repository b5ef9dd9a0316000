package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/qoricharge/storefront/internal/logging"
	"github.com/qoricharge/storefront/internal/models"
	"github.com/qoricharge/storefront/internal/service/search"
	"github.com/qoricharge/storefront/internal/util"
)

// AdminHandler serves the back-office order table, drill-downs and inline
// status edits.
type AdminHandler struct {
	DB      *gorm.DB
	ES      *elasticsearch.Client
	ESIndex string
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Paginate(page, size)

	var total int64
	if err := h.DB.Model(&models.Order{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list orders")
	}

	var orders []models.Order
	err := h.DB.
		Preload("Customer").
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list orders")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "orders": orders})
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order models.Order
	err = h.DB.Preload("Customer").Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) UpdateShipping(c echo.Context) error {
	return h.updateStatus(c, "estado_envio")
}

func (h *AdminHandler) UpdatePayment(c echo.Context) error {
	return h.updateStatus(c, "estado_pago")
}

func (h *AdminHandler) updateStatus(c echo.Context, column string) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.update_status", "column", column)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		EstadoEnvio string `json:"estado_envio"`
		EstadoPago  string `json:"estado_pago"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var value string
	switch column {
	case "estado_envio":
		value = req.EstadoEnvio
		if !models.ValidShippingStatus(value) {
			return echo.NewHTTPError(http.StatusBadRequest, "estado de envío inválido")
		}
	case "estado_pago":
		value = req.EstadoPago
		if !models.ValidPaymentStatus(value) {
			return echo.NewHTTPError(http.StatusBadRequest, "estado de pago inválido")
		}
	}

	res := h.DB.Model(&models.Order{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	l.Info("order status updated", "order_id", id, "value", value)
	return c.JSON(http.StatusOK, echo.Map{"id": id, column: value})
}

// UpdateCustomer edits the contact/address fields an operator can fix up
// after a phone call. Empty fields are left untouched.
func (h *AdminHandler) UpdateCustomer(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Nombre       string `json:"nombre"`
		Apellido     string `json:"apellido"`
		Numero       string `json:"numero"`
		Direccion    string `json:"direccion"`
		Referencia   string `json:"referencia"`
		Distrito     string `json:"distrito"`
		Provincia    string `json:"provincia"`
		Departamento string `json:"departamento"`
		Dni          string `json:"dni"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updates := map[string]any{}
	for col, v := range map[string]string{
		"nombre":       req.Nombre,
		"apellido":     req.Apellido,
		"numero":       req.Numero,
		"direccion":    req.Direccion,
		"referencia":   req.Referencia,
		"distrito":     req.Distrito,
		"provincia":    req.Provincia,
		"departamento": req.Departamento,
		"dni":          req.Dni,
	} {
		if v != "" {
			updates[col] = v
		}
	}
	if len(updates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	res := h.DB.Model(&models.Customer{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "customer not found")
	}

	var customer models.Customer
	if err := h.DB.First(&customer, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *AdminHandler) SearchOrders(c echo.Context) error {
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Paginate(page, size)

	total, docs, err := search.Orders(c.Request().Context(), h.ES, h.ESIndex, q, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "orders": docs})
}
