package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/qoricharge/storefront/internal/models"
)

func seedOrder(env *testEnv, estadoEnvio string) models.Order {
	customer := models.Customer{
		Nombre: "Ana", Apellido: "Lopez", Numero: "987654321",
		Direccion: "Av. Test 1", Distrito: "Miraflores",
		Provincia: "Lima", Departamento: "Lima", CreatedAt: time.Now().Unix(),
	}
	require.NoError(env.T, env.DB.Create(&customer).Error)

	order := models.Order{
		CustomerID:  customer.ID,
		Total:       299.80,
		EstadoPago:  models.PaymentPending,
		EstadoEnvio: estadoEnvio,
		CreatedAt:   time.Now().Unix(),
	}
	require.NoError(env.T, env.DB.Create(&order).Error)

	for i := 0; i < 2; i++ {
		require.NoError(env.T, env.DB.Create(&models.OrderItem{
			OrderID: order.ID, Color: "Black", Cantidad: 1, PrecioUnitario: 149.90,
		}).Error)
	}
	return order
}

func TestListOrdersIncludesCustomerAndItems(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(env, models.ShippingPending)

	rec, c := env.doJSONRequest(http.MethodGet, "/admin/orders", nil)
	require.NoError(t, env.Admin.ListOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total  int64          `json:"total"`
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Orders, 1)
	require.NotNil(t, resp.Orders[0].Customer)
	require.Equal(t, "Ana", resp.Orders[0].Customer.Nombre)
	require.Len(t, resp.Orders[0].Items, 2)
}

func TestGetOrderDrillDown(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(env, models.ShippingPending)

	rec, c := env.doJSONRequest(http.MethodGet, "/admin/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Admin.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, order.ID, got.ID)
	require.NotNil(t, got.Customer)
	require.Len(t, got.Items, 2)
}

func TestUpdateShippingStatus(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(env, models.ShippingPending)

	body := map[string]string{"estado_envio": models.ShippingEnRoute}
	rec, c := env.doJSONRequest(http.MethodPatch, "/admin/orders/1/shipping", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Admin.UpdateShipping(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	require.NoError(t, env.DB.First(&updated, order.ID).Error)
	require.Equal(t, models.ShippingEnRoute, updated.EstadoEnvio)
}

func TestUpdateShippingRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(env, models.ShippingPending)

	body := map[string]string{"estado_envio": "teleported"}
	_, c := env.doJSONRequest(http.MethodPatch, "/admin/orders/1/shipping", body)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := env.Admin.UpdateShipping(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestUpdateShippingUnknownOrderIs404(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"estado_envio": models.ShippingPrepared}
	_, c := env.doJSONRequest(http.MethodPatch, "/admin/orders/99/shipping", body)
	c.SetParamNames("id")
	c.SetParamValues("99")

	err := env.Admin.UpdateShipping(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdatePaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	order := seedOrder(env, models.ShippingPending)

	body := map[string]string{"estado_pago": models.PaymentPaid}
	rec, c := env.doJSONRequest(http.MethodPatch, "/admin/orders/1/payment", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Admin.UpdatePayment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Order
	require.NoError(t, env.DB.First(&updated, order.ID).Error)
	require.Equal(t, models.PaymentPaid, updated.EstadoPago)
}

func TestUpdateCustomerFields(t *testing.T) {
	env := newTestEnv(t)
	seedOrder(env, models.ShippingPending)

	body := map[string]string{"direccion": "Calle Nueva 123", "referencia": "porton azul"}
	rec, c := env.doJSONRequest(http.MethodPatch, "/admin/customers/1", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Admin.UpdateCustomer(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var customer models.Customer
	require.NoError(t, env.DB.First(&customer, 1).Error)
	require.Equal(t, "Calle Nueva 123", customer.Direccion)
	require.Equal(t, "porton azul", customer.Referencia)
	require.Equal(t, "Ana", customer.Nombre, "untouched fields keep their value")
}

func TestSearchOrdersWithoutESIsUnavailable(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodGet, "/admin/orders/search?q=ana", nil)
	err := env.Admin.SearchOrders(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusServiceUnavailable, he.Code)
}
