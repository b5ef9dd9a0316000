package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qoricharge/storefront/internal/draft"
	"github.com/qoricharge/storefront/internal/logging"
	"github.com/qoricharge/storefront/internal/middleware/metrics"
	"github.com/qoricharge/storefront/internal/notify"
	"github.com/qoricharge/storefront/internal/pricing"
	"github.com/qoricharge/storefront/internal/service/order"
)

const defaultColor = "Silvery"

type CheckoutHandler struct {
	Svc      *order.Service
	Notifier *notify.Notifier
}

type checkoutRequest struct {
	Customer order.CustomerInput `json:"customer"`
	Quantity int                 `json:"quantity"`
	Color    string              `json:"color"`
	Colors   []string            `json:"colors"`
}

type checkoutResponse struct {
	Customer any           `json:"customer"`
	Order    any           `json:"order"`
	Items    any           `json:"items"`
	Pricing  pricing.Quote `json:"pricing"`
}

// Submit runs the whole order placement workflow: price the draft
// server-side, persist customer → order → items, then fire the best-effort
// notifications. Client-supplied prices are ignored.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit")

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		metrics.RecordCheckout(false)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	d, quote := buildDraft(req)

	items := make([]order.ItemInput, 0, d.Quantity())
	for _, it := range d.Items() {
		items = append(items, order.ItemInput{
			Color:          it.Color,
			Cantidad:       it.Quantity,
			PrecioUnitario: it.UnitPrice,
		})
	}

	res, err := h.Svc.Submit(ctx, order.SubmitInput{Customer: req.Customer, Items: items})
	if err != nil {
		metrics.RecordCheckout(false)
		switch {
		case errors.Is(err, order.ErrValidation):
			l.Warn("checkout rejected", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrConflict):
			l.Warn("checkout duplicate", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "ya hay un pedido en curso para este número")
		default:
			l.Error("checkout persistence failed", "status", 502, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "no pudimos procesar tu pedido, inténtalo de nuevo")
		}
	}

	metrics.RecordCheckout(true)
	l.Info("order created", "order_id", res.Order.ID, "total", res.Order.Total, "items", len(res.Items))

	if h.Notifier != nil {
		// The response must not observe notification failures, and a client
		// that disconnects mid-flight must not cancel them.
		h.Notifier.OrderCreated(context.WithoutCancel(ctx), res)
	}

	return c.JSON(http.StatusCreated, checkoutResponse{
		Customer: res.Customer,
		Order:    res.Order,
		Items:    res.Items,
		Pricing:  quote,
	})
}

// Draft echoes a priced cart preview without persisting anything.
func (h *CheckoutHandler) Draft(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	d, quote := buildDraft(req)
	return c.JSON(http.StatusOK, echo.Map{
		"items":   d.Items(),
		"pricing": quote,
	})
}

// Quote returns the live total for a quantity, the number the UI shows next
// to the plus/minus buttons.
func (h *CheckoutHandler) Quote(c echo.Context) error {
	qty, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	return c.JSON(http.StatusOK, pricing.ForQuantity(qty))
}

func buildDraft(req checkoutRequest) (*draft.Draft, pricing.Quote) {
	color := req.Color
	if color == "" {
		color = defaultColor
	}

	d := draft.New(color)
	d.SetQuantity(req.Quantity)
	for i, col := range req.Colors {
		if i >= d.Quantity() {
			break
		}
		// Invalid indexes cannot happen here; colors are validated later.
		_ = d.SetColor(i, col)
	}

	return d, pricing.ForQuantity(d.Quantity())
}
