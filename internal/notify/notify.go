// Package notify fires the side effects that follow a committed order:
// the operator webhook, the analytics purchase event and the back-office
// search index. All of them are best-effort. A failure here is logged and
// swallowed; it never blocks or reverses the order.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/qoricharge/storefront/internal/events"
	"github.com/qoricharge/storefront/internal/service/order"
)

type Notifier struct {
	Log        *slog.Logger
	WebhookURL string
	HTTP       *http.Client
	Producer   events.Publisher
	ES         *elasticsearch.Client
	ESIndex    string
}

// OrderCreated dispatches every side effect concurrently and waits for them.
// The returned error is only for the caller's log line; the order is already
// committed and stays committed.
func (n *Notifier) OrderCreated(ctx context.Context, res *order.Result) {
	// Plain group on purpose: one failing side effect must not cancel the
	// others.
	var g errgroup.Group

	g.Go(func() error { return n.sendWebhook(ctx, res) })
	g.Go(func() error { return n.publishPurchase(ctx, res) })
	g.Go(func() error { return n.indexOrder(ctx, res) })

	if err := g.Wait(); err != nil {
		n.log().Warn("post-submit notification failed", "order_id", res.Order.ID, "error", err)
	}
}

func (n *Notifier) sendWebhook(ctx context.Context, res *order.Result) error {
	if n.WebhookURL == "" {
		n.log().Warn("webhook url not configured, skipping order.created webhook", "order_id", res.Order.ID)
		return nil
	}

	payload := map[string]any{
		"event":       "order.created",
		"delivery_id": uuid.NewString(),
		"order":       res.Order,
		"customer":    res.Customer,
		"items":       res.Items,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}

// publishPurchase emits the analytics purchase event. The message key is
// derived from the order id, so a replayed event is detectable downstream.
func (n *Notifier) publishPurchase(ctx context.Context, res *order.Result) error {
	if n.Producer == nil {
		return nil
	}

	eventID := fmt.Sprintf("sale_%d", res.Order.ID)
	event := map[string]any{
		"type":     "purchase",
		"event_id": eventID,
		"order_id": res.Order.ID,
		"value":    res.Order.Total,
		"currency": "PEN",
		"quantity": len(res.Items),
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.Producer.PublishEvent(pubCtx, eventID, event); err != nil {
		return fmt.Errorf("analytics: %w", err)
	}
	return nil
}

func (n *Notifier) indexOrder(ctx context.Context, res *order.Result) error {
	if n.ES == nil {
		return nil
	}

	doc := map[string]any{
		"order_id":     res.Order.ID,
		"total":        res.Order.Total,
		"estado_pago":  res.Order.EstadoPago,
		"estado_envio": res.Order.EstadoEnvio,
		"created_at":   res.Order.CreatedAt,
		"nombre":       res.Customer.Nombre,
		"apellido":     res.Customer.Apellido,
		"numero":       res.Customer.Numero,
		"distrito":     res.Customer.Distrito,
		"provincia":    res.Customer.Provincia,
		"departamento": res.Customer.Departamento,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index: encode: %w", err)
	}

	resp, err := n.ES.Index(
		n.ESIndex,
		&buf,
		n.ES.Index.WithContext(ctx),
		n.ES.Index.WithDocumentID(fmt.Sprint(res.Order.ID)),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index: %s", resp.Status())
	}
	return nil
}

func (n *Notifier) httpClient() *http.Client {
	if n.HTTP != nil {
		return n.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (n *Notifier) log() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}
