package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qoricharge/storefront/internal/models"
	"github.com/qoricharge/storefront/internal/service/order"
)

type spyPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []map[string]any
	err    error
}

func (s *spyPublisher) PublishEvent(_ context.Context, key string, event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	raw, _ := json.Marshal(event)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	s.events = append(s.events, m)
	return nil
}

func sampleResult() *order.Result {
	return &order.Result{
		Customer: models.Customer{ID: 7, Nombre: "Ana", Apellido: "Lopez", Numero: "987654321"},
		Order:    models.Order{ID: 42, CustomerID: 7, Total: 299.80, EstadoPago: "pendiente", EstadoEnvio: "pendiente"},
		Items: []models.OrderItem{
			{ID: 1, OrderID: 42, Color: "Black", Cantidad: 1, PrecioUnitario: 149.90},
			{ID: 2, OrderID: 42, Color: "Black", Cantidad: 1, PrecioUnitario: 149.90},
		},
	}
}

func TestWebhookPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	n := &Notifier{WebhookURL: srv.URL}
	n.OrderCreated(context.Background(), sampleResult())

	require.Equal(t, "order.created", got["event"])
	require.NotEmpty(t, got["delivery_id"])

	orderPart := got["order"].(map[string]any)
	require.InDelta(t, 299.80, orderPart["total"].(float64), 0.001)
	customerPart := got["customer"].(map[string]any)
	require.Equal(t, "Ana", customerPart["nombre"])
}

func TestMissingWebhookURLIsNotAnError(t *testing.T) {
	pub := &spyPublisher{}
	n := &Notifier{Producer: pub}

	// Must not panic, error out or skip the analytics event.
	n.OrderCreated(context.Background(), sampleResult())
	require.Len(t, pub.keys, 1)
}

func TestPurchaseEventCarriesIdempotencyKey(t *testing.T) {
	pub := &spyPublisher{}
	n := &Notifier{Producer: pub}

	n.OrderCreated(context.Background(), sampleResult())

	require.Equal(t, []string{"sale_42"}, pub.keys)
	ev := pub.events[0]
	require.Equal(t, "purchase", ev["type"])
	require.Equal(t, "sale_42", ev["event_id"])
	require.InDelta(t, 299.80, ev["value"].(float64), 0.001)
	require.Equal(t, float64(2), ev["quantity"])
}

func TestWebhookFailureDoesNotBlockAnalytics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	pub := &spyPublisher{}
	n := &Notifier{WebhookURL: srv.URL, Producer: pub}

	n.OrderCreated(context.Background(), sampleResult())
	require.Len(t, pub.keys, 1, "analytics must fire independently of the webhook")
}
