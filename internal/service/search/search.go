package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
)

// OrderDoc is the denormalized order document kept in the back-office
// search index.
type OrderDoc struct {
	OrderID      uint    `json:"order_id"`
	Total        float64 `json:"total"`
	EstadoPago   string  `json:"estado_pago"`
	EstadoEnvio  string  `json:"estado_envio"`
	CreatedAt    int64   `json:"created_at"`
	Nombre       string  `json:"nombre"`
	Apellido     string  `json:"apellido"`
	Numero       string  `json:"numero"`
	Distrito     string  `json:"distrito"`
	Provincia    string  `json:"provincia"`
	Departamento string  `json:"departamento"`
}

// Orders runs a fuzzy multi-field query over the orders index.
func Orders(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []OrderDoc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"nombre^2", "apellido^2", "numero", "distrito", "provincia", "departamento"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OrderDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]OrderDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
