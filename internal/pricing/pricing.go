// Package pricing computes the tiered price for the charger. There is a
// single break point: two or more units drop the unit price.
package pricing

import "math"

const (
	BasePrice     = 159.90
	TierPrice2Pls = 149.90

	MinQuantity = 1
	MaxQuantity = 5
)

type Quote struct {
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	Subtotal       float64 `json:"subtotal"`
	Total          float64 `json:"total"`
	SavingsPerUnit float64 `json:"savings_per_unit"`
	TotalSavings   float64 `json:"total_savings"`
}

// ClampQuantity keeps a requested quantity inside the storefront policy.
// Non-positive values fail closed to 1.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func UnitPrice(quantity int) float64 {
	if quantity >= 2 {
		return TierPrice2Pls
	}
	return BasePrice
}

func ForQuantity(quantity int) Quote {
	q := ClampQuantity(quantity)
	unit := UnitPrice(q)
	perUnitSaving := math.Max(0, BasePrice-unit)
	return Quote{
		Quantity:       q,
		UnitPrice:      round2(unit),
		Subtotal:       round2(BasePrice * float64(q)),
		Total:          round2(unit * float64(q)),
		SavingsPerUnit: round2(perUnitSaving),
		TotalSavings:   round2(perUnitSaving * float64(q)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
