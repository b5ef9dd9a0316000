// Package draft models the pre-persistence cart: a line-item sequence whose
// length always tracks the requested quantity. One line item is one physical
// unit with its own color.
package draft

import (
	"fmt"

	"github.com/qoricharge/storefront/internal/pricing"
)

type Item struct {
	ID        int     `json:"id"`
	Color     string  `json:"color"`
	Quantity  uint    `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type Draft struct {
	activeColor string
	items       []Item
}

// New creates a one-item draft in the given color.
func New(color string) *Draft {
	d := &Draft{activeColor: color}
	d.SetQuantity(1)
	return d
}

// SetQuantity grows or shrinks the item sequence so that
// len(items) == quantity. New items default to the active color; shrinking
// truncates from the end. Item ids are re-numbered from 1 either way.
func (d *Draft) SetQuantity(quantity int) {
	q := pricing.ClampQuantity(quantity)

	for len(d.items) < q {
		d.items = append(d.items, Item{Color: d.activeColor, Quantity: 1})
	}
	d.items = d.items[:q]

	unit := pricing.UnitPrice(q)
	for i := range d.items {
		d.items[i].ID = i + 1
		d.items[i].UnitPrice = unit
		d.items[i].Subtotal = unit * float64(d.items[i].Quantity)
	}
}

// SetColor changes one line item's color. Changing the first item also
// updates the active color used as the default for future growth.
func (d *Draft) SetColor(index int, color string) error {
	if index < 0 || index >= len(d.items) {
		return fmt.Errorf("draft: item index %d out of range", index)
	}
	d.items[index].Color = color
	if index == 0 {
		d.activeColor = color
	}
	return nil
}

func (d *Draft) Quantity() int { return len(d.items) }

func (d *Draft) ActiveColor() string { return d.activeColor }

func (d *Draft) Items() []Item {
	out := make([]Item, len(d.items))
	copy(out, d.items)
	return out
}

func (d *Draft) Total() float64 {
	var total float64
	for _, it := range d.items {
		total += it.Subtotal
	}
	return total
}
