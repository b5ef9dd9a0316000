// Package order persists a validated checkout as one customer, one order
// and its order items. The three inserts are strictly ordered (each step
// needs the id returned by the previous one) and run inside a single
// transaction, so a failure at any step leaves no earlier rows behind.
package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/qoricharge/storefront/internal/geo"
	"github.com/qoricharge/storefront/internal/lock"
	"github.com/qoricharge/storefront/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrConflict   = errors.New("conflict")   // 409
)

// submitLockTTL bounds how long a phone number stays locked if a submission
// dies without releasing.
const submitLockTTL = 30 * time.Second

var phoneRe = regexp.MustCompile(`^[0-9]+$`)

type CustomerInput struct {
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

type ItemInput struct {
	Color          string  `json:"color"`
	Cantidad       uint    `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
}

type SubmitInput struct {
	Customer CustomerInput
	Items    []ItemInput
}

type Result struct {
	Customer models.Customer    `json:"customer"`
	Order    models.Order       `json:"order"`
	Items    []models.OrderItem `json:"items"`
}

type Service struct {
	DB     *gorm.DB
	Geo    *geo.Table
	Locker lock.Locker
}

// Submit validates the payload and runs the persistence sequence:
// customer → order → order items. The same phone number cannot submit
// twice concurrently; the duplicate gets ErrConflict.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Result, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	lockKey := "submit:" + in.Customer.Numero
	if s.Locker != nil {
		ok, err := s.Locker.Acquire(ctx, lockKey, submitLockTTL)
		if err == nil && !ok {
			return nil, fmt.Errorf("%w: submission already in flight for %s", ErrConflict, in.Customer.Numero)
		}
		if err == nil {
			defer s.Locker.Release(context.WithoutCancel(ctx), lockKey)
		}
		// A broken locker must not block sales; proceed unlocked.
	}

	now := time.Now().Unix()

	var total float64
	for _, it := range in.Items {
		total += float64(it.Cantidad) * it.PrecioUnitario
	}

	var res Result
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer := models.Customer{
			Nombre:       in.Customer.Nombre,
			Apellido:     in.Customer.Apellido,
			Numero:       in.Customer.Numero,
			Direccion:    in.Customer.Direccion,
			Referencia:   in.Customer.Referencia,
			Distrito:     in.Customer.Distrito,
			Provincia:    in.Customer.Provincia,
			Departamento: in.Customer.Departamento,
			Dni:          in.Customer.Dni,
			CreatedAt:    now,
		}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}

		order := models.Order{
			CustomerID:  customer.ID,
			Total:       total,
			EstadoPago:  models.PaymentPending,
			EstadoEnvio: models.ShippingPending,
			CreatedAt:   now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			oi := models.OrderItem{
				OrderID:        order.ID,
				Color:          it.Color,
				Cantidad:       it.Cantidad,
				PrecioUnitario: it.PrecioUnitario,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			items = append(items, oi)
		}

		order.Items = nil
		res = Result{Customer: customer, Order: order, Items: items}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &res, nil
}

func (s *Service) validate(in SubmitInput) error {
	c := in.Customer
	switch {
	case len(c.Nombre) < 2:
		return fmt.Errorf("%w: nombre debe tener al menos 2 caracteres", ErrValidation)
	case len(c.Apellido) < 2:
		return fmt.Errorf("%w: apellido debe tener al menos 2 caracteres", ErrValidation)
	case len(c.Numero) < 9 || !phoneRe.MatchString(c.Numero):
		return fmt.Errorf("%w: numero debe tener al menos 9 dígitos", ErrValidation)
	case len(c.Direccion) < 5:
		return fmt.Errorf("%w: direccion incompleta", ErrValidation)
	}

	if s.Geo != nil {
		if !s.Geo.HasDepartment(c.Departamento) {
			return fmt.Errorf("%w: departamento desconocido %q", ErrValidation, c.Departamento)
		}
		if !s.Geo.HasProvince(c.Departamento, c.Provincia) {
			return fmt.Errorf("%w: provincia desconocida %q", ErrValidation, c.Provincia)
		}
		if s.Geo.DistrictRequired(c.Departamento, c.Provincia) {
			if _, ok := s.Geo.District(c.Departamento, c.Provincia, c.Distrito); !ok {
				return fmt.Errorf("%w: selecciona un distrito", ErrValidation)
			}
		}
	} else if c.Departamento == "" || c.Provincia == "" {
		return fmt.Errorf("%w: departamento y provincia requeridos", ErrValidation)
	}

	if len(in.Items) < 1 || len(in.Items) > 5 {
		return fmt.Errorf("%w: el pedido debe tener entre 1 y 5 unidades", ErrValidation)
	}
	for _, it := range in.Items {
		if !models.ProductColors[it.Color] {
			return fmt.Errorf("%w: color inválido %q", ErrValidation, it.Color)
		}
		if it.Cantidad != 1 {
			return fmt.Errorf("%w: cantidad por unidad debe ser 1", ErrValidation)
		}
		if it.PrecioUnitario <= 0 {
			return fmt.Errorf("%w: precio unitario inválido", ErrValidation)
		}
	}

	return nil
}
