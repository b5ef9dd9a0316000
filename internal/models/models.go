package models

// Statuses an order moves through. estado_pago and estado_envio are
// independent of each other.
const (
	PaymentPending   = "pendiente"
	PaymentAdvance   = "adelantado"
	PaymentRemaining = "pago_restante"
	PaymentPaid      = "pagado"

	ShippingPending   = "pendiente"
	ShippingPrepared  = "preparado"
	ShippingEnRoute   = "en_ruta"
	ShippingAtAgency  = "en_agencia"
	ShippingDelivered = "entregado"
)

var paymentStatuses = map[string]bool{
	PaymentPending:   true,
	PaymentAdvance:   true,
	PaymentRemaining: true,
	PaymentPaid:      true,
}

var shippingStatuses = map[string]bool{
	ShippingPending:   true,
	ShippingPrepared:  true,
	ShippingEnRoute:   true,
	ShippingAtAgency:  true,
	ShippingDelivered: true,
}

func ValidPaymentStatus(s string) bool  { return paymentStatuses[s] }
func ValidShippingStatus(s string) bool { return shippingStatuses[s] }

// Colors the charger ships in.
var ProductColors = map[string]bool{
	"White":   true,
	"Gray":    true,
	"Black":   true,
	"Silvery": true,
}

// Customer is created once per order; repeat buyers get a new row
// (no uniqueness on numero).
type Customer struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Nombre       string `gorm:"not null"                 json:"nombre"`
	Apellido     string `gorm:"not null"                 json:"apellido"`
	Numero       string `gorm:"not null"                 json:"numero"`
	Direccion    string `gorm:"not null"                 json:"direccion"`
	Referencia   string `json:"referencia,omitempty"`
	Distrito     string `json:"distrito"`
	Provincia    string `gorm:"not null"                 json:"provincia"`
	Departamento string `gorm:"not null"                 json:"departamento"`
	Dni          string `json:"dni,omitempty"`
	CreatedAt    int64  `gorm:"not null"                 json:"created_at"`
}

type Order struct {
	ID          uint        `gorm:"primaryKey"     json:"id"`
	CustomerID  uint        `gorm:"index;not null" json:"customer_id"`
	Total       float64     `gorm:"not null"       json:"total"`
	EstadoPago  string      `gorm:"not null"       json:"estado_pago"`
	EstadoEnvio string      `gorm:"not null"       json:"estado_envio"`
	CreatedAt   int64       `gorm:"not null"       json:"created_at"`
	Customer    *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items       []OrderItem `gorm:"foreignKey:OrderID"    json:"items,omitempty"`
}

// OrderItem is one physical unit: cantidad is always 1, each unit carries
// its own color.
type OrderItem struct {
	ID             uint    `gorm:"primaryKey"                  json:"id"`
	OrderID        uint    `gorm:"index;not null"              json:"order_id"`
	Color          string  `gorm:"not null"                    json:"color"`
	Cantidad       uint    `gorm:"default:1;check:cantidad>0"  json:"cantidad"`
	PrecioUnitario float64 `gorm:"not null"                    json:"precio_unitario"`
}

// UserPresence is one viewer on a public page, keyed by IP and refreshed
// by heartbeats. Rows are deleted best-effort on departure, so readers
// filter on LastSeen instead of trusting deletion.
type UserPresence struct {
	IPAddress string `gorm:"primaryKey"  json:"ip_address"`
	PagePath  string `gorm:"not null"    json:"page_path"`
	LastSeen  int64  `gorm:"index;not null" json:"last_seen"`
	UserAgent string `json:"user_agent"`
	City      string `json:"city,omitempty"`
	Region    string `json:"region,omitempty"`
	Country   string `json:"country,omitempty"`
}

type AdminUser struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	AdminID   uint   `gorm:"index;not null"  json:"admin_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
