// internal/models/order.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	OrderNumber string      `json:"order_number" gorm:"uniqueIndex;size:30;not null"`
	UserID      uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	Subtotal float64 `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Shipping float64 `json:"shipping" gorm:"type:decimal(10,2);default:0"`
	Discount float64 `json:"discount" gorm:"type:decimal(10,2);default:0"`
	Total    float64 `json:"total" gorm:"type:decimal(10,2);not null"`

	Status OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	PaymentMethod   string         `json:"payment_method" gorm:"size:30;default:'pending'"`
	ShippingMethod  ShippingMethod `json:"shipping_method" gorm:"type:varchar(20);default:'pickup'"`
	ShippingCost    float64        `json:"shipping_cost" gorm:"type:decimal(10,2);default:0"`
	ShippingAddress string         `json:"shipping_address" gorm:"size:255"`

	// Contact snapshot taken from the user profile at checkout time.
	Contact JSONB  `json:"contact" gorm:"type:jsonb"`
	Notes   string `json:"notes" gorm:"type:text"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// OrderItem is an immutable snapshot of a purchased line: what the buyer saw,
// at the price they saw it, including the selected variant if any.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	ProductID string    `json:"product_id" gorm:"size:100;not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	UnitPrice float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Subtotal  float64   `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Color     string    `json:"color,omitempty" gorm:"size:50"`
	Memory    string    `json:"memory,omitempty" gorm:"size:50"`
}

// OrderSequence is the single-row counter behind order numbers. Incrementing
// it with an UPDATE inside the order transaction serializes concurrent
// checkouts, so two orders can never share a number.
type OrderSequence struct {
	ID    int   `gorm:"primaryKey"`
	Value int64 `gorm:"not null"`
}

// FormatOrderNumber renders the human-readable, date-prefixed order number.
func FormatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%05d", t.Format("20060102"), seq)
}
