// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns IDs client-side so the models also work on engines
// without gen_random_uuid() (the test database runs on sqlite).
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL (stored as TEXT on sqlite)
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "administrator"
)

type ProductCategory string

const (
	CategoryPhones      ProductCategory = "Phones"
	CategoryTablets     ProductCategory = "Tablets"
	CategoryLaptops     ProductCategory = "Laptops"
	CategoryAccessories ProductCategory = "Accessories"
)

func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryPhones, CategoryTablets, CategoryLaptops, CategoryAccessories:
		return true
	}
	return false
}

type ProductCondition string

const (
	ConditionNew         ProductCondition = "new"
	ConditionRefurbished ProductCondition = "refurbished"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo encodes the order state machine: the linear happy path
// pending -> processing -> shipped -> delivered, with cancellation allowed
// only while the order has not shipped.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

type ShippingMethod string

const (
	ShippingPickup     ShippingMethod = "pickup"
	ShippingDelivery   ShippingMethod = "delivery"
	ShippingDelivery10 ShippingMethod = "delivery-10km"
	ShippingDelivery40 ShippingMethod = "delivery-40km"
)
