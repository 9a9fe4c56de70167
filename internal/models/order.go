package models

import (
	"math"
	"time"
)

// OrderStatus is the lifecycle state of an order. Orders only move
// forward; delivered and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions is the single source of truth for valid status
// changes. Who is allowed to request a given transition is decided by
// the handler layer, not here.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the status machine allows moving from
// s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// Shipping policy: orders at or above the threshold ship free,
// everything below pays the flat fee.
const (
	FreeShippingThreshold = 50.00
	FlatShippingFee       = 5.99
)

// OrderItem is a frozen snapshot of a product at the moment of
// purchase. Name, unit selling price and cost price are copied from the
// catalog inside the order transaction; later catalog edits never touch
// historical orders.
type OrderItem struct {
	ID          uint    `json:"-" gorm:"primaryKey"`
	OrderID     string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID   string  `json:"product_id" gorm:"index;type:varchar(36)"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	CostPrice   float64 `json:"cost_price,omitempty"`
	SupplierID  string  `json:"supplier_id" gorm:"index;type:varchar(36)"`
}

// ShippingAddress is where an order is delivered. All fields are
// required at order creation.
type ShippingAddress struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// Order represents a customer order. Once created, only Status and
// UpdatedAt ever change; orders are never deleted.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user_id" gorm:"index;type:varchar(64)"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status" gorm:"index;type:varchar(20)"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CalculateTotals computes subtotal, shipping and total for a set of
// order items under the shipping policy above.
func CalculateTotals(items []OrderItem) (subtotal, shipping, total float64) {
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	if subtotal < FreeShippingThreshold {
		shipping = FlatShippingFee
	}
	return subtotal, shipping, subtotal + shipping
}

// Pagination is the common paging input for all list queries. Page is
// 1-indexed; Limit is clamped to [1, 100] with a default of 20.
type Pagination struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalized returns a copy of p with page and limit forced into their
// valid ranges.
func (p Pagination) Normalized() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Pagination) Offset() int {
	n := p.Normalized()
	return (n.Page - 1) * n.Limit
}

// TotalPages returns ceil(total/limit) for the normalized limit.
func (p Pagination) TotalPages(total int64) int {
	n := p.Normalized()
	return int(math.Ceil(float64(total) / float64(n.Limit)))
}
