package models

import "time"

// ProductStatus is the lifecycle state of a catalog product.
// Only active products can be purchased.
type ProductStatus string

const (
	ProductStatusActive        ProductStatus = "active"
	ProductStatusDraft         ProductStatus = "draft"
	ProductStatusArchived      ProductStatus = "archived"
	ProductStatusPendingReview ProductStatus = "pending_review"
	ProductStatusRejected      ProductStatus = "rejected"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDraft, ProductStatusArchived,
		ProductStatusPendingReview, ProductStatusRejected:
		return true
	}
	return false
}

// Product represents a supplier's product in the marketplace catalog.
// StockOnHand is the only field the order transaction mutates; it must
// never go negative, which the repositories enforce with a conditional
// decrement rather than a blind update.
type Product struct {
	ID           string        `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SupplierID   string        `json:"supplier_id" gorm:"index;type:varchar(36)" validate:"required"`
	Name         string        `json:"name" validate:"required,min=3,max=100"`
	Description  string        `json:"description" validate:"omitempty,max=500"`
	CostPrice    float64       `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	SellingPrice float64       `json:"selling_price" validate:"required,gt=0"`
	StockOnHand  int           `json:"stock_on_hand" validate:"gte=0"`
	Status       ProductStatus `json:"status" gorm:"index;type:varchar(20)"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	SupplierID string
	Search     string // matched against the product name
}
