package models

import "time"

// CartItem is a pending purchase inside a cart. A product appears at
// most once per cart; adding it again increments the quantity.
type CartItem struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	CartOwnerID string    `json:"-" gorm:"index;type:varchar(64)"`
	ProductID   string    `json:"product_id" gorm:"type:varchar(36)"`
	Quantity    int       `json:"quantity" validate:"gte=1"`
	AddedAt     time.Time `json:"added_at"`
}

// Cart holds the items an identity intends to buy. The owner may be a
// registered user or a guest; guest carts are merged into the
// registered cart at login. Clearing a cart empties its items but keeps
// the record.
type Cart struct {
	OwnerID   string     `json:"owner_id" gorm:"primaryKey;type:varchar(64)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartOwnerID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
