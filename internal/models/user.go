package models

import "gorm.io/gorm"

// Role determines what a user may see and do. Admins manage the whole
// marketplace, suppliers manage their own products and the orders that
// contain them, customers shop.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role       Role   `json:"role" gorm:"type:varchar(20)" validate:"omitempty,oneof=customer supplier"`
	gorm.Model `json:"-"` // CreatedAt, UpdatedAt, DeletedAt
}
