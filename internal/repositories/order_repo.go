package repositories

import (
	"pasar/internal/models"
)

// OrderRepository defines the interface for order data access. Orders
// are insert-only apart from their status; there is no delete.
//
// Every list method takes an optional status filter (the zero value
// means "any status") and returns the page plus the total match count.
type OrderRepository interface {
	Insert(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	ListByOwner(ownerID string, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error)
	// ListBySupplier matches orders containing at least one item from
	// the supplier and returns whole orders; trimming to the supplier's
	// items is a presentation concern.
	ListBySupplier(supplierID string, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error)
	ListAll(page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error)
	UpdateStatus(id string, status models.OrderStatus) error
}
