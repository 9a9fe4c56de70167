package repositories

import (
	"pasar/internal/models"
)

// ProductRepository defines the interface for catalog data access.
//
// ConditionalDecrement is the only write path the order transaction
// uses for stock: it succeeds only if the product still has at least
// the requested quantity on hand at write time, which is what keeps
// concurrent purchases from overselling. SetStock is the separate
// supplier/admin edit path; it never goes through the order engine.
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id string) (*models.Product, error)
	// GetActiveByIDs loads all active products among ids in one query.
	// A missing or non-active product is simply absent from the result.
	GetActiveByIDs(ids []string) ([]models.Product, error)
	ListActive(filter models.ProductFilter, page models.Pagination) ([]models.Product, int64, error)
	ListBySupplier(supplierID string, page models.Pagination) ([]models.Product, int64, error)
	Update(product *models.Product) error
	UpdateStatus(id string, status models.ProductStatus) error
	// ConditionalDecrement atomically subtracts quantity from the
	// product's stock, but only when stock_on_hand >= quantity at write
	// time. Returns false (and no error) when the condition fails.
	ConditionalDecrement(id string, quantity int) (bool, error)
	// SetStock overwrites the absolute stock level. Negative values are
	// rejected at this boundary.
	SetStock(id string, quantity int) error
}
