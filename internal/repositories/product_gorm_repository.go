package repositories

import (
	"fmt"

	"pasar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
// Handing it a transaction handle (from TxManager) scopes every call to
// that transaction.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetActiveByIDs loads every active product among ids in one query.
func (r *GORMProductRepository) GetActiveByIDs(ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.
		Where("id IN ? AND status = ?", ids, models.ProductStatusActive).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active products: %w", err)
	}
	return products, nil
}

// ListActive retrieves a page of active products matching the filter,
// together with the total count of matches.
func (r *GORMProductRepository) ListActive(filter models.ProductFilter, page models.Pagination) ([]models.Product, int64, error) {
	q := r.db.Model(&models.Product{}).Where("status = ?", models.ProductStatusActive)
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Search != "" {
		q = q.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count active products: %w", err)
	}

	var products []models.Product
	n := page.Normalized()
	err := q.Order("created_at DESC").Offset(n.Offset()).Limit(n.Limit).Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, total, nil
}

// ListBySupplier retrieves a page of a supplier's products in any
// status, together with the total count.
func (r *GORMProductRepository) ListBySupplier(supplierID string, page models.Pagination) ([]models.Product, int64, error) {
	q := r.db.Model(&models.Product{}).Where("supplier_id = ?", supplierID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count supplier products: %w", err)
	}

	var products []models.Product
	n := page.Normalized()
	err := q.Order("created_at DESC").Offset(n.Offset()).Limit(n.Limit).Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list supplier products: %w", err)
	}
	return products, total, nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// UpdateStatus changes a product's lifecycle status.
func (r *GORMProductRepository) UpdateStatus(id string, status models.ProductStatus) error {
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update product status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// ConditionalDecrement subtracts quantity from stock only when enough
// stock remains at write time. The WHERE clause carries the stock
// condition so the check and the write are one atomic statement; a
// concurrent transaction that already consumed the stock makes this
// report zero rows affected instead of driving the count negative.
func (r *GORMProductRepository) ConditionalDecrement(id string, quantity int) (bool, error) {
	if quantity < 1 {
		return false, fmt.Errorf("decrement quantity must be >= 1, got %d", quantity)
	}
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock_on_hand >= ?", id, quantity).
		Update("stock_on_hand", gorm.Expr("stock_on_hand - ?", quantity))
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SetStock overwrites the absolute stock level for a product. This is
// the supplier/admin edit path; it is last-writer-wins with respect to
// in-flight orders but never accepts a negative value.
func (r *GORMProductRepository) SetStock(id string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("stock for product %s cannot be negative (got %d)", id, quantity)
	}
	res := r.db.Model(&models.Product{}).Where("id = ?", id).Update("stock_on_hand", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to set stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
