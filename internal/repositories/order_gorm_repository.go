package repositories

import (
	"fmt"

	"pasar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Insert persists a new order together with its item snapshots.
func (r *GORMOrderRepository) Insert(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByOwner retrieves a page of the purchaser's orders.
func (r *GORMOrderRepository) ListByOwner(ownerID string, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{}).Where("user_id = ?", ownerID)
	return r.listOrders(q, page, status)
}

// ListBySupplier retrieves a page of orders containing at least one of
// the supplier's items. The whole order is returned, not just the
// supplier's lines.
func (r *GORMOrderRepository) ListBySupplier(supplierID string, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	sub := r.db.Model(&models.OrderItem{}).
		Select("order_id").
		Where("supplier_id = ?", supplierID)
	q := r.db.Model(&models.Order{}).Where("id IN (?)", sub)
	return r.listOrders(q, page, status)
}

// ListAll retrieves a page of every order; this is the admin view.
func (r *GORMOrderRepository) ListAll(page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	return r.listOrders(r.db.Model(&models.Order{}), page, status)
}

func (r *GORMOrderRepository) listOrders(q *gorm.DB, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	n := page.Normalized()
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(n.Offset()).
		Limit(n.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus changes an order's status. Transition validity is the
// service layer's job; this only touches storage.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
