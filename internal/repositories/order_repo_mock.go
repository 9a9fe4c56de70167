package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Insert adds a new order.
func (r *MockOrderRepository) Insert(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return &order, nil
}

// ListByOwner returns a page of the purchaser's orders.
func (r *MockOrderRepository) ListByOwner(ownerID string, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	return r.list(page, status, func(o models.Order) bool {
		return o.UserID == ownerID
	})
}

// ListBySupplier returns a page of orders containing at least one of
// the supplier's items.
func (r *MockOrderRepository) ListBySupplier(supplierID string, page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	return r.list(page, status, func(o models.Order) bool {
		for _, item := range o.Items {
			if item.SupplierID == supplierID {
				return true
			}
		}
		return false
	})
}

// ListAll returns a page of every order.
func (r *MockOrderRepository) ListAll(page models.Pagination, status models.OrderStatus) ([]models.Order, int64, error) {
	return r.list(page, status, func(models.Order) bool { return true })
}

func (r *MockOrderRepository) list(page models.Pagination, status models.OrderStatus, match func(models.Order) bool) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Order
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		if match(o) {
			matches = append(matches, o)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })

	total := int64(len(matches))
	n := page.Normalized()
	start := n.Offset()
	if start >= len(matches) {
		return []models.Order{}, total, nil
	}
	end := start + n.Limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

// UpdateStatus updates the status of an order.
func (r *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// snapshot copies the current state so a mock transaction can roll back.
func (r *MockOrderRepository) snapshot() map[string]models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make(map[string]models.Order, len(r.orders))
	for id, o := range r.orders {
		items := make([]models.OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
		cp[id] = o
	}
	return cp
}

// restore replaces the current state with a previously taken snapshot.
func (r *MockOrderRepository) restore(state map[string]models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = state
}
