package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of
// ProductRepository, used in service tests and for local development.
type MockProductRepository struct {
	products  map[string]models.Product
	contested map[string]bool
	mu        sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products:  make(map[string]models.Product),
		contested: make(map[string]bool),
	}
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// GetActiveByIDs returns the active products among ids.
func (r *MockProductRepository) GetActiveByIDs(ids []string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.products[id]; ok && p.Status == models.ProductStatusActive {
			products = append(products, p)
		}
	}
	return products, nil
}

// ListActive returns a page of active products matching the filter.
func (r *MockProductRepository) ListActive(filter models.ProductFilter, page models.Pagination) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Product
	for _, p := range r.products {
		if p.Status != models.ProductStatusActive {
			continue
		}
		if filter.SupplierID != "" && p.SupplierID != filter.SupplierID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matches = append(matches, p)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginateProducts(matches, page)
}

// ListBySupplier returns a page of a supplier's products in any status.
func (r *MockProductRepository) ListBySupplier(supplierID string, page models.Pagination) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Product
	for _, p := range r.products {
		if p.SupplierID == supplierID {
			matches = append(matches, p)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginateProducts(matches, page)
}

func paginateProducts(matches []models.Product, page models.Pagination) ([]models.Product, int64, error) {
	total := int64(len(matches))
	n := page.Normalized()
	start := n.Offset()
	if start >= len(matches) {
		return []models.Product{}, total, nil
	}
	end := start + n.Limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, ErrNotFound)
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// UpdateStatus changes a product's lifecycle status.
func (r *MockProductRepository) UpdateStatus(id string, status models.ProductStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	r.products[id] = p
	return nil
}

// ConditionalDecrement atomically subtracts quantity when enough stock
// remains; the check and the write happen under one lock so concurrent
// callers can never drive the count negative.
func (r *MockProductRepository) ConditionalDecrement(id string, quantity int) (bool, error) {
	if quantity < 1 {
		return false, fmt.Errorf("decrement quantity must be >= 1, got %d", quantity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok || p.StockOnHand < quantity || r.contested[id] {
		delete(r.contested, id)
		return false, nil
	}
	p.StockOnHand -= quantity
	p.UpdatedAt = time.Now()
	r.products[id] = p
	return true, nil
}

// ContestNextDecrement makes the next ConditionalDecrement for the
// product fail once, as if a concurrent transaction consumed the stock
// between a caller's read and its conditional write.
func (r *MockProductRepository) ContestNextDecrement(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contested[id] = true
}

// SetStock overwrites the absolute stock level; negative values are
// rejected.
func (r *MockProductRepository) SetStock(id string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("stock for product %s cannot be negative (got %d)", id, quantity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	p.StockOnHand = quantity
	p.UpdatedAt = time.Now()
	r.products[id] = p
	return nil
}

// snapshot copies the current state so a mock transaction can roll back.
func (r *MockProductRepository) snapshot() map[string]models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make(map[string]models.Product, len(r.products))
	for id, p := range r.products {
		cp[id] = p
	}
	return cp
}

// restore replaces the current state with a previously taken snapshot.
func (r *MockProductRepository) restore(state map[string]models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = state
}
