package repositories

import (
	"fmt"
	"sync"
	"time"

	"pasar/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string]models.Cart
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// Get returns the owner's cart, creating an empty one on first access.
func (r *MockCartRepository) Get(ownerID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(ownerID)
	return &cart, nil
}

// getOrCreateLocked lazily creates the cart. Callers must hold the lock.
func (r *MockCartRepository) getOrCreateLocked(ownerID string) models.Cart {
	cart, ok := r.carts[ownerID]
	if !ok {
		cart = models.Cart{
			OwnerID:   ownerID,
			Items:     []models.CartItem{},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		r.carts[ownerID] = cart
	}
	return cart
}

// AddItem adds quantity of a product, merging with an existing line.
func (r *MockCartRepository) AddItem(ownerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("cart quantity must be >= 1, got %d", quantity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(ownerID)
	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			CartOwnerID: ownerID,
			ProductID:   productID,
			Quantity:    quantity,
			AddedAt:     time.Now(),
		})
	}
	cart.UpdatedAt = time.Now()
	r.carts[ownerID] = cart
	return &cart, nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (r *MockCartRepository) SetQuantity(ownerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("cart quantity cannot be negative, got %d", quantity)
	}
	if quantity == 0 {
		return r.RemoveItem(ownerID, productID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(ownerID)
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			cart.UpdatedAt = time.Now()
			r.carts[ownerID] = cart
			return &cart, nil
		}
	}
	return nil, fmt.Errorf("product %s in cart %s: %w", productID, ownerID, ErrNotFound)
}

// RemoveItem deletes a product's line; removing an absent line is a no-op.
func (r *MockCartRepository) RemoveItem(ownerID, productID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.getOrCreateLocked(ownerID)
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	cart.UpdatedAt = time.Now()
	r.carts[ownerID] = cart
	return &cart, nil
}

// Clear empties the cart's items but keeps the cart record.
func (r *MockCartRepository) Clear(ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[ownerID]
	if !ok {
		return nil
	}
	cart.Items = []models.CartItem{}
	cart.UpdatedAt = time.Now()
	r.carts[ownerID] = cart
	return nil
}

// MergeGuestInto folds a guest cart into the target owner's cart and
// deletes the guest cart.
func (r *MockCartRepository) MergeGuestInto(guestID, ownerID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guest, ok := r.carts[guestID]
	if ok {
		cart := r.getOrCreateLocked(ownerID)
		for _, gi := range guest.Items {
			merged := false
			for i := range cart.Items {
				if cart.Items[i].ProductID == gi.ProductID {
					cart.Items[i].Quantity += gi.Quantity
					merged = true
					break
				}
			}
			if !merged {
				gi.CartOwnerID = ownerID
				cart.Items = append(cart.Items, gi)
			}
		}
		cart.UpdatedAt = time.Now()
		r.carts[ownerID] = cart
		delete(r.carts, guestID)
	}
	cart := r.getOrCreateLocked(ownerID)
	return &cart, nil
}

// snapshot copies the current state so a mock transaction can roll back.
func (r *MockCartRepository) snapshot() map[string]models.Cart {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make(map[string]models.Cart, len(r.carts))
	for id, c := range r.carts {
		items := make([]models.CartItem, len(c.Items))
		copy(items, c.Items)
		c.Items = items
		cp[id] = c
	}
	return cp
}

// restore replaces the current state with a previously taken snapshot.
func (r *MockCartRepository) restore(state map[string]models.Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts = state
}

// HasCart reports whether a cart record exists for the owner, without
// creating one. Used by tests to assert guest carts are deleted.
func (r *MockCartRepository) HasCart(ownerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.carts[ownerID]
	return ok
}
