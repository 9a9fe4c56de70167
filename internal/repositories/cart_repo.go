package repositories

import (
	"pasar/internal/models"
)

// CartRepository defines the interface for cart data access. Carts are
// keyed by owner identity, which may be a registered user ID or a guest
// ID; the first access lazily creates an empty cart.
type CartRepository interface {
	// Get returns the owner's cart, creating an empty one on first access.
	Get(ownerID string) (*models.Cart, error)
	// AddItem adds quantity of a product, merging with an existing line
	// for the same product.
	AddItem(ownerID, productID string, quantity int) (*models.Cart, error)
	// SetQuantity replaces a line's quantity; zero removes the line.
	SetQuantity(ownerID, productID string, quantity int) (*models.Cart, error)
	RemoveItem(ownerID, productID string) (*models.Cart, error)
	// Clear empties the cart's items but keeps the cart record. Clearing
	// an already-empty or absent cart is a no-op.
	Clear(ownerID string) error
	// MergeGuestInto folds a guest cart into the target owner's cart,
	// summing quantities for matching products, then deletes the guest
	// cart. A missing or empty guest cart makes this a no-op.
	MergeGuestInto(guestID, ownerID string) (*models.Cart, error)
}
