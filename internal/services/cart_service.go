package services

import (
	"pasar/internal/models"
	"pasar/internal/repositories"
)

// CartService handles business logic related to carts. It checks the
// catalog when items are added so carts only ever reference active
// products, but the authoritative re-check still happens inside the
// order transaction.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the owner's cart, creating an empty one on first
// access.
func (s *CartService) GetCart(ownerID string) (*models.Cart, error) {
	return s.cartRepo.Get(ownerID)
}

// AddItem puts quantity of a product into the owner's cart. The product
// must exist and be active.
func (s *CartService) AddItem(ownerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, &ValidationError{Reason: "quantity must be at least 1"}
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductStatusActive {
		return nil, &ProductUnavailableError{ProductIDs: []string{productID}}
	}
	return s.cartRepo.AddItem(ownerID, productID, quantity)
}

// SetQuantity replaces a cart line's quantity; zero removes the line.
func (s *CartService) SetQuantity(ownerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, &ValidationError{Reason: "quantity cannot be negative"}
	}
	return s.cartRepo.SetQuantity(ownerID, productID, quantity)
}

// RemoveItem takes a product out of the owner's cart.
func (s *CartService) RemoveItem(ownerID, productID string) (*models.Cart, error) {
	return s.cartRepo.RemoveItem(ownerID, productID)
}

// ClearCart empties the owner's cart. Idempotent.
func (s *CartService) ClearCart(ownerID string) error {
	return s.cartRepo.Clear(ownerID)
}

// MergeGuestCart folds a guest cart into a registered user's cart at
// login, summing quantities for products present in both. The guest
// cart record is deleted afterwards; a missing or empty guest cart
// makes this a no-op.
func (s *CartService) MergeGuestCart(guestID, ownerID string) (*models.Cart, error) {
	if guestID == "" || guestID == ownerID {
		return s.cartRepo.Get(ownerID)
	}
	return s.cartRepo.MergeGuestInto(guestID, ownerID)
}

// CheckoutItems maps the owner's current cart lines to order item
// requests for the order transaction.
func (s *CartService) CheckoutItems(ownerID string) ([]OrderItemRequest, error) {
	cart, err := s.cartRepo.Get(ownerID)
	if err != nil {
		return nil, err
	}
	items := make([]OrderItemRequest, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return items, nil
}
