package repositories

import (
	"fmt"
	"time"

	"pasar/internal/models"

	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// Get returns the owner's cart, creating an empty one on first access.
func (r *GORMCartRepository) Get(ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").First(&cart, "owner_id = ?", ownerID).Error
	if err == gorm.ErrRecordNotFound {
		cart = models.Cart{OwnerID: ownerID, Items: []models.CartItem{}}
		if err := r.db.Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart for %s: %w", ownerID, err)
		}
		return &cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart for %s: %w", ownerID, err)
	}
	return &cart, nil
}

// AddItem adds quantity of a product to the cart, merging with an
// existing line for the same product.
func (r *GORMCartRepository) AddItem(ownerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("cart quantity must be >= 1, got %d", quantity)
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureCart(tx, ownerID); err != nil {
			return err
		}
		var item models.CartItem
		err := tx.First(&item, "cart_owner_id = ? AND product_id = ?", ownerID, productID).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			item = models.CartItem{
				CartOwnerID: ownerID,
				ProductID:   productID,
				Quantity:    quantity,
				AddedAt:     time.Now(),
			}
			return tx.Create(&item).Error
		case err != nil:
			return err
		default:
			return tx.Model(&item).Update("quantity", item.Quantity+quantity).Error
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart %s: %w", ownerID, err)
	}
	return r.Get(ownerID)
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (r *GORMCartRepository) SetQuantity(ownerID, productID string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("cart quantity cannot be negative, got %d", quantity)
	}
	if quantity == 0 {
		return r.RemoveItem(ownerID, productID)
	}
	res := r.db.Model(&models.CartItem{}).
		Where("cart_owner_id = ? AND product_id = ?", ownerID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to set quantity in cart %s: %w", ownerID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("product %s in cart %s: %w", productID, ownerID, ErrNotFound)
	}
	return r.Get(ownerID)
}

// RemoveItem deletes a product's line from the cart. Removing a product
// that is not in the cart is a no-op.
func (r *GORMCartRepository) RemoveItem(ownerID, productID string) (*models.Cart, error) {
	err := r.db.
		Where("cart_owner_id = ? AND product_id = ?", ownerID, productID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove item from cart %s: %w", ownerID, err)
	}
	return r.Get(ownerID)
}

// Clear empties the cart's items but keeps the cart record. Clearing an
// already-empty or absent cart is a no-op.
func (r *GORMCartRepository) Clear(ownerID string) error {
	err := r.db.Where("cart_owner_id = ?", ownerID).Delete(&models.CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", ownerID, err)
	}
	return nil
}

// MergeGuestInto folds a guest cart into the target owner's cart,
// summing quantities for matching products, then deletes the guest
// cart record. A missing or empty guest cart is a no-op.
func (r *GORMCartRepository) MergeGuestInto(guestID, ownerID string) (*models.Cart, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var guestItems []models.CartItem
		if err := tx.Find(&guestItems, "cart_owner_id = ?", guestID).Error; err != nil {
			return err
		}
		if len(guestItems) > 0 {
			if err := ensureCart(tx, ownerID); err != nil {
				return err
			}
			for _, gi := range guestItems {
				var item models.CartItem
				err := tx.First(&item, "cart_owner_id = ? AND product_id = ?", ownerID, gi.ProductID).Error
				switch {
				case err == gorm.ErrRecordNotFound:
					item = models.CartItem{
						CartOwnerID: ownerID,
						ProductID:   gi.ProductID,
						Quantity:    gi.Quantity,
						AddedAt:     gi.AddedAt,
					}
					if err := tx.Create(&item).Error; err != nil {
						return err
					}
				case err != nil:
					return err
				default:
					if err := tx.Model(&item).Update("quantity", item.Quantity+gi.Quantity).Error; err != nil {
						return err
					}
				}
			}
			if err := tx.Where("cart_owner_id = ?", guestID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}
		// The guest cart record goes away even when it held no items.
		return tx.Where("owner_id = ?", guestID).Delete(&models.Cart{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge guest cart %s into %s: %w", guestID, ownerID, err)
	}
	return r.Get(ownerID)
}

// ensureCart creates the cart record if the owner has none yet.
func ensureCart(tx *gorm.DB, ownerID string) error {
	var cart models.Cart
	err := tx.First(&cart, "owner_id = ?", ownerID).Error
	if err == gorm.ErrRecordNotFound {
		return tx.Create(&models.Cart{OwnerID: ownerID}).Error
	}
	return err
}
