package services

import (
	"fmt"
	"strings"

	"pasar/internal/models"
)

// ValidationError reports malformed input: an empty item list, a
// missing address field, an unknown status value. Never worth retrying
// unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// ProductUnavailableError reports requested products that either don't
// exist or aren't currently purchasable. Callers should refresh their
// cart view.
type ProductUnavailableError struct {
	ProductIDs []string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("products unavailable or not active: %s", strings.Join(e.ProductIDs, ", "))
}

// InsufficientStockError reports a purchase that exceeds available
// stock. When detected at the pre-check it names the product; when a
// concurrent order consumed the stock between the read and the
// conditional write, StockChanged is set and the caller should re-read
// the cart and catalog before trying again.
type InsufficientStockError struct {
	ProductID    string
	ProductName  string
	Requested    int
	Available    int
	StockChanged bool
}

func (e *InsufficientStockError) Error() string {
	if e.StockChanged {
		return "stock changed while placing the order, please refresh and try again"
	}
	return fmt.Sprintf("insufficient stock for product %s (%s): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError reports an order status change the state
// machine does not allow.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}

// PersistenceError reports that the underlying store failed for
// infrastructure reasons. The wrapped cause is preserved; the condition
// is retryable by the user once the store recovers.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
