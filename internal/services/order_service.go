package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventPublisher publishes domain events to the message broker. The
// RabbitMQ client implements it; tests substitute a mock, and a nil
// publisher disables publishing entirely.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderExchange is the broker exchange order events are published to.
const OrderExchange = "order"

// OrderItemRequest is one (product, quantity) pair of a checkout.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CreateOrderInput is the full input of the order transaction.
type CreateOrderInput struct {
	PurchaserID     string                 `json:"-" validate:"required"`
	Items           []OrderItemRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalItems int64          `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}

// OrderService owns the order transaction and the status workflow.
type OrderService struct {
	tx        repositories.TxManager
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	validate  *validator.Validate
}

// NewOrderService creates a new OrderService. orderRepo serves the
// non-transactional read paths; every write goes through tx. publisher
// may be nil, in which case no events are emitted.
func NewOrderService(tx repositories.TxManager, orderRepo repositories.OrderRepository, publisher EventPublisher) *OrderService {
	return &OrderService{
		tx:        tx,
		orderRepo: orderRepo,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// CreateOrder converts a cart snapshot into a durable order. The whole
// sequence runs inside one store transaction: fetch the active products
// in a single query, pre-check stock and freeze the item snapshots from
// that same read, conditionally decrement each product's stock, verify
// every decrement applied, compute totals, insert the order with status
// pending and clear the purchaser's cart. Any failure rolls everything
// back: no order appears, no stock moves, the cart is untouched.
//
// There are no internal retries. A caller that receives
// InsufficientStockError is expected to re-read the cart and catalog
// and let the user decide.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	// The same product may appear more than once in raw input; fold
	// duplicates so the distinct-count check below stays meaningful.
	requested := mergeItemRequests(input.Items)
	ids := make([]string, len(requested))
	for i, req := range requested {
		ids[i] = req.ProductID
	}

	var created *models.Order
	err := s.tx.InTx(ctx, func(r repositories.TxRepos) error {
		products, err := r.Products.GetActiveByIDs(ids)
		if err != nil {
			return &PersistenceError{Op: "fetch products", Err: err}
		}
		if len(products) != len(ids) {
			return &ProductUnavailableError{ProductIDs: missingIDs(ids, products)}
		}

		byID := make(map[string]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		// Freeze point: name and prices come from the read above, so a
		// later catalog edit can never leak into this order.
		items := make([]models.OrderItem, 0, len(requested))
		for _, req := range requested {
			p := byID[req.ProductID]
			if p.StockOnHand < req.Quantity {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   req.Quantity,
					Available:   p.StockOnHand,
				}
			}
			items = append(items, models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    req.Quantity,
				UnitPrice:   p.SellingPrice,
				CostPrice:   p.CostPrice,
				SupplierID:  p.SupplierID,
			})
		}

		// The conditional decrement is the actual concurrency guard: the
		// pre-check above can go stale the moment another transaction
		// commits, but the per-row stock condition cannot.
		decremented := 0
		for _, req := range requested {
			ok, err := r.Products.ConditionalDecrement(req.ProductID, req.Quantity)
			if err != nil {
				return &PersistenceError{Op: "decrement stock", Err: err}
			}
			if ok {
				decremented++
			}
		}
		if decremented != len(requested) {
			return &InsufficientStockError{StockChanged: true}
		}

		subtotal, shipping, total := models.CalculateTotals(items)
		order := &models.Order{
			ID:              uuid.New().String(),
			UserID:          input.PurchaserID,
			Items:           items,
			ShippingAddress: input.ShippingAddress,
			Subtotal:        subtotal,
			Shipping:        shipping,
			Total:           total,
			Status:          models.OrderStatusPending,
		}
		if err := r.Orders.Insert(order); err != nil {
			return &PersistenceError{Op: "insert order", Err: err}
		}
		if err := r.Carts.Clear(input.PurchaserID); err != nil {
			return &PersistenceError{Op: "clear cart", Err: err}
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err, "create order")
	}

	s.publishEvent("order.created", map[string]interface{}{
		"order_id": created.ID,
		"user_id":  created.UserID,
		"status":   created.Status,
		"total":    created.Total,
	})
	return created, nil
}

// TransitionStatus moves an order to a new status, enforcing the
// forward-only state machine. Who is allowed to request the transition
// is the caller's concern; this only answers whether the move is valid
// from the order's current status.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID string, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, &ValidationError{Reason: "unknown order status: " + string(to)}
	}

	var updated *models.Order
	err := s.tx.InTx(ctx, func(r repositories.TxRepos) error {
		order, err := r.Orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			return &PersistenceError{Op: "fetch order", Err: err}
		}
		if !order.Status.CanTransitionTo(to) {
			return &InvalidTransitionError{From: order.Status, To: to}
		}
		if err := r.Orders.UpdateStatus(orderID, to); err != nil {
			return &PersistenceError{Op: "update order status", Err: err}
		}
		order.Status = to
		order.UpdatedAt = time.Now()
		updated = order
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err, "transition order status")
	}

	s.publishEvent("order.status_changed", map[string]interface{}{
		"order_id": updated.ID,
		"status":   updated.Status,
	})
	return updated, nil
}

// GetOrder retrieves a single order with its item snapshots.
func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// ListForOwner returns a page of the purchaser's orders.
func (s *OrderService) ListForOwner(ownerID string, page models.Pagination, status models.OrderStatus) (*OrderPage, error) {
	orders, total, err := s.orderRepo.ListByOwner(ownerID, page, status)
	if err != nil {
		return nil, err
	}
	return newOrderPage(orders, total, page), nil
}

// ListForSupplier returns a page of orders containing at least one of
// the supplier's items.
func (s *OrderService) ListForSupplier(supplierID string, page models.Pagination, status models.OrderStatus) (*OrderPage, error) {
	orders, total, err := s.orderRepo.ListBySupplier(supplierID, page, status)
	if err != nil {
		return nil, err
	}
	return newOrderPage(orders, total, page), nil
}

// ListAll returns a page of every order; callers gate this to admins.
func (s *OrderService) ListAll(page models.Pagination, status models.OrderStatus) (*OrderPage, error) {
	orders, total, err := s.orderRepo.ListAll(page, status)
	if err != nil {
		return nil, err
	}
	return newOrderPage(orders, total, page), nil
}

func newOrderPage(orders []models.Order, total int64, page models.Pagination) *OrderPage {
	n := page.Normalized()
	return &OrderPage{
		Orders:     orders,
		Page:       n.Page,
		Limit:      n.Limit,
		TotalItems: total,
		TotalPages: n.TotalPages(total),
	}
}

// publishEvent sends a domain event to the broker. Publishing is
// best-effort and happens only after the transaction committed; a
// broker failure never undoes an order.
func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(OrderExchange, routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

// mergeItemRequests folds duplicate product ids into one request each,
// summing quantities and preserving first-seen order.
func mergeItemRequests(items []OrderItemRequest) []OrderItemRequest {
	merged := make([]OrderItemRequest, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// missingIDs returns the requested ids that the active-product fetch
// did not return.
func missingIDs(ids []string, found []models.Product) []string {
	present := make(map[string]bool, len(found))
	for _, p := range found {
		present[p.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// wrapTxErr keeps typed service errors and repository not-found errors
// intact and wraps everything else (driver failures, commit errors,
// context cancellation) as a PersistenceError.
func wrapTxErr(err error, op string) error {
	var (
		ve *ValidationError
		pu *ProductUnavailableError
		is *InsufficientStockError
		it *InvalidTransitionError
		pe *PersistenceError
	)
	if errors.As(err, &ve) || errors.As(err, &pu) || errors.As(err, &is) ||
		errors.As(err, &it) || errors.As(err, &pe) || errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
