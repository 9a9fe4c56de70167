package handlers

import (
	"log"
	"strconv"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *services.OrderService
	cartService  *services.CartService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, cartService *services.CartService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		cartService:  cartService,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// CreateOrderRequest is the checkout payload. Items may be omitted, in
// which case the caller's current cart is used.
type CreateOrderRequest struct {
	Items           []services.OrderItemRequest `json:"items"`
	ShippingAddress models.ShippingAddress      `json:"shipping_address"`
}

// HandleCreateOrder runs the order transaction for the calling
// identity (registered or guest).
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	items := req.Items
	if len(items) == 0 {
		cartItems, err := h.cartService.CheckoutItems(identity.ID)
		if err != nil {
			return respondServiceError(c, err)
		}
		items = cartItems
	}

	order, err := h.orderService.CreateOrder(c.UserContext(), services.CreateOrderInput{
		PurchaserID:     identity.ID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		log.Printf("Error creating order for %s: %v", identity.ID, err)
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOrders lists orders scoped by role: admins see everything,
// suppliers see orders containing their items, everyone else sees their
// own orders. Supports ?page=, ?limit= and ?status= query parameters.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	page := paginationFromQuery(c)
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unknown order status filter: " + string(status),
		})
	}

	var (
		result *services.OrderPage
		err    error
	)
	switch identity.Role {
	case models.RoleAdmin:
		result, err = h.orderService.ListAll(page, status)
	case models.RoleSupplier:
		result, err = h.orderService.ListForSupplier(identity.ID, page, status)
	default:
		result, err = h.orderService.ListForOwner(identity.ID, page, status)
	}
	if err != nil {
		log.Printf("Error listing orders for %s: %v", identity.ID, err)
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// HandleGetOrderByID retrieves a single order, visible to its
// purchaser, to admins, and to suppliers with an item in it.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	order, err := h.orderService.GetOrder(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !canSeeOrder(identity, order) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You may not view this order",
		})
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatus moves an order through its status workflow.
// Validity of the transition is the service's concern; this handler
// only decides who may ask: admins for any order, suppliers for orders
// containing their items.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity.Role != models.RoleAdmin && identity.Role != models.RoleSupplier {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Only suppliers and admins may change order status",
		})
	}

	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if body.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required",
		})
	}

	orderID := c.Params("id")
	if identity.Role == models.RoleSupplier {
		order, err := h.orderService.GetOrder(orderID)
		if err != nil {
			return respondServiceError(c, err)
		}
		if !orderContainsSupplier(order, identity.ID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "This order contains none of your items",
			})
		}
	}

	order, err := h.orderService.TransitionStatus(c.UserContext(), orderID, body.Status)
	if err != nil {
		log.Printf("Error updating status of order %s: %v", orderID, err)
		return respondServiceError(c, err)
	}
	return c.JSON(order)
}

func canSeeOrder(identity middleware.Identity, order *models.Order) bool {
	if identity.ID == order.UserID || identity.Role == models.RoleAdmin {
		return true
	}
	return identity.Role == models.RoleSupplier && orderContainsSupplier(order, identity.ID)
}

func orderContainsSupplier(order *models.Order, supplierID string) bool {
	for _, item := range order.Items {
		if item.SupplierID == supplierID {
			return true
		}
	}
	return false
}

// paginationFromQuery reads page/limit query parameters; the model
// clamps them to valid ranges.
func paginationFromQuery(c *fiber.Ctx) models.Pagination {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(models.DefaultPageLimit)))
	return models.Pagination{Page: page, Limit: limit}
}
