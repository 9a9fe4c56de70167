package handlers

import (
	"log"

	"pasar/internal/middleware"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart. All routes
// work for guests as well as registered users; the identity middleware
// supplies the owner key either way.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productId", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// HandleGetCart returns the caller's cart, creating an empty one on
// first access.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	cart, err := h.service.GetCart(identity.ID)
	if err != nil {
		log.Printf("Error getting cart for %s: %v", identity.ID, err)
		return respondServiceError(c, err)
	}
	return c.JSON(cart)
}

// HandleAddItem adds a product to the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)

	// Quantity is a pointer so an omitted field (defaults to 1) can be
	// told apart from an explicit zero, which is invalid.
	var body struct {
		ProductID string `json:"product_id"`
		Quantity  *int   `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if body.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id is required",
		})
	}
	quantity := 1
	if body.Quantity != nil {
		quantity = *body.Quantity
	}

	cart, err := h.service.AddItem(identity.ID, body.ProductID, quantity)
	if err != nil {
		log.Printf("Error adding item to cart for %s: %v", identity.ID, err)
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// HandleSetQuantity replaces a cart line's quantity; zero removes it.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	cart, err := h.service.SetQuantity(identity.ID, c.Params("productId"), body.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem takes a product out of the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	cart, err := h.service.RemoveItem(identity.ID, c.Params("productId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cart)
}

// HandleClearCart empties the caller's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if err := h.service.ClearCart(identity.ID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}
