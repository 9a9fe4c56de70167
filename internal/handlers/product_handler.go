package handlers

import (
	"log"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers catalog routes. Reads are open to any
// identity (projection strips privileged fields); writes are gated by
// role in the handlers themselves.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/mine", h.HandleListOwnProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Patch("/:id/status", h.HandleUpdateProductStatus)
	productRoutes.Patch("/:id/stock", h.HandleSetStock)
}

// HandleListProducts lists active products with optional ?supplier_id=,
// ?search=, ?page= and ?limit= parameters.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	filter := models.ProductFilter{
		SupplierID: c.Query("supplier_id"),
		Search:     c.Query("search"),
	}
	result, err := h.service.ListActive(filter, paginationFromQuery(c), identity.Role, identity.ID)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// HandleListOwnProducts lists the calling supplier's products in any
// status.
func (h *ProductHandler) HandleListOwnProducts(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity.Role != models.RoleSupplier {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Only suppliers have their own product list",
		})
	}
	result, err := h.service.ListBySupplier(identity.ID, paginationFromQuery(c), identity.Role, identity.ID)
	if err != nil {
		log.Printf("Error listing supplier products: %v", err)
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// HandleGetProductByID retrieves a single product projected for the
// viewer.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	view, err := h.service.GetProduct(c.Params("id"), identity.Role, identity.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(view)
}

// HandleCreateProduct creates a product owned by the calling supplier.
// Admins may create products for any supplier.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity.Role != models.RoleSupplier && identity.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Only suppliers and admins may create products",
		})
	}

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if identity.Role == models.RoleSupplier {
		product.SupplierID = identity.ID
	}

	if err := h.service.CreateProduct(&product, identity.Role); err != nil {
		log.Printf("Error creating product: %v", err)
		return respondServiceError(c, err)
	}
	view := services.ProjectProduct(&product, identity.Role, identity.ID)
	return c.Status(fiber.StatusCreated).JSON(view)
}

// HandleUpdateProduct applies an edit by the owning supplier or an
// admin.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	productID := c.Params("id")
	allowed, err := h.canModify(identity, productID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You may not modify this product",
		})
	}

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = productID
	if identity.Role == models.RoleSupplier {
		product.SupplierID = identity.ID
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		log.Printf("Error updating product %s: %v", productID, err)
		return respondServiceError(c, err)
	}
	view := services.ProjectProduct(&product, identity.Role, identity.ID)
	return c.JSON(view)
}

// HandleUpdateProductStatus moves a product through its lifecycle.
// Activation is an admin action.
func (h *ProductHandler) HandleUpdateProductStatus(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Only admins may change product status",
		})
	}

	var body struct {
		Status models.ProductStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.UpdateStatus(c.Params("id"), body.Status); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product status updated"})
}

// HandleSetStock overwrites the absolute stock level. This path is for
// manual inventory edits; purchases never touch it.
func (h *ProductHandler) HandleSetStock(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	productID := c.Params("id")
	allowed, err := h.canModify(identity, productID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You may not modify this product",
		})
	}

	var body struct {
		StockOnHand int `json:"stock_on_hand"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.SetStock(productID, body.StockOnHand); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated"})
}

// canModify reports whether the identity may modify the product:
// admins always, suppliers only for their own products.
func (h *ProductHandler) canModify(identity middleware.Identity, productID string) (bool, error) {
	if identity.Role == models.RoleAdmin {
		return true, nil
	}
	if identity.Role != models.RoleSupplier {
		return false, nil
	}
	return h.service.OwnsProduct(identity.ID, productID)
}
