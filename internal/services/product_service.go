package services

import (
	"fmt"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo:     repo,
		validate: validator.New(),
	}
}

// ProductView is the role-dependent projection of a product. CostPrice
// is nil unless the viewer is privileged for this product.
type ProductView struct {
	ID           string               `json:"id"`
	SupplierID   string               `json:"supplier_id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	SellingPrice float64              `json:"selling_price"`
	CostPrice    *float64             `json:"cost_price,omitempty"`
	StockOnHand  int                  `json:"stock_on_hand"`
	Status       models.ProductStatus `json:"status"`
}

// ProjectProduct maps a product to what a viewer may see. Admins and
// the owning supplier get the full view including cost price; everyone
// else gets the public view with cost stripped. Pure function, so the
// privileged-field logic stays testable on its own.
func ProjectProduct(p *models.Product, viewerRole models.Role, viewerID string) ProductView {
	view := ProductView{
		ID:           p.ID,
		SupplierID:   p.SupplierID,
		Name:         p.Name,
		Description:  p.Description,
		SellingPrice: p.SellingPrice,
		StockOnHand:  p.StockOnHand,
		Status:       p.Status,
	}
	if viewerRole == models.RoleAdmin || (viewerRole == models.RoleSupplier && viewerID == p.SupplierID) {
		cost := p.CostPrice
		view.CostPrice = &cost
	}
	return view
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products   []ProductView `json:"products"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalItems int64         `json:"total_items"`
	TotalPages int           `json:"total_pages"`
}

// CreateProduct validates and stores a new product. Supplier-created
// products start in draft; only an admin moves them to active.
func (s *ProductService) CreateProduct(product *models.Product, creatorRole models.Role) error {
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	if !product.Status.Valid() {
		return &ValidationError{Reason: "unknown product status: " + string(product.Status)}
	}
	if product.Status == models.ProductStatusActive && creatorRole != models.RoleAdmin {
		return &ValidationError{Reason: "only admins may create active products"}
	}
	if err := s.validate.Struct(product); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return s.repo.Create(product)
}

// GetProduct retrieves a single product projected for the viewer.
func (s *ProductService) GetProduct(id string, viewerRole models.Role, viewerID string) (*ProductView, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	view := ProjectProduct(product, viewerRole, viewerID)
	return &view, nil
}

// ListActive returns a page of purchasable products projected for the
// viewer.
func (s *ProductService) ListActive(filter models.ProductFilter, page models.Pagination, viewerRole models.Role, viewerID string) (*ProductPage, error) {
	products, total, err := s.repo.ListActive(filter, page)
	if err != nil {
		return nil, err
	}
	return newProductPage(products, total, page, viewerRole, viewerID), nil
}

// ListBySupplier returns a page of a supplier's own products in any
// status, projected for the viewer.
func (s *ProductService) ListBySupplier(supplierID string, page models.Pagination, viewerRole models.Role, viewerID string) (*ProductPage, error) {
	products, total, err := s.repo.ListBySupplier(supplierID, page)
	if err != nil {
		return nil, err
	}
	return newProductPage(products, total, page, viewerRole, viewerID), nil
}

func newProductPage(products []models.Product, total int64, page models.Pagination, viewerRole models.Role, viewerID string) *ProductPage {
	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = ProjectProduct(&products[i], viewerRole, viewerID)
	}
	n := page.Normalized()
	return &ProductPage{
		Products:   views,
		Page:       n.Page,
		Limit:      n.Limit,
		TotalItems: total,
		TotalPages: n.TotalPages(total),
	}
}

// UpdateProduct applies a supplier/admin edit to an existing product.
// Ownership never changes hands.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	existing, err := s.repo.GetByID(product.ID)
	if err != nil {
		return err
	}
	if product.SupplierID != existing.SupplierID {
		return &ValidationError{Reason: "supplier of a product cannot be changed"}
	}
	if err := s.validate.Struct(product); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return s.repo.Update(product)
}

// UpdateStatus moves a product through its lifecycle (admin action).
func (s *ProductService) UpdateStatus(id string, status models.ProductStatus) error {
	if !status.Valid() {
		return &ValidationError{Reason: "unknown product status: " + string(status)}
	}
	return s.repo.UpdateStatus(id, status)
}

// SetStock overwrites a product's absolute stock level. This is the
// manual supplier/admin edit path; it does not go through the order
// engine's conditional decrement and can race with in-flight orders
// (last writer wins). Negative values are rejected.
func (s *ProductService) SetStock(id string, quantity int) error {
	if quantity < 0 {
		return &ValidationError{Reason: fmt.Sprintf("stock cannot be negative, got %d", quantity)}
	}
	return s.repo.SetStock(id, quantity)
}

// OwnsProduct reports whether the supplier owns the product.
func (s *ProductService) OwnsProduct(supplierID, productID string) (bool, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return false, err
	}
	return product.SupplierID == supplierID, nil
}
