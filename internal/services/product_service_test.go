package services_test

import (
	"testing"

	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestProjectProduct(t *testing.T) {
	product := &models.Product{
		ID:           "prod-1",
		SupplierID:   "sup-1",
		Name:         "Laptop",
		CostPrice:    900.00,
		SellingPrice: 1200.00,
		StockOnHand:  10,
		Status:       models.ProductStatusActive,
	}

	t.Run("customer never sees cost price", func(t *testing.T) {
		view := services.ProjectProduct(product, models.RoleCustomer, "user-1")
		assert.Nil(t, view.CostPrice)
		assert.Equal(t, 1200.00, view.SellingPrice)
	})

	t.Run("admin sees cost price", func(t *testing.T) {
		view := services.ProjectProduct(product, models.RoleAdmin, "admin-1")
		if assert.NotNil(t, view.CostPrice) {
			assert.Equal(t, 900.00, *view.CostPrice)
		}
	})

	t.Run("owning supplier sees cost price", func(t *testing.T) {
		view := services.ProjectProduct(product, models.RoleSupplier, "sup-1")
		if assert.NotNil(t, view.CostPrice) {
			assert.Equal(t, 900.00, *view.CostPrice)
		}
	})

	t.Run("other supplier does not", func(t *testing.T) {
		view := services.ProjectProduct(product, models.RoleSupplier, "sup-2")
		assert.Nil(t, view.CostPrice)
	})
}

func TestProductService_CreateProduct(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo)

	t.Run("supplier product starts in draft", func(t *testing.T) {
		product := &models.Product{
			SupplierID:   "sup-1",
			Name:         "New Product",
			SellingPrice: 50.00,
			StockOnHand:  20,
		}
		assert.NoError(t, service.CreateProduct(product, models.RoleSupplier))
		assert.Equal(t, models.ProductStatusDraft, product.Status)
		assert.NotEmpty(t, product.ID)
	})

	t.Run("supplier cannot create active products", func(t *testing.T) {
		product := &models.Product{
			SupplierID:   "sup-1",
			Name:         "Sneaky Product",
			SellingPrice: 50.00,
			Status:       models.ProductStatusActive,
		}
		err := service.CreateProduct(product, models.RoleSupplier)
		var validationErr *services.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("admin can create active products", func(t *testing.T) {
		product := &models.Product{
			SupplierID:   "sup-1",
			Name:         "Featured Product",
			SellingPrice: 80.00,
			StockOnHand:  5,
			Status:       models.ProductStatusActive,
		}
		assert.NoError(t, service.CreateProduct(product, models.RoleAdmin))
	})

	t.Run("invalid product rejected", func(t *testing.T) {
		product := &models.Product{
			SupplierID: "sup-1",
			Name:       "X", // too short
		}
		err := service.CreateProduct(product, models.RoleSupplier)
		var validationErr *services.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestProductService_ListActiveFiltersAndProjects(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo)

	assert.NoError(t, repo.Create(activeProduct("prod-1", "sup-1", "Red Shirt", 20.00, 10)))
	assert.NoError(t, repo.Create(activeProduct("prod-2", "sup-2", "Blue Shirt", 25.00, 10)))
	draft := activeProduct("prod-3", "sup-1", "Hidden Shirt", 30.00, 10)
	draft.Status = models.ProductStatusDraft
	assert.NoError(t, repo.Create(draft))

	page, err := service.ListActive(models.ProductFilter{}, models.Pagination{}, models.RoleCustomer, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalItems)
	for _, view := range page.Products {
		assert.Nil(t, view.CostPrice)
		assert.Equal(t, models.ProductStatusActive, view.Status)
	}

	bySupplier, err := service.ListActive(models.ProductFilter{SupplierID: "sup-1"}, models.Pagination{}, models.RoleCustomer, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), bySupplier.TotalItems)
	assert.Equal(t, "Red Shirt", bySupplier.Products[0].Name)

	bySearch, err := service.ListActive(models.ProductFilter{Search: "blue"}, models.Pagination{}, models.RoleCustomer, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), bySearch.TotalItems)
	assert.Equal(t, "Blue Shirt", bySearch.Products[0].Name)
}

func TestProductService_UpdateProductKeepsSupplier(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo)
	assert.NoError(t, repo.Create(activeProduct("prod-1", "sup-1", "Red Shirt", 20.00, 10)))

	hijacked := activeProduct("prod-1", "sup-2", "Red Shirt", 20.00, 10)
	err := service.UpdateProduct(hijacked)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestProductService_SetStock(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo)
	assert.NoError(t, repo.Create(activeProduct("prod-1", "sup-1", "Red Shirt", 20.00, 10)))

	assert.NoError(t, service.SetStock("prod-1", 42))
	product, _ := repo.GetByID("prod-1")
	assert.Equal(t, 42, product.StockOnHand)

	err := service.SetStock("prod-1", -1)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	assert.ErrorIs(t, service.SetStock("prod-missing", 5), repositories.ErrNotFound)
}

func TestProductService_UpdateStatus(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo)
	assert.NoError(t, repo.Create(activeProduct("prod-1", "sup-1", "Red Shirt", 20.00, 10)))

	assert.NoError(t, service.UpdateStatus("prod-1", models.ProductStatusArchived))
	product, _ := repo.GetByID("prod-1")
	assert.Equal(t, models.ProductStatusArchived, product.Status)

	err := service.UpdateStatus("prod-1", models.ProductStatus("bogus"))
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestMockProductRepository_ConditionalDecrement(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	assert.NoError(t, repo.Create(activeProduct("prod-1", "sup-1", "Red Shirt", 20.00, 3)))

	ok, err := repo.ConditionalDecrement("prod-1", 2)
	assert.NoError(t, err)
	assert.True(t, ok)

	// The remaining unit cannot cover a request for two.
	ok, err = repo.ConditionalDecrement("prod-1", 2)
	assert.NoError(t, err)
	assert.False(t, ok)

	product, _ := repo.GetByID("prod-1")
	assert.Equal(t, 1, product.StockOnHand)

	ok, err = repo.ConditionalDecrement("prod-missing", 1)
	assert.NoError(t, err)
	assert.False(t, ok)
}
