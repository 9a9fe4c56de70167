package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app over a fresh in-memory SQLite database
// with all repositories, services and handlers wired, plus a seeded
// admin account (admins are never self-registered).
func setupApp() (*fiber.App, error) {
	// A unique DSN per test keeps the shared-cache memory databases of
	// parallel tests apart.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	err = userRepo.Create(&models.User{
		Username: "admin",
		Email:    "admin@example.com",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(txManager, orderRepo, nil)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService, cartService)
	authHandler := handlers.NewAuthHandler(authService, cartService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	shop := apiV1.Group("", middleware.WithIdentity(authService))
	productHandler.RegisterRoutes(shop)
	cartHandler.RegisterRoutes(shop)
	orderHandler.RegisterRoutes(shop)

	return app, nil
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type requestOpts struct {
	token   string
	guestID string
	body    interface{}
}

func doRequest(t *testing.T, app *fiber.App, method, url string, opts requestOpts) *http.Response {
	t.Helper()
	var reader io.Reader
	if opts.body != nil {
		jsonBody, err := json.Marshal(opts.body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, url, reader)
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.guestID != "" {
		req.Header.Set(middleware.GuestIDHeader, opts.guestID)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin creates an account with the given role and returns a
// bearer token for it.
func registerAndLogin(t *testing.T, app *fiber.App, username string, role models.Role) string {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/register", requestOpts{body: map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     string(role),
	}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	return login(t, app, username, "password123", "")
}

func login(t *testing.T, app *fiber.App, username, password, guestID string) string {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/v1/auth/login", requestOpts{
		guestID: guestID,
		body:    map[string]string{"username": username, "password": password},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// createActiveProduct goes through the real lifecycle: the supplier
// creates a draft, the admin activates it.
func createActiveProduct(t *testing.T, app *fiber.App, supplierToken, adminToken, name string, cost, selling float64, stock int) string {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/v1/products", requestOpts{
		token: supplierToken,
		body: map[string]interface{}{
			"name":          name,
			"description":   "integration test product",
			"cost_price":    cost,
			"selling_price": selling,
			"stock_on_hand": stock,
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created services.ProductView
	decodeBody(t, resp, &created)
	assert.Equal(t, models.ProductStatusDraft, created.Status)

	resp = doRequest(t, app, http.MethodPatch, "/api/v1/products/"+created.ID+"/status", requestOpts{
		token: adminToken,
		body:  map[string]string{"status": "active"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	return created.ID
}

func testShippingAddress() map[string]string {
	return map[string]string{
		"street":  "Jl. Merdeka 1",
		"city":    "Jakarta",
		"zip":     "10110",
		"country": "ID",
	}
}

func TestGuestShoppingAndCheckout(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Test Keyboard", 8.00, 20.00, 10)

	// First contact mints a guest identity.
	resp := doRequest(t, app, http.MethodGet, "/api/v1/cart", requestOpts{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	guestID := resp.Header.Get(middleware.GuestIDHeader)
	assert.NotEmpty(t, guestID)
	resp.Body.Close()

	// The guest fills the cart and checks out.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/cart/items", requestOpts{
		guestID: guestID,
		body:    map[string]interface{}{"product_id": productID, "quantity": 2},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/api/v1/orders", requestOpts{
		guestID: guestID,
		body:    map[string]interface{}{"shipping_address": testShippingAddress()},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, guestID, order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 40.00, order.Subtotal)
	assert.Equal(t, 5.99, order.Shipping)
	assert.Equal(t, 45.99, order.Total)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "Test Keyboard", order.Items[0].ProductName)

	// Stock moved, cart emptied.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+productID, requestOpts{guestID: guestID})
	var view services.ProductView
	decodeBody(t, resp, &view)
	assert.Equal(t, 8, view.StockOnHand)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/cart", requestOpts{guestID: guestID})
	var cart models.Cart
	decodeBody(t, resp, &cart)
	assert.Empty(t, cart.Items)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Scarce Gadget", 5.00, 15.00, 1)

	customerToken := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	resp := doRequest(t, app, http.MethodPost, "/api/v1/orders", requestOpts{
		token: customerToken,
		body: map[string]interface{}{
			"items":            []map[string]interface{}{{"product_id": productID, "quantity": 2}},
			"shipping_address": testShippingAddress(),
		},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Stock untouched by the failed order.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/products/"+productID, requestOpts{token: customerToken})
	var view services.ProductView
	decodeBody(t, resp, &view)
	assert.Equal(t, 1, view.StockOnHand)
}

func TestAddCartItemQuantities(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Counted Cup", 2.00, 6.00, 30)
	guestID := "guest-" + uuid.New().String()

	// Omitting quantity adds a single unit.
	resp := doRequest(t, app, http.MethodPost, "/api/v1/cart/items", requestOpts{
		guestID: guestID,
		body:    map[string]interface{}{"product_id": productID},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var cart models.Cart
	decodeBody(t, resp, &cart)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	// An explicit zero is not the same as an omitted field.
	for _, quantity := range []int{0, -2} {
		resp = doRequest(t, app, http.MethodPost, "/api/v1/cart/items", requestOpts{
			guestID: guestID,
			body:    map[string]interface{}{"product_id": productID, "quantity": quantity},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "quantity %d", quantity)
		resp.Body.Close()
	}

	// Rejected quantities never touched the cart line.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/cart", requestOpts{guestID: guestID})
	decodeBody(t, resp, &cart)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestGuestCartMergedAtLogin(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Mergeable Mug", 3.00, 9.00, 50)

	guestID := "guest-" + uuid.New().String()
	resp := doRequest(t, app, http.MethodPost, "/api/v1/cart/items", requestOpts{
		guestID: guestID,
		body:    map[string]interface{}{"product_id": productID, "quantity": 3},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Register, then log in while still presenting the guest identity.
	resp = doRequest(t, app, http.MethodPost, "/api/v1/auth/register", requestOpts{body: map[string]string{
		"username": "customer1",
		"email":    "customer1@example.com",
		"password": "password123",
	}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	token := login(t, app, "customer1", "password123", guestID)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/cart", requestOpts{token: token})
	var cart models.Cart
	decodeBody(t, resp, &cart)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, productID, cart.Items[0].ProductID)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	// The guest cart is gone; a fresh request under that guest id gets
	// a brand-new empty cart.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/cart", requestOpts{guestID: guestID})
	var guestCart models.Cart
	decodeBody(t, resp, &guestCart)
	assert.Empty(t, guestCart.Items)
}

func TestOrderStatusWorkflow(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	otherSupplierToken := registerAndLogin(t, app, "supplier2", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Workflow Widget", 10.00, 30.00, 10)

	customerToken := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	resp := doRequest(t, app, http.MethodPost, "/api/v1/orders", requestOpts{
		token: customerToken,
		body: map[string]interface{}{
			"items":            []map[string]interface{}{{"product_id": productID, "quantity": 1}},
			"shipping_address": testShippingAddress(),
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	statusURL := "/api/v1/orders/" + order.ID + "/status"

	// Customers may not drive the workflow.
	resp = doRequest(t, app, http.MethodPatch, statusURL, requestOpts{
		token: customerToken,
		body:  map[string]string{"status": "processing"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// A supplier with no items in the order may not either.
	resp = doRequest(t, app, http.MethodPatch, statusURL, requestOpts{
		token: otherSupplierToken,
		body:  map[string]string{"status": "processing"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Skipping a step is rejected and the status stays put.
	resp = doRequest(t, app, http.MethodPatch, statusURL, requestOpts{
		token: supplierToken,
		body:  map[string]string{"status": "shipped"},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders/"+order.ID, requestOpts{token: customerToken})
	var current models.Order
	decodeBody(t, resp, &current)
	assert.Equal(t, models.OrderStatusPending, current.Status)

	// The owning supplier walks the order forward; the admin finishes.
	for _, step := range []struct {
		token  string
		status string
	}{
		{supplierToken, "processing"},
		{supplierToken, "shipped"},
		{adminToken, "delivered"},
	} {
		resp = doRequest(t, app, http.MethodPatch, statusURL, requestOpts{
			token: step.token,
			body:  map[string]string{"status": step.status},
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode, "transition to %s", step.status)
		resp.Body.Close()
	}

	// Delivered is terminal.
	resp = doRequest(t, app, http.MethodPatch, statusURL, requestOpts{
		token: adminToken,
		body:  map[string]string{"status": "cancelled"},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestCostPriceProjection(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	otherSupplierToken := registerAndLogin(t, app, "supplier2", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Margin Secret", 12.50, 25.00, 5)

	url := "/api/v1/products/" + productID

	// Guests and other suppliers never see cost price.
	resp := doRequest(t, app, http.MethodGet, url, requestOpts{})
	var guestView services.ProductView
	decodeBody(t, resp, &guestView)
	assert.Nil(t, guestView.CostPrice)

	resp = doRequest(t, app, http.MethodGet, url, requestOpts{token: otherSupplierToken})
	var otherView services.ProductView
	decodeBody(t, resp, &otherView)
	assert.Nil(t, otherView.CostPrice)

	// The owner and the admin do.
	resp = doRequest(t, app, http.MethodGet, url, requestOpts{token: supplierToken})
	var ownerView services.ProductView
	decodeBody(t, resp, &ownerView)
	if assert.NotNil(t, ownerView.CostPrice) {
		assert.Equal(t, 12.50, *ownerView.CostPrice)
	}

	resp = doRequest(t, app, http.MethodGet, url, requestOpts{token: adminToken})
	var adminView services.ProductView
	decodeBody(t, resp, &adminView)
	assert.NotNil(t, adminView.CostPrice)
}

func TestOrderListingScopes(t *testing.T) {
	app, err := setupApp()
	assert.NoError(t, err)

	adminToken := login(t, app, "admin", "admin123", "")
	supplierToken := registerAndLogin(t, app, "supplier1", models.RoleSupplier)
	otherSupplierToken := registerAndLogin(t, app, "supplier2", models.RoleSupplier)
	productID := createActiveProduct(t, app, supplierToken, adminToken, "Listed Lamp", 8.00, 18.00, 20)

	customerToken := registerAndLogin(t, app, "customer1", models.RoleCustomer)
	for i := 0; i < 2; i++ {
		resp := doRequest(t, app, http.MethodPost, "/api/v1/orders", requestOpts{
			token: customerToken,
			body: map[string]interface{}{
				"items":            []map[string]interface{}{{"product_id": productID, "quantity": 1}},
				"shipping_address": testShippingAddress(),
			},
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	var page services.OrderPage

	resp := doRequest(t, app, http.MethodGet, "/api/v1/orders", requestOpts{token: customerToken})
	decodeBody(t, resp, &page)
	assert.Equal(t, int64(2), page.TotalItems)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders", requestOpts{token: supplierToken})
	decodeBody(t, resp, &page)
	assert.Equal(t, int64(2), page.TotalItems)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders", requestOpts{token: otherSupplierToken})
	decodeBody(t, resp, &page)
	assert.Zero(t, page.TotalItems)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders", requestOpts{token: adminToken})
	decodeBody(t, resp, &page)
	assert.Equal(t, int64(2), page.TotalItems)

	// Limit clamping flows all the way through the query layer.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/orders?page=1&limit=500", requestOpts{token: adminToken})
	decodeBody(t, resp, &page)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}
