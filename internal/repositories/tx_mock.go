package repositories

import (
	"context"
	"sync"
)

// MockTxManager implements TxManager over the in-memory mock
// repositories. Transactions are serialized by a single mutex and
// rollback is implemented by snapshotting each store before fn runs and
// restoring it when fn fails. Coarse, but it gives service tests the
// same all-or-nothing semantics the database provides.
type MockTxManager struct {
	mu       sync.Mutex
	products *MockProductRepository
	orders   *MockOrderRepository
	carts    *MockCartRepository
}

// NewMockTxManager creates a MockTxManager over the given mock stores.
func NewMockTxManager(products *MockProductRepository, orders *MockOrderRepository, carts *MockCartRepository) *MockTxManager {
	return &MockTxManager{
		products: products,
		orders:   orders,
		carts:    carts,
	}
}

// InTx runs fn against the mock stores, rolling all of them back when
// fn returns an error.
func (m *MockTxManager) InTx(ctx context.Context, fn func(r TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	productState := m.products.snapshot()
	orderState := m.orders.snapshot()
	cartState := m.carts.snapshot()

	err := fn(TxRepos{
		Products: m.products,
		Orders:   m.orders,
		Carts:    m.carts,
	})
	if err != nil {
		m.products.restore(productState)
		m.orders.restore(orderState)
		m.carts.restore(cartState)
		return err
	}
	return nil
}
