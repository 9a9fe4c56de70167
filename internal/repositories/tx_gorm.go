package repositories

import (
	"context"

	"gorm.io/gorm"
)

// GORMTxManager implements TxManager on top of GORM's callback
// transactions: fn receives repositories bound to the transaction
// handle, commit happens when fn returns nil, rollback on error or
// panic.
type GORMTxManager struct {
	db *gorm.DB
}

// NewGORMTxManager creates a new instance of GORMTxManager.
func NewGORMTxManager(db *gorm.DB) *GORMTxManager {
	return &GORMTxManager{
		db: db,
	}
}

// InTx runs fn inside one database transaction.
func (m *GORMTxManager) InTx(ctx context.Context, fn func(r TxRepos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepos{
			Products: NewGORMProductRepository(tx),
			Orders:   NewGORMOrderRepository(tx),
			Carts:    NewGORMCartRepository(tx),
		})
	})
}
