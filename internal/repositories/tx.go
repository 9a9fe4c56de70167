package repositories

import "context"

// TxRepos bundles the repositories scoped to one transaction. Every
// call made through these handles inside TxManager.InTx sees and
// mutates the same transactional state.
type TxRepos struct {
	Products ProductRepository
	Orders   OrderRepository
	Carts    CartRepository
}

// TxManager runs a function inside a single unit of work. If fn returns
// an error the whole transaction rolls back and nothing fn did is
// visible; otherwise it commits. This is the isolation boundary the
// order engine relies on: the read-then-conditional-write sequence in
// fn is only safe because no half-applied result can survive an error.
type TxManager interface {
	InTx(ctx context.Context, fn func(r TxRepos) error) error
}
