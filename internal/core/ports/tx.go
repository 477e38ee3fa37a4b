package ports

import "context"

// Transactor runs fn inside one store transaction. Repositories called with the
// ctx handed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
