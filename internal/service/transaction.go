package service

import "context"

// TransactionManager makes the order update and its payment log entry land
// together. fn receives a context carrying the transaction; repositories
// called with it take part in the same commit or rollback.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
