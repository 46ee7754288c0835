package services

import "context"

// TxRunner runs a function inside a database transaction. Satisfied by
// *database.DB; tests substitute a pass-through implementation.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
