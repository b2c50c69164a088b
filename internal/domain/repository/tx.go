package repository

import "context"

// TxManager runs a function inside a single database transaction. The
// transaction is carried through the context so repository implementations
// can join it transparently; a returned error rolls everything back.
//
// One simulation run's writes (RiskResult, property risk fields, optional
// history row) must commit through a single InTransaction call.
type TxManager interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
