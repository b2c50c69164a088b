package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/urbanyield/riskengine/internal/domain/repository"
	"github.com/urbanyield/riskengine/pkg/constants"
)

type txManager struct {
	db *gorm.DB
}

// NewTxManager creates a gorm-backed transaction manager. The open
// transaction travels through the context so the repositories join it
// transparently.
func NewTxManager(db *gorm.DB) repository.TxManager {
	return &txManager{db: db}
}

func (m *txManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, constants.ContextKeyTx, tx))
	})
}

// dbFrom returns the transaction carried by the context, or the fallback
// connection.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(constants.ContextKeyTx).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
