package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactionManager runs a function inside one database transaction.
// The transaction handle travels in the context, so every repository call
// made within the function operates on the same transaction: intra-call
// reads observe earlier writes, and an error rolls all of them back.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager.
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction begins a transaction, runs fn with the transaction bound
// to the context, and commits. Any error from fn rolls the transaction back
// and is returned unchanged.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to the context, or the fallback
// connection when the call is not transactional.
func conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
