package database

import (
	"context"
	"errors"
	"sync/atomic"

	"gorm.io/gorm"
)

// ErrSessionClosed is returned by every operation on a closed Session.
var ErrSessionClosed = errors.New("database session is closed")

type txKey struct{}

// WithTx stores a running transaction in the context so nested repository calls join it.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext extracts the running transaction, if any.
func TxFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	if !ok || tx == nil {
		return nil, false
	}
	return tx, true
}

// Session is the store handle owned by one repository instance. Closing it ends the
// session without closing the shared connection pool it was created from.
type Session struct {
	db     *gorm.DB
	closed atomic.Bool
}

// NewSession scopes a new session on top of a shared gorm handle.
func NewSession(db *gorm.DB) *Session {
	return &Session{db: db.Session(&gorm.Session{NewDB: true})}
}

// DB returns the transaction carried by ctx, or a context-bound handle for reads.
func (s *Session) DB(ctx context.Context) (*gorm.DB, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if tx, ok := TxFromContext(ctx); ok {
		return tx, nil
	}
	return s.db.WithContext(ctx), nil
}

// Transaction runs fn inside one store transaction. A transaction already carried by
// ctx is joined, and only its owner commits or rolls back.
func (s *Session) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if tx, ok := TxFromContext(ctx); ok {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// Atomically runs fn with a context carrying one transaction, so several repository
// calls commit or roll back together.
func (s *Session) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Transaction(ctx, func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// Close ends the session. It is idempotent.
func (s *Session) Close() error {
	s.closed.Store(true)
	return nil
}
