package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noteModel struct {
	ID   uint `gorm:"primaryKey"`
	Text string
}

func newTestSession(t *testing.T) (*Session, *gorm.DB) {
	t.Helper()
	db, err := Connect(Config{
		Driver:     DriverSQLite,
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&noteModel{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewSession(db), db
}

func countNotes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&noteModel{}).Count(&n).Error)
	return n
}

func TestSession_TransactionCommits(t *testing.T) {
	s, db := newTestSession(t)

	err := s.Transaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&noteModel{Text: "a"}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countNotes(t, db))
}

func TestSession_AtomicallyRollsBackJoinedTransactions(t *testing.T) {
	s, db := newTestSession(t)
	boom := errors.New("boom")

	err := s.Atomically(context.Background(), func(ctx context.Context) error {
		if err := s.Transaction(ctx, func(tx *gorm.DB) error {
			return tx.Create(&noteModel{Text: "a"}).Error
		}); err != nil {
			return err
		}
		inner, err := s.DB(ctx)
		if err != nil {
			return err
		}
		if err := inner.Create(&noteModel{Text: "b"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, countNotes(t, db))
}

func TestSession_TxFromContext(t *testing.T) {
	_, ok := TxFromContext(context.Background())
	assert.False(t, ok)

	_, db := newTestSession(t)
	tx, ok := TxFromContext(WithTx(context.Background(), db))
	assert.True(t, ok)
	assert.Same(t, db, tx)
}

func TestSession_Close(t *testing.T) {
	s, db := newTestSession(t)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.DB(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	err = s.Transaction(context.Background(), func(*gorm.DB) error { return nil })
	assert.ErrorIs(t, err, ErrSessionClosed)

	// The shared pool stays usable for other sessions.
	other := NewSession(db)
	err = other.Transaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&noteModel{Text: "still open"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countNotes(t, db))
}
