package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

type fakeBeginner struct {
	txs []*fakeTx
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestWithTx_ReplaysDeadlockVictim(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, func(pgx.Tx) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, b.txs, 2)
	assert.False(t, b.txs[0].committed)
	assert.True(t, b.txs[1].committed)
}

func TestWithTx_GivesUpAfterMaxAttempts(t *testing.T) {
	b := &fakeBeginner{}
	err := WithTx(context.Background(), b, func(pgx.Tx) error {
		return &pgconn.PgError{Code: "40001"}
	})
	assert.True(t, IsRetryable(err))
	assert.Len(t, b.txs, MaxTxAttempts)
	for _, tx := range b.txs {
		assert.False(t, tx.committed)
	}
}

func TestWithTx_DomainErrorIsNotRetried(t *testing.T) {
	b := &fakeBeginner{}
	boom := errors.New("insufficient")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Len(t, b.txs, 1)
	assert.True(t, b.txs[0].rolledBack)
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyViolation(errors.New("23503")))
}
