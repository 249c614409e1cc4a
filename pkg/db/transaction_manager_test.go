// pkg/db/transaction_manager_test.go
package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	commits   int
	rollbacks int
	commitErr error
}

func (f *fakeTx) Commit() error {
	f.commits++
	return f.commitErr
}

func (f *fakeTx) Rollback() error {
	f.rollbacks++
	return nil
}

func passthroughFuncs(tx *fakeTx) (BeginTxFunc, CommitTxFunc, RollbackTxFunc) {
	begin := func(ctx context.Context, dbConn DBTxBeginner) (TxController, error) {
		return tx, nil
	}
	commit := func(t TxController) error { return t.Commit() }
	rollback := func(t TxController) { _ = t.Rollback() }
	return begin, commit, rollback
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, IsRetryableTxError(&pq.Error{Code: "40001"}))
	assert.True(t, IsRetryableTxError(&pq.Error{Code: "40P01"}))
	assert.True(t, IsRetryableTxError(fmt.Errorf("update: %w", &pq.Error{Code: "40001"})))
	assert.False(t, IsRetryableTxError(&pq.Error{Code: "23505"}))
	assert.False(t, IsRetryableTxError(errors.New("plain")))
	assert.False(t, IsRetryableTxError(nil))
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitsOnNilBodyReturn", func(t *testing.T) {
		tx := &fakeTx{}
		begin, commit, rollback := passthroughFuncs(tx)

		calls := 0
		err := RunInTx(ctx, nil, begin, commit, rollback, func(TxController) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, tx.commits)
		assert.Equal(t, 0, tx.rollbacks)
	})

	t.Run("RollsBackAndReturnsBodyError", func(t *testing.T) {
		tx := &fakeTx{}
		begin, commit, rollback := passthroughFuncs(tx)

		bodyErr := errors.New("body failed")
		err := RunInTx(ctx, nil, begin, commit, rollback, func(TxController) error {
			return bodyErr
		})

		assert.ErrorIs(t, err, bodyErr)
		assert.Equal(t, 0, tx.commits)
		assert.Equal(t, 1, tx.rollbacks)
	})

	t.Run("RetriesSerializationFailures", func(t *testing.T) {
		tx := &fakeTx{}
		begin, commit, rollback := passthroughFuncs(tx)

		calls := 0
		err := RunInTx(ctx, nil, begin, commit, rollback, func(TxController) error {
			calls++
			if calls < 3 {
				return &pq.Error{Code: "40001"}
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 1, tx.commits)
		assert.Equal(t, 2, tx.rollbacks)
	})

	t.Run("GivesUpAfterRetryBudget", func(t *testing.T) {
		tx := &fakeTx{}
		begin, commit, rollback := passthroughFuncs(tx)

		calls := 0
		err := RunInTx(ctx, nil, begin, commit, rollback, func(TxController) error {
			calls++
			return &pq.Error{Code: "40P01"}
		})

		require.Error(t, err)
		assert.Equal(t, txRetryBudget, calls)
		assert.Contains(t, err.Error(), "retry budget exhausted")
	})

	t.Run("RetriesCommitConflicts", func(t *testing.T) {
		tx := &fakeTx{commitErr: &pq.Error{Code: "40001"}}
		begin, commit, rollback := passthroughFuncs(tx)

		calls := 0
		err := RunInTx(ctx, nil, begin, commit, rollback, func(TxController) error {
			calls++
			if calls == 2 {
				tx.commitErr = nil
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("NonRetryableCommitErrorIsFatal", func(t *testing.T) {
		tx := &fakeTx{commitErr: errors.New("connection lost")}
		begin, commit, rollback := passthroughFuncs(tx)

		err := RunInTx(ctx, nil, begin, commit, rollback, func(TxController) error {
			return nil
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit transaction")
		assert.Equal(t, 1, tx.rollbacks)
	})
}
