// pkg/db/transaction_manager.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TxController defines methods for controlling a database transaction.
// *sqlx.Tx implicitly implements this interface.
type TxController interface {
	Commit() error
	Rollback() error
}

// DBTxBeginner defines the interface for beginning transactions.
// *sqlx.DB implements this.
type DBTxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// BeginTxFunc begins a transaction against the account store.
type BeginTxFunc func(ctx context.Context, dbConn DBTxBeginner) (TxController, error)

// CommitTxFunc commits a transaction.
type CommitTxFunc func(tx TxController) error

// RollbackTxFunc rolls back a transaction; safe to defer after a commit.
type RollbackTxFunc func(tx TxController)

// BeginTx starts a new database transaction.
func BeginTx(ctx context.Context, dbConn DBTxBeginner) (TxController, error) {
	tx, err := dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CommitTx commits the transaction.
func CommitTx(tx TxController) error {
	return tx.Commit()
}

// RollbackTx rolls back the transaction.
func RollbackTx(tx TxController) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		fmt.Printf("Error rolling back transaction: %v\n", err)
	}
}

// IsUniqueViolation reports whether err is a unique-constraint violation
// (23505), e.g. two first contacts racing to create the same account.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// txRetryBudget bounds transparent retries of a conflicting transaction body.
const txRetryBudget = 3

// IsRetryableTxError reports whether err is a transient conflict the store
// resolves by re-running the transaction body: serialization failure (40001)
// or deadlock detected (40P01).
func IsRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// RunInTx executes body inside a transaction, committing on a nil return and
// re-running the whole body on transient conflicts until the retry budget is
// exhausted. Reads of mutable counters must happen inside body: a retried
// body observes the state left by the conflicting committed transaction.
func RunInTx(ctx context.Context, dbConn DBTxBeginner, begin BeginTxFunc, commit CommitTxFunc, rollback RollbackTxFunc, body func(tx TxController) error) error {
	var lastErr error
	for attempt := 0; attempt < txRetryBudget; attempt++ {
		tx, err := begin(ctx, dbConn)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := body(tx); err != nil {
			rollback(tx)
			if IsRetryableTxError(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := commit(tx); err != nil {
			rollback(tx)
			if IsRetryableTxError(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
	return fmt.Errorf("transaction retry budget exhausted: %w", lastErr)
}
