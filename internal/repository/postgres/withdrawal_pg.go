// internal/repository/postgres/withdrawal_pg.go
package postgres

import (
	"context"
	"fmt"

	"hubcoin-miner/internal/domain"
	"hubcoin-miner/internal/repository"

	"github.com/jmoiron/sqlx"
)

// WithdrawalRepository implements repository.WithdrawalRepository for PostgreSQL.
type WithdrawalRepository struct {
	// Stateless; methods receive a DBExecutor directly.
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(db *sqlx.DB) repository.WithdrawalRepository {
	return &WithdrawalRepository{}
}

// CreateWithdrawal inserts a pending withdrawal request. The store assigns
// both the ID and the timestamp; they are scanned back into w.
func (r *WithdrawalRepository) CreateWithdrawal(ctx context.Context, q repository.DBExecutor, w *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (user_id, amount, method, account, status)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := q.QueryRowContext(ctx, query,
		w.UserID,
		w.Amount,
		w.Method,
		w.Account,
		w.Status,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request for %s: %w", w.UserID, err)
	}
	return nil
}
