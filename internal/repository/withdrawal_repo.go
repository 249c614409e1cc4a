// internal/repository/withdrawal_repo.go
package repository

import (
	"context"

	"hubcoin-miner/internal/domain"
)

// WithdrawalRepository defines the interface for withdrawal-request data
// operations. Requests are append-only; no update or delete methods exist.
type WithdrawalRepository interface {
	// CreateWithdrawal inserts a pending request and fills in the
	// store-assigned ID and timestamp.
	CreateWithdrawal(ctx context.Context, q DBExecutor, w *domain.WithdrawalRequest) error
}
