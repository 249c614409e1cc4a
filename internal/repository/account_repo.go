// internal/repository/account_repo.go
package repository

import (
	"context"

	"hubcoin-miner/internal/domain"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data operations.
// Every method takes a DBExecutor so mutable counters are always read and
// written through the transaction the caller controls.
type AccountRepository interface {
	// CreateAccount inserts a new zeroed account record.
	CreateAccount(ctx context.Context, q DBExecutor, acct *domain.Account) error
	// GetAccountByID retrieves an account without locking it.
	GetAccountByID(ctx context.Context, q DBExecutor, userID string) (*domain.Account, error)
	// GetAccountForUpdate retrieves an account and locks its row for the
	// duration of the enclosing transaction.
	GetAccountForUpdate(ctx context.Context, q DBExecutor, userID string) (*domain.Account, error)
	// UpdateAccountCounters persists the mutable counter fields of acct.
	UpdateAccountCounters(ctx context.Context, q DBExecutor, acct *domain.Account) error
	// CreditReferral atomically applies the referral reward to the referrer.
	CreditReferral(ctx context.Context, q DBExecutor, referrerID string, bonus decimal.Decimal, gems int64) error
	// ListTopByBalance returns the highest-balance accounts for the leaderboard.
	ListTopByBalance(ctx context.Context, q DBExecutor, limit int) ([]domain.LeaderboardEntry, error)
}
