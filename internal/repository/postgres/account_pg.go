// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hubcoin-miner/internal/domain"
	"hubcoin-miner/internal/repository"
	"hubcoin-miner/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const accountColumns = `user_id, username, balance, gems, unclaimed_gems, refs, ad_watch,
	today_income, gems_claimed_today, last_gem_claim_date, total_withdrawn, referred_by,
	created_at, updated_at`

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct {
	// Stateless; methods receive a DBExecutor directly.
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &AccountRepository{}
}

// CreateAccount inserts a new account record using the provided DBExecutor.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, acct *domain.Account) error {
	query := `INSERT INTO accounts (user_id, username, balance, gems, unclaimed_gems, refs, ad_watch,
	              today_income, gems_claimed_today, last_gem_claim_date, total_withdrawn, referred_by,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := q.ExecContext(ctx, query,
		acct.UserID,
		acct.Username,
		acct.Balance,
		acct.Gems,
		acct.UnclaimedGems,
		acct.Refs,
		acct.AdWatch,
		acct.TodayIncome,
		acct.GemsClaimedToday,
		acct.LastGemClaimDate,
		acct.TotalWithdrawn,
		acct.ReferredBy,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", acct.UserID, err)
	}
	return nil
}

// GetAccountByID retrieves an account by user ID using the provided DBExecutor.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, userID string) (*domain.Account, error) {
	var acct domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	err := q.GetContext(ctx, &acct, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	return &acct, nil
}

// GetAccountForUpdate retrieves an account and takes a row lock held until the
// enclosing transaction commits, serializing concurrent mutations of the same
// document.
func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, q repository.DBExecutor, userID string) (*domain.Account, error) {
	var acct domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &acct, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account %s: %w", userID, err)
	}
	return &acct, nil
}

// UpdateAccountCounters persists the mutable counter fields of acct.
func (r *AccountRepository) UpdateAccountCounters(ctx context.Context, q repository.DBExecutor, acct *domain.Account) error {
	query := `UPDATE accounts
	          SET username = $1, balance = $2, gems = $3, unclaimed_gems = $4, refs = $5,
	              ad_watch = $6, today_income = $7, gems_claimed_today = $8,
	              last_gem_claim_date = $9, total_withdrawn = $10, updated_at = $11
	          WHERE user_id = $12`
	result, err := q.ExecContext(ctx, query,
		acct.Username,
		acct.Balance,
		acct.Gems,
		acct.UnclaimedGems,
		acct.Refs,
		acct.AdWatch,
		acct.TodayIncome,
		acct.GemsClaimedToday,
		acct.LastGemClaimDate,
		acct.TotalWithdrawn,
		time.Now().UTC(),
		acct.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", acct.UserID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected updating account %s: %w", acct.UserID, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}

// CreditReferral applies the referral reward to the referrer in one statement.
func (r *AccountRepository) CreditReferral(ctx context.Context, q repository.DBExecutor, referrerID string, bonus decimal.Decimal, gems int64) error {
	query := `UPDATE accounts
	          SET balance = balance + $1, unclaimed_gems = unclaimed_gems + $2, refs = refs + 1,
	              updated_at = $3
	          WHERE user_id = $4`
	result, err := q.ExecContext(ctx, query, bonus, gems, time.Now().UTC(), referrerID)
	if err != nil {
		return fmt.Errorf("failed to credit referral to %s: %w", referrerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected crediting referral to %s: %w", referrerID, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}

// ListTopByBalance returns the highest-balance accounts for the leaderboard.
func (r *AccountRepository) ListTopByBalance(ctx context.Context, q repository.DBExecutor, limit int) ([]domain.LeaderboardEntry, error) {
	entries := []domain.LeaderboardEntry{}
	query := `SELECT user_id, username, balance, refs FROM accounts
	          ORDER BY balance DESC, user_id ASC LIMIT $1`
	if err := q.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list top accounts: %w", err)
	}
	return entries, nil
}
