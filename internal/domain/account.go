// internal/domain/account.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Account is the per-user persistent record of balances and counters.
// UserID is the string form of the Telegram numeric ID and never changes.
type Account struct {
	UserID           string          `db:"user_id" json:"user_id"`
	Username         string          `db:"username" json:"username"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`                       // NUMERIC(20, 4) in DB
	Gems             int64           `db:"gems" json:"gems"`                             // Claimed/confirmed gem count
	UnclaimedGems    int64           `db:"unclaimed_gems" json:"unclaimedGems"`          // Earned but not yet converted
	Refs             int64           `db:"refs" json:"refs"`                             // Successful referral count
	AdWatch          int64           `db:"ad_watch" json:"adWatch"`                      // Ad-view credit counter, passive
	TodayIncome      decimal.Decimal `db:"today_income" json:"todayIncome"`              // Informational
	GemsClaimedToday int64           `db:"gems_claimed_today" json:"gemsClaimedToday"`   // Valid for LastGemClaimDate only
	LastGemClaimDate string          `db:"last_gem_claim_date" json:"lastGemClaimDate"`  // UTC date string, YYYY-MM-DD
	TotalWithdrawn   decimal.Decimal `db:"total_withdrawn" json:"totalWithdrawn"`        // Cumulative
	ReferredBy       *string         `db:"referred_by" json:"referredBy"`                // Set once at creation, never mutated
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// NewAccount creates a zeroed Account for a first contact.
// referredBy must already be validated against self-referral by the caller.
func NewAccount(userID, username, claimDate string, referredBy *string) *Account {
	now := time.Now().UTC()
	return &Account{
		UserID:           userID,
		Username:         username,
		Balance:          decimal.Zero,
		TodayIncome:      decimal.Zero,
		TotalWithdrawn:   decimal.Zero,
		LastGemClaimDate: claimDate,
		ReferredBy:       referredBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// LeaderboardEntry is a single row of the precomputed leaderboard payload.
type LeaderboardEntry struct {
	UserID   string          `db:"user_id" json:"user_id"`
	Username string          `db:"username" json:"username"`
	Balance  decimal.Decimal `db:"balance" json:"balance"`
	Refs     int64           `db:"refs" json:"refs"`
}
