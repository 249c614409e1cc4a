// internal/ledger/result.go
package ledger

import (
	"github.com/shopspring/decimal"

	"hubcoin-miner/internal/domain"
)

// RejectReason identifies why the ledger refused an action. Rejections are
// normal return values, not errors: a rejected transaction still responds
// with HTTP 200 and success:false.
type RejectReason string

const (
	ReasonNone                RejectReason = ""
	ReasonAccountNotFound     RejectReason = "account_not_found"
	ReasonInsufficientGems    RejectReason = "insufficient_gems"
	ReasonDailyLimitReached   RejectReason = "daily_limit_reached"
	ReasonInsufficientBalance RejectReason = "insufficient_balance"
)

// ClaimResult is the outcome of a gem-claim transaction.
type ClaimResult struct {
	Reason        RejectReason
	Message       string
	Gems          int64
	UnclaimedGems int64
}

// OK reports whether the claim was applied.
func (r *ClaimResult) OK() bool { return r.Reason == ReasonNone }

// WithdrawResult is the outcome of a withdrawal transaction.
type WithdrawResult struct {
	Reason  RejectReason
	Message string
	Balance decimal.Decimal
	Gems    int64
	Request *domain.WithdrawalRequest // set only on success
}

// OK reports whether the withdrawal was applied.
func (r *WithdrawResult) OK() bool { return r.Reason == ReasonNone }
