// internal/domain/withdrawal.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus defines the lifecycle status of a withdrawal request.
type WithdrawalStatus string

const (
	// WithdrawalStatusPending is the only status assigned by this system;
	// an out-of-scope administrative process moves a request beyond it.
	WithdrawalStatusPending WithdrawalStatus = "pending"
)

// WithdrawalRequest records a submitted withdrawal. It is append-only:
// after creation only Status may ever change, and not by this system.
type WithdrawalRequest struct {
	ID        int64            `db:"id" json:"id"` // Primary key, BIGSERIAL in DB
	UserID    string           `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal  `db:"amount" json:"amount"` // NUMERIC(20, 4) in DB, > 0
	Method    string           `db:"method" json:"method"`
	Account   string           `db:"account" json:"account"` // Destination descriptor
	Status    WithdrawalStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"` // Store-assigned timestamp
}

// NewWithdrawalRequest creates a pending WithdrawalRequest. ID and CreatedAt
// are assigned by the store on insert.
func NewWithdrawalRequest(userID string, amount decimal.Decimal, method, account string) *WithdrawalRequest {
	return &WithdrawalRequest{
		UserID:  userID,
		Amount:  amount,
		Method:  method,
		Account: account,
		Status:  WithdrawalStatusPending,
	}
}
