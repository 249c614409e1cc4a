// internal/util/errors.go
package util

import "errors"

// Common application-specific errors. Policy rejections (insufficient gems,
// daily limit, insufficient balance) are NOT errors: the ledger returns them
// as outcome values. Only validation and infrastructure failures live here.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input provided")
	ErrAccountNotFound = errors.New("account not found")
)

// IsError reports whether err wraps target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
