// internal/ledger/policy_test.go
package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRequiredGems(t *testing.T) {
	tests := []struct {
		name   string
		rate   decimal.Decimal
		amount decimal.Decimal
		want   int64
	}{
		{"UnitRate", decimal.NewFromInt(1), decimal.NewFromInt(20), 20},
		{"DoubleRate", decimal.NewFromInt(2), decimal.NewFromInt(20), 40},
		{"FractionalRateRoundsUp", decimal.NewFromFloat(0.5), decimal.NewFromInt(25), 13},
		{"FractionalAmountRoundsUp", decimal.NewFromInt(1), decimal.NewFromFloat(19.01), 20},
		{"ZeroAmount", decimal.NewFromInt(1), decimal.Zero, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			p.GemsPerCurrency = tt.rate
			assert.Equal(t, tt.want, p.RequiredGems(tt.amount))
		})
	}
}
