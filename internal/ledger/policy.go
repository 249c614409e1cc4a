// internal/ledger/policy.go
package ledger

import "github.com/shopspring/decimal"

// Policy holds the business constants of the incentive economy. They are
// fixed in production but injectable so tests can override them.
type Policy struct {
	ClaimUnit       int64           // gems converted from unclaimed to confirmed per successful claim
	DailyGemCap     int64           // max gems claimable per UTC calendar day
	ReferralBonus   decimal.Decimal // currency credited to the referrer per new referral
	ReferralGems    int64           // unclaimed gems credited to the referrer per new referral
	GemsPerCurrency decimal.Decimal // withdrawal exchange rate: gems consumed per currency unit
	LeaderboardSize int             // rows in the precomputed leaderboard
}

// DefaultPolicy returns the production policy values.
func DefaultPolicy() Policy {
	return Policy{
		ClaimUnit:       2,
		DailyGemCap:     6,
		ReferralBonus:   decimal.NewFromInt(25),
		ReferralGems:    2,
		GemsPerCurrency: decimal.NewFromInt(1),
		LeaderboardSize: 100,
	}
}

// RequiredGems maps a withdrawal amount to the gem count it consumes.
// The rate is an external business input, not derived here; fractional
// results round up so a withdrawal never costs fewer gems than the rate
// implies.
func (p Policy) RequiredGems(amount decimal.Decimal) int64 {
	return amount.Mul(p.GemsPerCurrency).Ceil().IntPart()
}
