// internal/ledger/service.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hubcoin-miner/internal/domain"
	"hubcoin-miner/internal/repository"
	"hubcoin-miner/internal/util"
	"hubcoin-miner/pkg/db"
)

const dateLayout = "2006-01-02"

// Notifier delivers a message to a user identifier. Delivery is best-effort:
// the ledger logs failures and never lets them affect a transaction outcome.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// LedgerService defines the account-ledger business logic: account lifecycle,
// gem claims, referral rewards and withdrawals.
type LedgerService interface {
	// GetOrCreateAccount returns the account for userID, creating a zeroed
	// record on first contact. The bool reports whether a record was created.
	GetOrCreateAccount(ctx context.Context, userID, username, referrerID string) (*domain.Account, bool, error)
	// ClaimGems converts one claim unit of unclaimed gems, subject to the
	// daily cap.
	ClaimGems(ctx context.Context, userID string) (*ClaimResult, error)
	// Withdraw debits balance and gems and records a pending withdrawal request.
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal, method, account string) (*WithdrawResult, error)
	// Leaderboard returns the current top accounts by balance.
	Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner     db.DBTxBeginner       // For starting store transactions (e.g. *sqlx.DB)
	dbExecutor     repository.DBExecutor // For non-transactional reads
	accountRepo    repository.AccountRepository
	withdrawalRepo repository.WithdrawalRepository
	beginTx        db.BeginTxFunc
	commitTx       db.CommitTxFunc
	rollbackTx     db.RollbackTxFunc
	policy         Policy
	notifier       Notifier
	logger         *slog.Logger
	now            func() time.Time // injectable clock for day-rollover tests
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	withdrawalRepo repository.WithdrawalRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	policy Policy,
	notifier Notifier,
	logger *slog.Logger,
) LedgerService {
	return &ledgerService{
		dbBeginner:     dbBeginner,
		dbExecutor:     dbExecutor,
		accountRepo:    accountRepo,
		withdrawalRepo: withdrawalRepo,
		beginTx:        beginTx,
		commitTx:       commitTx,
		rollbackTx:     rollbackTx,
		policy:         policy,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
}

// GetOrCreateAccount looks up the account and lazily creates it on first
// contact. Creation writes the store exactly once; repeated calls for an
// existing user perform no mutation. A valid non-self referrer on a
// brand-new account triggers the referral reward after creation commits.
func (s *ledgerService) GetOrCreateAccount(ctx context.Context, userID, username, referrerID string) (*domain.Account, bool, error) {
	if userID == "" {
		return nil, false, util.ErrInvalidInput
	}
	if username == "" {
		username = "N/A"
	}

	// Self-referral is forbidden; an invalid referrer simply means no reward.
	var referredBy *string
	if referrerID != "" && referrerID != userID {
		ref := referrerID
		referredBy = &ref
	}

	var acct *domain.Account
	created := false
	err := db.RunInTx(ctx, s.dbBeginner, s.beginTx, s.commitTx, s.rollbackTx, func(tx db.TxController) error {
		acct, created = nil, false
		q, ok := tx.(repository.DBExecutor)
		if !ok {
			return fmt.Errorf("get or create account: transaction controller does not implement DBExecutor")
		}

		existing, err := s.accountRepo.GetAccountByID(ctx, q, userID)
		if err == nil {
			acct = existing
			return nil
		}
		if !errors.Is(err, util.ErrAccountNotFound) {
			return fmt.Errorf("get or create account: failed to get account: %w", err)
		}

		today := s.now().UTC().Format(dateLayout)
		acct = domain.NewAccount(userID, username, today, referredBy)
		if err := s.accountRepo.CreateAccount(ctx, q, acct); err != nil {
			return fmt.Errorf("get or create account: failed to create account: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		// Two first contacts can race on the insert; the loser re-reads the
		// winner's record and reports it as existing.
		if db.IsUniqueViolation(err) {
			existing, getErr := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, userID)
			if getErr != nil {
				return nil, false, fmt.Errorf("get or create account: failed to re-read account: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	if created && referredBy != nil {
		s.rewardReferrer(ctx, *referredBy, username)
	}

	return acct, created, nil
}

// rewardReferrer credits the referrer for a brand-new referred account and
// notifies them. Crediting is best-effort: any failure is logged and never
// surfaced to the referred user or allowed to roll back account creation.
func (s *ledgerService) rewardReferrer(ctx context.Context, referrerID, referredName string) {
	err := db.RunInTx(ctx, s.dbBeginner, s.beginTx, s.commitTx, s.rollbackTx, func(tx db.TxController) error {
		q, ok := tx.(repository.DBExecutor)
		if !ok {
			return fmt.Errorf("reward referrer: transaction controller does not implement DBExecutor")
		}
		return s.accountRepo.CreditReferral(ctx, q, referrerID, s.policy.ReferralBonus, s.policy.ReferralGems)
	})
	if err != nil {
		s.logger.Error("Failed to credit referral reward", "referrer_id", referrerID, "error", err)
		return
	}

	message := fmt.Sprintf("🎉 Congratulations! %s joined using your link. You received %s TK and %d Gems!",
		referredName, s.policy.ReferralBonus.String(), s.policy.ReferralGems)
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Notify(notifyCtx, referrerID, message); err != nil {
			s.logger.Warn("Failed to notify referrer", "referrer_id", referrerID, "error", err)
		}
	}()
}

// ClaimGems runs the gem-claim transaction. The day rollover is applied and
// persisted inside the same transaction as the limit check, and committed
// even when the claim itself is rejected, so two claims straddling midnight
// cannot both observe a stale counter.
func (s *ledgerService) ClaimGems(ctx context.Context, userID string) (*ClaimResult, error) {
	if userID == "" {
		return nil, util.ErrInvalidInput
	}

	var res *ClaimResult
	err := db.RunInTx(ctx, s.dbBeginner, s.beginTx, s.commitTx, s.rollbackTx, func(tx db.TxController) error {
		res = nil
		q, ok := tx.(repository.DBExecutor)
		if !ok {
			return fmt.Errorf("claim gems: transaction controller does not implement DBExecutor")
		}

		acct, err := s.accountRepo.GetAccountForUpdate(ctx, q, userID)
		if errors.Is(err, util.ErrAccountNotFound) {
			res = &ClaimResult{Reason: ReasonAccountNotFound, Message: "Account not found."}
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim gems: %w", err)
		}

		// Derived per attempt, not cached at process start: a retried body
		// may straddle a day boundary.
		today := s.now().UTC().Format(dateLayout)
		if acct.LastGemClaimDate != today {
			acct.GemsClaimedToday = 0
			acct.LastGemClaimDate = today
			if err := s.accountRepo.UpdateAccountCounters(ctx, q, acct); err != nil {
				return fmt.Errorf("claim gems: failed to reset daily counter: %w", err)
			}
		}

		if acct.UnclaimedGems < s.policy.ClaimUnit {
			// Commit anyway so the rollover write above survives.
			res = &ClaimResult{
				Reason:        ReasonInsufficientGems,
				Message:       fmt.Sprintf("You need at least %d unclaimed gems.", s.policy.ClaimUnit),
				Gems:          acct.Gems,
				UnclaimedGems: acct.UnclaimedGems,
			}
			return nil
		}
		if acct.GemsClaimedToday >= s.policy.DailyGemCap {
			res = &ClaimResult{
				Reason:        ReasonDailyLimitReached,
				Message:       "Daily claim limit reached. Come back tomorrow!",
				Gems:          acct.Gems,
				UnclaimedGems: acct.UnclaimedGems,
			}
			return nil
		}

		acct.Gems += s.policy.ClaimUnit
		acct.UnclaimedGems -= s.policy.ClaimUnit
		acct.GemsClaimedToday += s.policy.ClaimUnit
		if err := s.accountRepo.UpdateAccountCounters(ctx, q, acct); err != nil {
			return fmt.Errorf("claim gems: failed to apply claim: %w", err)
		}

		res = &ClaimResult{
			Message:       fmt.Sprintf("%d gems claimed!", s.policy.ClaimUnit),
			Gems:          acct.Gems,
			UnclaimedGems: acct.UnclaimedGems,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Withdraw runs the withdrawal transaction: balance and gems are debited and
// exactly one pending WithdrawalRequest is recorded, atomically.
func (s *ledgerService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, method, account string) (*WithdrawResult, error) {
	// Validation happens before any store access.
	if userID == "" || method == "" || account == "" {
		return nil, util.ErrInvalidInput
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidInput
	}

	requiredGems := s.policy.RequiredGems(amount)

	var res *WithdrawResult
	err := db.RunInTx(ctx, s.dbBeginner, s.beginTx, s.commitTx, s.rollbackTx, func(tx db.TxController) error {
		res = nil
		q, ok := tx.(repository.DBExecutor)
		if !ok {
			return fmt.Errorf("withdraw: transaction controller does not implement DBExecutor")
		}

		acct, err := s.accountRepo.GetAccountForUpdate(ctx, q, userID)
		if errors.Is(err, util.ErrAccountNotFound) {
			res = &WithdrawResult{Reason: ReasonAccountNotFound, Message: "Account not found."}
			return nil
		}
		if err != nil {
			return fmt.Errorf("withdraw: %w", err)
		}

		if acct.Balance.LessThan(amount) {
			res = &WithdrawResult{
				Reason:  ReasonInsufficientBalance,
				Message: "Insufficient balance.",
				Balance: acct.Balance,
				Gems:    acct.Gems,
			}
			return nil
		}
		if acct.Gems < requiredGems {
			res = &WithdrawResult{
				Reason:  ReasonInsufficientGems,
				Message: fmt.Sprintf("You need %d gems for this withdrawal.", requiredGems),
				Balance: acct.Balance,
				Gems:    acct.Gems,
			}
			return nil
		}

		acct.Balance = acct.Balance.Sub(amount)
		acct.Gems -= requiredGems
		acct.TotalWithdrawn = acct.TotalWithdrawn.Add(amount)
		if err := s.accountRepo.UpdateAccountCounters(ctx, q, acct); err != nil {
			return fmt.Errorf("withdraw: failed to debit account: %w", err)
		}

		request := domain.NewWithdrawalRequest(userID, amount, method, account)
		if err := s.withdrawalRepo.CreateWithdrawal(ctx, q, request); err != nil {
			return fmt.Errorf("withdraw: failed to create withdrawal request: %w", err)
		}

		res = &WithdrawResult{
			Message: "Withdrawal request submitted.",
			Balance: acct.Balance,
			Gems:    acct.Gems,
			Request: request,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Leaderboard returns the current top accounts by balance. Callers are
// expected to serve a cached copy; this is the recompute path.
func (s *ledgerService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.accountRepo.ListTopByBalance(ctx, s.dbExecutor, s.policy.LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}
