// internal/api/handler/ledger.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"hubcoin-miner/internal/domain"
	"hubcoin-miner/internal/leaderboard"
	"hubcoin-miner/internal/ledger"
	"hubcoin-miner/internal/util"
)

// DefaultTimeout bounds request handling, including store transactions.
const DefaultTimeout = 30 * time.Second

// LeaderboardCache reads and primes the precomputed leaderboard payload.
// *leaderboard.Cache implements it.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Set(ctx context.Context, entries []domain.LeaderboardEntry) error
}

// LedgerHandler handles the HTTP API of the incentive economy.
type LedgerHandler struct {
	service ledger.LedgerService
	cache   LeaderboardCache
	logger  *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc ledger.LedgerService, cache LeaderboardCache, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service: svc,
		cache:   cache,
		logger:  logger,
	}
}

// ActionResponse is the body of claim and withdrawal responses. Policy
// rejections are reported here with Success=false and HTTP 200.
type ActionResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Helper function to send JSON responses.
func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses. Only validation and
// infrastructure errors arrive here; policy rejections never do.
func (h *LedgerHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	if util.IsError(err, util.ErrInvalidInput) {
		statusCode = http.StatusBadRequest
		message = err.Error()
	} else {
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// UserRequest represents the request body for get-or-create.
type UserRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// GetOrCreateUser handles the account lifecycle request.
// POST /api/user
func (h *LedgerHandler) GetOrCreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.UserID == "" {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	// Referrals only enter through the bot front door, never the API.
	acct, created, err := h.service.GetOrCreateAccount(r.Context(), req.UserID, req.Username, "")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respondWithJSON(w, status, acct)
}

// ClaimRequest represents the request body for claim-gems.
type ClaimRequest struct {
	UserID string `json:"user_id"`
}

// ClaimGems handles the gem-claim request.
// POST /api/claim-gems
func (h *LedgerHandler) ClaimGems(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.UserID == "" {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	result, err := h.service.ClaimGems(r.Context(), req.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	resp := ActionResponse{Success: result.OK(), Message: result.Message}
	if result.OK() {
		resp.Data = map[string]interface{}{
			"gems":          result.Gems,
			"unclaimedGems": result.UnclaimedGems,
		}
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

// WithdrawalRequest represents the request body for a withdrawal.
type WithdrawalRequest struct {
	UserID  string          `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Account string          `json:"account"`
}

// Withdraw handles the withdrawal request.
// POST /api/withdrawal
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	if req.UserID == "" || req.Method == "" || req.Account == "" || req.Amount.LessThanOrEqual(decimal.Zero) {
		h.respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id, amount, method and account are required"})
		return
	}

	result, err := h.service.Withdraw(r.Context(), req.UserID, req.Amount, req.Method, req.Account)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	resp := ActionResponse{Success: result.OK(), Message: result.Message}
	if result.OK() {
		resp.Data = map[string]interface{}{
			"balance": result.Balance,
			"gems":    result.Gems,
		}
	}
	h.respondWithJSON(w, http.StatusOK, resp)
}

// Leaderboard serves the precomputed leaderboard payload.
// GET /api/leaderboard
func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cache.Get(r.Context())
	if err != nil {
		if !util.IsError(err, leaderboard.ErrCacheMiss) {
			h.logger.Warn("Leaderboard cache read failed", "error", err)
		}
		// Recompute from the store and prime the cache.
		entries, err = h.service.Leaderboard(r.Context())
		if err != nil {
			h.respondWithError(w, err)
			return
		}
		if err := h.cache.Set(r.Context(), entries); err != nil {
			h.logger.Warn("Leaderboard cache write failed", "error", err)
		}
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"players": entries})
}
