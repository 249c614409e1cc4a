// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "hubcoin-miner/internal"
	"hubcoin-miner/internal/domain"
	"hubcoin-miner/internal/repository"
	"hubcoin-miner/pkg/db"
)

// These tests exercise the full HTTP stack against a real Postgres and Redis.
// They are skipped unless INTEGRATION_TEST is set; CI provides the backing
// services and the environment below.
var testApp *app.Application

var testServer *httptest.Server

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		fmt.Println("INTEGRATION_TEST not set; skipping API integration tests")
		os.Exit(0)
	}

	setupEnvVars()

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	// Bring the test database schema up to date.
	connStr, err := db.ConnString(testApp.Config.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build connection string: %v\n", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(context.Background(), connStr, "up"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	code := m.Run()

	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// setupEnvVars fills in local-development defaults for anything CI did not set.
func setupEnvVars() {
	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		os.Setenv("TELEGRAM_BOT_TOKEN", "123456:integration-test-token")
	}
	if os.Getenv("FRONTEND_URL") == "" {
		os.Setenv("FRONTEND_URL", "http://localhost:5173")
	}
	if os.Getenv("STORE_SERVICE_ACCOUNT_JSON") == "" {
		os.Setenv("STORE_SERVICE_ACCOUNT_JSON",
			`{"host":"localhost","port":5432,"user":"user","password":"password","db_name":"hubcoin_test"}`)
	}
}

// clearDatabase truncates all tables so each test starts from a clean state.
// Order matters because of the withdrawal_requests foreign key.
func clearDatabase(t *testing.T) {
	for _, table := range []string{"withdrawal_requests", "accounts"} {
		_, err := testApp.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", table))
		require.NoError(t, err, "Failed to truncate table %s", table)
	}
}

// seedAccount creates an account and sets its counters directly, bypassing the
// API so test setup cannot depend on the behavior under test.
func seedAccount(t *testing.T, userID, username string, balance decimal.Decimal, gems, unclaimedGems int64) {
	today := time.Now().UTC().Format("2006-01-02")
	acct := domain.NewAccount(userID, username, today, nil)
	err := testApp.AccountRepository.CreateAccount(context.Background(), testApp.DB, acct)
	require.NoError(t, err)

	_, err = testApp.DB.ExecContext(context.Background(),
		"UPDATE accounts SET balance = $1, gems = $2, unclaimed_gems = $3 WHERE user_id = $4",
		balance, gems, unclaimedGems, userID)
	require.NoError(t, err)
}

func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func TestAccountLifecycleIntegration(t *testing.T) {
	clearDatabase(t)

	t.Run("FirstContactCreatesAccount", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/api/user", strings.NewReader(`{"user_id": "900001", "username": "fresh"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var acct map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &acct))
		assert.Equal(t, "900001", acct["user_id"])
		assert.Equal(t, "fresh", acct["username"])

		balance, err := decimal.NewFromString(acct["balance"].(string))
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("RepeatContactReturnsSameAccount", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/api/user", strings.NewReader(`{"user_id": "900001", "username": "fresh"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var acct map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &acct))
		assert.Equal(t, "900001", acct["user_id"])
	})

	t.Run("MissingUserIDRejected", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/api/user", strings.NewReader(`{"username": "nameless"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "user_id is required")
	})
}

func TestClaimGemsIntegration(t *testing.T) {
	clearDatabase(t)
	seedAccount(t, "900002", "claimer", decimal.Zero, 0, 10)

	claim := func() (int, map[string]interface{}) {
		resp, body := makeRequest(t, "POST", "/api/claim-gems", strings.NewReader(`{"user_id": "900002"}`))
		defer resp.Body.Close()
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &m))
		return resp.StatusCode, m
	}

	// Three claims exhaust the daily cap.
	for i := 1; i <= 3; i++ {
		code, m := claim()
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, m["success"], "claim %d should succeed", i)
	}

	code, m := claim()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, m["success"])

	// The counters in the store reflect the three applied claims.
	var gems, unclaimed int64
	err := testApp.DB.QueryRowContext(context.Background(),
		"SELECT gems, unclaimed_gems FROM accounts WHERE user_id = $1", "900002").Scan(&gems, &unclaimed)
	require.NoError(t, err)
	assert.EqualValues(t, 6, gems)
	assert.EqualValues(t, 4, unclaimed)
}

func TestWithdrawalIntegration(t *testing.T) {
	clearDatabase(t)
	seedAccount(t, "900003", "cashout", decimal.NewFromInt(500), 100, 0)

	t.Run("SuccessfulWithdrawal", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/api/withdrawal",
			strings.NewReader(`{"user_id": "900003", "amount": 100, "method": "bkash", "account": "017xxxxxxx"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &m))
		assert.Equal(t, true, m["success"])

		// Exactly one pending request was recorded.
		var count int
		err := testApp.DB.QueryRowContext(context.Background(),
			"SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = $1 AND status = 'pending'", "900003").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		var balance decimal.Decimal
		var gems int64
		err = testApp.DB.QueryRowContext(context.Background(),
			"SELECT balance, gems FROM accounts WHERE user_id = $1", "900003").Scan(&balance, &gems)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(400)))
		assert.EqualValues(t, 0, gems)
	})

	t.Run("InsufficientBalanceRejectedWithoutSideEffects", func(t *testing.T) {
		resp, body := makeRequest(t, "POST", "/api/withdrawal",
			strings.NewReader(`{"user_id": "900003", "amount": 9999, "method": "bkash", "account": "017xxxxxxx"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &m))
		assert.Equal(t, false, m["success"])

		var count int
		err := testApp.DB.QueryRowContext(context.Background(),
			"SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = $1", "900003").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestLeaderboardIntegration(t *testing.T) {
	clearDatabase(t)
	seedAccount(t, "900004", "rich", decimal.NewFromInt(1000), 0, 0)
	seedAccount(t, "900005", "richer", decimal.NewFromInt(2000), 0, 0)
	seedAccount(t, "900006", "poor", decimal.NewFromInt(1), 0, 0)

	// Drop any cached payload left over from other tests.
	require.NoError(t, testApp.Redis.FlushDB(context.Background()).Err())

	resp, body := makeRequest(t, "GET", "/api/leaderboard", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var m map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	players := m["players"]
	require.Len(t, players, 3)
	assert.Equal(t, "900005", players[0]["user_id"])
	assert.Equal(t, "900004", players[1]["user_id"])
	assert.Equal(t, "900006", players[2]["user_id"])
}
