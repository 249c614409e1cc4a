// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "hubcoin-miner/internal/api"
	"hubcoin-miner/internal/api/handler"
	"hubcoin-miner/internal/bot"
	"hubcoin-miner/internal/config"
	"hubcoin-miner/internal/leaderboard"
	"hubcoin-miner/internal/ledger"
	"hubcoin-miner/internal/repository"
	"hubcoin-miner/internal/repository/postgres"
	"hubcoin-miner/internal/util"
	"hubcoin-miner/pkg/db"
)

const leaderboardRefreshInterval = 5 * time.Minute

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	AccountRepository    repository.AccountRepository
	WithdrawalRepository repository.WithdrawalRepository

	// Services
	LedgerService ledger.LedgerService

	// Front door and background work
	Bot               *bot.Bot
	LeaderboardWorker *leaderboard.Worker

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to the account store
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Account store connection established.")

	// 4. Connect to Redis (leaderboard cache)
	app.Redis = redis.NewClient(&redis.Options{
		Addr:     app.Config.RedisAddr,
		Password: app.Config.RedisPassword,
		DB:       0,
	})
	if err := app.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.Logger.Info("Redis connection established.")

	// 5. Initialize Repositories
	app.AccountRepository = postgres.NewAccountRepository(app.DB)
	app.WithdrawalRepository = postgres.NewWithdrawalRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize the bot front door (also the notification sink)
	tgBot, err := bot.NewBot(app.Config.BotToken, app.Config.FrontendURL, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	app.Bot = tgBot

	// 7. Initialize the ledger service
	policy := ledger.DefaultPolicy()
	policy.GemsPerCurrency = app.Config.WithdrawalGemRate
	app.LedgerService = ledger.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.AccountRepository,
		app.WithdrawalRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		policy,
		app.Bot,
		app.Logger,
	)
	app.Bot.Ledger = app.LedgerService
	app.Logger.Info("Ledger service initialized.")

	// 8. Initialize the leaderboard cache and worker
	cache := leaderboard.NewCache(app.Redis)
	app.LeaderboardWorker = leaderboard.NewWorker(app.LedgerService, cache, leaderboardRefreshInterval, app.Logger)

	// 9. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, cache, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.Config.FrontendURL, app.Config.StaticDir, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
