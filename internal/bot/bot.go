// internal/bot/bot.go
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"hubcoin-miner/internal/ledger"
)

// Referral payloads are the referrer's numeric Telegram ID; anything else
// appended to /start is ignored.
var referralPayloadRe = regexp.MustCompile(`^\d+$`)

// Bot is the front door of the system: first contact via /start triggers
// account creation and referral crediting. It also acts as the notification
// sink for referral rewards.
type Bot struct {
	Instance    *telego.Bot
	Ledger      ledger.LedgerService
	FrontendURL string
	Logger      *slog.Logger
}

// NewBot creates the Telegram bot. The ledger service is attached by the
// application after construction, since the service itself notifies through
// the bot.
func NewBot(token, frontendURL string, logger *slog.Logger) (*Bot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance:    tgBot,
		FrontendURL: frontendURL,
		Logger:      logger,
	}, nil
}

// Notify implements ledger.Notifier: it delivers a message to the user's
// Telegram chat. Best-effort; the caller decides what to do with failures.
func (b *Bot) Notify(ctx context.Context, userID, message string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid notification target %q: %w", userID, err)
	}
	_, err = b.Instance.SendMessage(ctx, tu.Message(tu.ID(chatID), message))
	if err != nil {
		return fmt.Errorf("failed to send notification to %d: %w", chatID, err)
	}
	return nil
}

// Start runs the long-polling update loop until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	updates, _ := b.Instance.UpdatesViaLongPolling(ctx, nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	// /start command, with an optional referral payload (t.me/bot?start=ref_id)
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		from := message.From
		userID := strconv.FormatInt(from.ID, 10)

		username := from.Username
		if username == "" {
			username = from.FirstName
		}

		// Parse the start payload manually
		referrerID := ""
		if parts := strings.Split(message.Text, " "); len(parts) > 1 && referralPayloadRe.MatchString(parts[1]) {
			referrerID = parts[1]
		}

		if _, _, err := b.Ledger.GetOrCreateAccount(ctx.Context(), userID, username, referrerID); err != nil {
			// Account creation failing must not swallow the welcome reply.
			b.Logger.Error("Failed to get/create account on /start", "user_id", userID, "error", err)
		}

		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("🚀 Open HubCoin Miner").WithWebApp(&telego.WebAppInfo{URL: b.FrontendURL}),
			),
		)

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			fmt.Sprintf("👋 Welcome, <b>%s</b>! Tap the button below to start earning.", from.FirstName),
		).WithParseMode(telego.ModeHTML).WithReplyMarkup(keyboard))
		return nil
	}, th.CommandEqual("start"))

	handler.Start()
}
