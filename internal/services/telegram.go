package services

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

// Sender is the part of the bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// StatsFunc reads the current pool totals for the /stats command.
type StatsFunc func(ctx context.Context) (models.AggregateStats, error)

// TelegramNotifier pushes ledger events to the admin chat. The admin chat is
// captured when an allowed user sends /start.
type TelegramNotifier struct {
	sender   Sender
	adminIDs map[int64]bool
	stats    StatsFunc

	mu          sync.RWMutex
	adminChatID int64
}

func NewTelegramNotifier(sender Sender, adminIDs []int64, stats StatsFunc) *TelegramNotifier {
	allowed := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = true
	}
	return &TelegramNotifier{sender: sender, adminIDs: allowed, stats: stats}
}

// InitBot authorizes the bot token and starts the command listener.
func InitBot(ctx context.Context, token string, adminIDs []int64, stats StatsFunc) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("telegram bot authorized", zap.String("account", bot.Self.UserName))

	n := NewTelegramNotifier(bot, adminIDs, stats)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()
	go n.listen(ctx, updates)

	return n, nil
}

func (n *TelegramNotifier) listen(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		n.HandleUpdate(ctx, update)
	}
}

// HandleUpdate answers bot commands from allowed users.
func (n *TelegramNotifier) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if len(n.adminIDs) > 0 && !n.adminIDs[update.Message.From.ID] {
		logger.Warn("telegram command from non-admin", zap.Int64("user", update.Message.From.ID))
		return
	}

	switch update.Message.Command() {
	case "start":
		n.mu.Lock()
		n.adminChatID = chatID
		n.mu.Unlock()
		n.send(chatID, fmt.Sprintf("Admin chat registered (%d). Registrations and draws will be posted here.", chatID))
		logger.Info("admin chat registered", zap.Int64("chat", chatID))
	case "stats":
		if n.stats == nil {
			return
		}
		stats, err := n.stats(ctx)
		if err != nil {
			n.send(chatID, "Could not load stats, try again.")
			logger.Warn("telegram stats failed", zap.Error(err))
			return
		}
		n.send(chatID, fmt.Sprintf("Total funds: $%d\nSplit: $%s\nTickets sold: %d\nLast ticket: #%d",
			stats.TotalFunds, stats.Split.StringFixed(2), stats.TicketsSold, stats.LastTicketNumber))
	}
}

// NotifyAdmin posts text to the registered admin chat, if any.
func (n *TelegramNotifier) NotifyAdmin(text string) {
	n.mu.RLock()
	chatID := n.adminChatID
	n.mu.RUnlock()

	if chatID == 0 {
		logger.Debug("admin chat unknown, notification dropped")
		return
	}
	n.send(chatID, text)
}

func (n *TelegramNotifier) send(chatID int64, text string) {
	if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Warn("error sending telegram message", zap.Error(err))
	}
}
