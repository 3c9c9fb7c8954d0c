package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/localization"
	"resolveit/backend/internal/logging"
)

// BotService receives Telegram updates and answers commands from the
// subscribed chats. It also owns the alert Notifier.
type BotService struct {
	BotAPI     *tgbotapi.BotAPI
	Sender     Sender
	Complaints ComplaintReader
	Localizer  *localization.Localizer
	Notifier   *Notifier

	allowed map[int64]bool
}

// NewBotService connects to Telegram with token. chatIDs are both the
// alert destinations and the only chats the commands answer in.
func NewBotService(token string, complaints ComplaintReader, loc *localization.Localizer, chatIDs []int64, lang string) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to telegram")
	}
	bot.Debug = false
	logging.Default().Info("telegram bot authorized", "account", bot.Self.UserName)

	s := newBotService(bot, complaints, loc, chatIDs, lang)
	s.BotAPI = bot
	return s, nil
}

func newBotService(sender Sender, complaints ComplaintReader, loc *localization.Localizer, chatIDs []int64, lang string) *BotService {
	allowed := make(map[int64]bool, len(chatIDs))
	for _, id := range chatIDs {
		allowed[id] = true
	}
	return &BotService{
		Sender:     sender,
		Complaints: complaints,
		Localizer:  loc,
		Notifier:   NewNotifier(sender, loc, chatIDs, lang),
		allowed:    allowed,
	}
}

// Run processes updates and delivers alerts until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) error {
	go func() {
		if err := s.Notifier.Run(ctx); err != nil {
			logging.Default().Error("telegram notifier stopped", logging.ErrAttrs(err)...)
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update. Only commands are handled.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	lang := languageOf(msg)

	switch msg.Command() {
	case "start":
		reply(s.Sender, msg.Chat.ID, s.Localizer.GetString(lang, "bot.start"))
		return
	case "help":
		reply(s.Sender, msg.Chat.ID, s.Localizer.GetString(lang, "bot.help"))
		return
	}

	if !s.allowed[msg.Chat.ID] {
		logging.Default().Warn("telegram command from unsubscribed chat", "chat_id", msg.Chat.ID, "command", msg.Command())
		reply(s.Sender, msg.Chat.ID, s.Localizer.GetString(lang, "bot.not_allowed"))
		return
	}

	switch msg.Command() {
	case "stats":
		HandleStatsCommand(ctx, msg, s.Complaints, s.Localizer, s.Sender)
	case "escalated":
		HandleEscalatedCommand(ctx, msg, s.Complaints, s.Localizer, s.Sender)
	default:
		reply(s.Sender, msg.Chat.ID, s.Localizer.GetString(lang, "bot.unknown_command"))
	}
}
