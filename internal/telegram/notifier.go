// Package telegram posts complaint alerts to Telegram chats and answers
// a few read-only commands there.
package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/localization"
	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
)

// Sender is the part of *tgbotapi.BotAPI the package needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DefaultAlertTypes are the events forwarded when none are configured.
var DefaultAlertTypes = []string{
	models.EventEscalated,
	models.EventAssigned,
	models.EventResolved,
}

const alertQueueSize = 100

// Notifier forwards selected complaint events to a fixed set of chats.
type Notifier struct {
	Bot       Sender
	ChatIDs   []int64
	Localizer *localization.Localizer
	Language  string

	types map[string]bool
	queue chan models.ComplaintEvent
}

// NewNotifier creates a notifier for the given event types. An empty
// types list means DefaultAlertTypes.
func NewNotifier(bot Sender, loc *localization.Localizer, chatIDs []int64, lang string, types ...string) *Notifier {
	if len(types) == 0 {
		types = DefaultAlertTypes
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	if lang == "" {
		lang = localization.DefaultLanguage
	}
	return &Notifier{
		Bot:       bot,
		ChatIDs:   chatIDs,
		Localizer: loc,
		Language:  lang,
		types:     set,
		queue:     make(chan models.ComplaintEvent, alertQueueSize),
	}
}

// Wants reports whether ev would be forwarded. Internal notes never are.
func (n *Notifier) Wants(ev models.ComplaintEvent) bool {
	return n.types[ev.Type] && !ev.Internal
}

// Publish queues ev for delivery. It never waits on Telegram.
func (n *Notifier) Publish(_ context.Context, ev models.ComplaintEvent) error {
	if !n.Wants(ev) {
		return nil
	}
	select {
	case n.queue <- ev:
		return nil
	default:
		return goerr.New("telegram alert queue is full",
			goerr.V("type", ev.Type), goerr.V("complaint_id", ev.ComplaintID))
	}
}

// Render produces the alert text for ev.
func (n *Notifier) Render(ev models.ComplaintEvent) string {
	return n.Localizer.Format(n.Language, "event."+ev.Type, map[string]string{
		"id":       strconv.FormatUint(uint64(ev.ComplaintID), 10),
		"category": ev.Category,
		"urgency":  ev.Urgency,
		"status":   ev.Status,
		"actor":    ev.Actor,
		"comment":  ev.Comment,
	})
}

// Run delivers queued alerts until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-n.queue:
			n.deliver(ev)
		}
	}
}

func (n *Notifier) deliver(ev models.ComplaintEvent) {
	text := n.Render(ev)
	for _, chatID := range n.ChatIDs {
		if _, err := n.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			logging.Default().Error("failed to send telegram alert",
				"chat_id", chatID, "type", ev.Type, "complaint_id", ev.ComplaintID, "error", err)
		}
	}
}
