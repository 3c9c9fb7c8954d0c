package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"resolveit/backend/internal/analysis"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/localization"
	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
)

// ComplaintReader is the read side of the complaint service the bot
// commands use.
type ComplaintReader interface {
	Stats(ctx context.Context, actor auth.Actor) (*analysis.Summary, error)
	GetEscalated(ctx context.Context, actor auth.Actor) ([]models.Complaint, error)
}

// maxListed caps the /escalated reply.
const maxListed = 20

// HandleStatsCommand answers /stats with the dashboard counters.
func HandleStatsCommand(ctx context.Context, msg *tgbotapi.Message, src ComplaintReader, loc *localization.Localizer, bot Sender) {
	lang := languageOf(msg)

	summary, err := src.Stats(ctx, auth.SystemActor())
	if err != nil {
		logging.Default().Error("failed to compute stats for telegram", logging.ErrAttrs(err)...)
		reply(bot, msg.Chat.ID, loc.GetString(lang, "bot.error"))
		return
	}

	text := loc.Format(lang, "bot.stats", map[string]string{
		"total":      strconv.Itoa(summary.Total),
		"open":       strconv.Itoa(summary.Open),
		"escalated":  strconv.Itoa(summary.Escalated),
		"overdue":    strconv.Itoa(summary.Overdue),
		"unassigned": strconv.Itoa(summary.Unassigned),
	})
	reply(bot, msg.Chat.ID, text)
}

// HandleEscalatedCommand answers /escalated with the open escalated
// complaints.
func HandleEscalatedCommand(ctx context.Context, msg *tgbotapi.Message, src ComplaintReader, loc *localization.Localizer, bot Sender) {
	lang := languageOf(msg)

	complaints, err := src.GetEscalated(ctx, auth.SystemActor())
	if err != nil {
		logging.Default().Error("failed to list escalated complaints for telegram", logging.ErrAttrs(err)...)
		reply(bot, msg.Chat.ID, loc.GetString(lang, "bot.error"))
		return
	}
	if len(complaints) == 0 {
		reply(bot, msg.Chat.ID, loc.GetString(lang, "bot.escalated_none"))
		return
	}

	var b strings.Builder
	b.WriteString(loc.GetString(lang, "bot.escalated_header"))
	for i, c := range complaints {
		if i == maxListed {
			fmt.Fprintf(&b, "\n… +%d", len(complaints)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n#%d %s %s %s", c.ID, c.Urgency, c.Category, c.Status)
		if c.Deadline != nil {
			fmt.Fprintf(&b, " (due %s)", c.Deadline.Format("2006-01-02 15:04"))
		}
	}
	reply(bot, msg.Chat.ID, b.String())
}

func languageOf(msg *tgbotapi.Message) string {
	if msg.From != nil && msg.From.LanguageCode != "" {
		return msg.From.LanguageCode
	}
	return localization.DefaultLanguage
}

func reply(bot Sender, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logging.Default().Error("failed to send telegram reply", "chat_id", chatID, "error", err)
	}
}
