package config

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/localization"
	"resolveit/backend/internal/telegram"
)

// Telegram enables escalation alerts and the /stats bot commands.
type Telegram struct {
	token    string
	chatIDs  []string
	language string
}

func (t *Telegram) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "telegram-bot-token",
			Usage:       "Telegram bot token; alerts are disabled when empty",
			Category:    "Telegram",
			Sources:     cli.EnvVars("RESOLVEIT_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
			Destination: &t.token,
		},
		&cli.StringSliceFlag{
			Name:        "telegram-chat-id",
			Usage:       "Chat receiving alerts and allowed to use commands (repeatable)",
			Category:    "Telegram",
			Sources:     cli.EnvVars("RESOLVEIT_TELEGRAM_CHAT_IDS"),
			Destination: &t.chatIDs,
		},
		&cli.StringFlag{
			Name:        "telegram-language",
			Usage:       "Language of alert texts",
			Category:    "Telegram",
			Value:       localization.DefaultLanguage,
			Sources:     cli.EnvVars("RESOLVEIT_TELEGRAM_LANGUAGE"),
			Destination: &t.language,
		},
	}
}

func (t *Telegram) IsConfigured() bool {
	return t.token != ""
}

// Configure returns nil when no token is set.
func (t *Telegram) Configure(complaints *complaint.Service) (*telegram.BotService, error) {
	if !t.IsConfigured() {
		return nil, nil
	}

	ids, err := parseChatIDs(t.chatIDs)
	if err != nil {
		return nil, err
	}
	loc, err := localization.NewBuiltinLocalizer()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load alert texts")
	}
	return telegram.NewBotService(t.token, complaints, loc, ids, t.language)
}

func parseChatIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid telegram chat id", goerr.V("value", part))
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
