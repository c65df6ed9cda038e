package tg

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/classroom-attendance/internal/observability"
)

// Sender: *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "can't parse entities") {
		return false
	}
	for _, marker := range []string{"429", "500", "502", "503", "504", "timeout"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErrTags(err, map[string]string{"component": "telegram"})
	}
	return m, err
}
