package tg

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/scheduler"
)

// SendTimeout ограничивает одно обращение к Telegram API.
const SendTimeout = 10 * time.Second

// Notifier шлёт в чат итог каждой сессии и сообщение об остановке.
// Ошибки Telegram только логируются: на журнал они не влияют.
type Notifier struct {
	bot    Sender
	chatID int64
	log    *zap.Logger
}

func NewNotifier(token string, chatID int64, log *zap.Logger) (*Notifier, error) {
	client := &http.Client{Timeout: SendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return NewNotifierWith(bot, chatID, log), nil
}

func NewNotifierWith(bot Sender, chatID int64, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{bot: bot, chatID: chatID, log: log}
}

// SessionEnded возвращается не позже отмены ctx, даже если Telegram завис.
func (n *Notifier) SessionEnded(ctx context.Context, r scheduler.Report) {
	n.send(ctx, FormatReport(r))
}

func (n *Notifier) Shutdown(records int, err error) {
	text := fmt.Sprintf("Запись посещаемости остановлена. В журнале %d отметок.", records)
	if err != nil {
		text += "\n⚠️ Журнал сохранён не полностью: " + err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
	defer cancel()
	n.send(ctx, text)
}

func (n *Notifier) send(ctx context.Context, text string) {
	done := make(chan error, 1)
	go func() {
		_, err := Send(n.bot, tgbotapi.NewMessage(n.chatID, text))
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			n.log.Warn("не удалось отправить сообщение в Telegram", zap.Error(err))
		}
	case <-ctx.Done():
		n.log.Warn("Telegram не ответил вовремя, сообщение пропущено", zap.Error(ctx.Err()))
	}
}

func FormatReport(r scheduler.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Урок %s (%s-%s): ", r.Period.ID, r.Period.Start, r.Period.End)
	if r.Err != nil {
		fmt.Fprintf(&b, "ошибка: %v", r.Err)
		return b.String()
	}
	fmt.Fprintf(&b, "сессия завершена (%s), кадров %d", r.Result.Outcome, r.Result.Frames)
	if len(r.Result.NewRecords) == 0 {
		b.WriteString(", новых отметок нет")
		return b.String()
	}
	fmt.Fprintf(&b, ", отмечены: %s", strings.Join(r.Result.NewRecords, ", "))
	return b.String()
}
