package ctxutil

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyPeriodID key = iota
	keySessionID
	keyOpName
)

// WithPeriod /Period: идентификатор текущего периода расписания
func WithPeriod(ctx context.Context, periodID string) context.Context {
	return context.WithValue(ctx, keyPeriodID, periodID)
}

func Period(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyPeriodID).(string)
	return v, ok
}

// WithSessionID /SessionID: id сессии съёмки для сквозных логов
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keySessionID, id)
}

func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keySessionID).(string)
	return v, ok
}

// WithOp /Op: имя операции (для логов)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyOpName).(string)
	return v, ok
}

// Fields: поля zap из контекста.
func Fields(ctx context.Context) []zap.Field {
	var fs []zap.Field
	if v, ok := Period(ctx); ok {
		fs = append(fs, zap.String("period", v))
	}
	if v, ok := SessionID(ctx); ok {
		fs = append(fs, zap.String("session", v))
	}
	if v, ok := Op(ctx); ok {
		fs = append(fs, zap.String("op", v))
	}
	return fs
}

// Таймаут одного вызова внешнего сервиса (распознавание, камера).
var DefaultCallTimeout = 10 * time.Second

// WithTimeout: удобная обёртка над context.WithTimeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		// d<=0: без таймаута
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithCallTimeout: стандартный таймаут внешнего вызова, не дольше остатка родителя.
func WithCallTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultCallTimeout
	}
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < d {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, d)
}
