// Package clock отделяет циклы планировщика и сессии от реального времени,
// чтобы тесты прокручивали часы без настоящих задержек.
package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
	// Sleep ждёт d или отмены ctx; при отмене возвращает ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

// Real: системные часы в заданной таймзоне.
type Real struct {
	Location *time.Location
}

func (r Real) Now() time.Time {
	if r.Location == nil {
		return time.Now()
	}
	return time.Now().In(r.Location)
}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
