// Package capture крутит цикл «кадр → распознавание → отметка» в пределах одного
// периода расписания.
package capture

import (
	"context"
	"errors"
	"time"
)

// ErrNoFrame: источник не отдал кадр (камера недоступна, кадры закончились).
var ErrNoFrame = errors.New("кадр не получен")

type Frame struct {
	Seq         uint64
	Timestamp   time.Time
	Data        []byte
	ContentType string
	Source      string
}

// FrameSource принадлежит сессии и читается строго последовательно.
type FrameSource interface {
	Read(ctx context.Context) (Frame, error)
	Close() error
}

// Recognizer возвращает метки известных людей на кадре. Пустой список: не ошибка.
type Recognizer interface {
	Recognize(ctx context.Context, frame Frame) ([]string, error)
}

// Recorder: запись в журнал посещаемости (ledger.Ledger).
type Recorder interface {
	TryRecord(identity, date, periodID string, ts time.Time) bool
}

type Outcome int

const (
	OutcomeElapsed Outcome = iota
	OutcomeNoFrame
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeElapsed:
		return "elapsed"
	case OutcomeNoFrame:
		return "no_frame"
	case OutcomeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Result: итог одной сессии.
type Result struct {
	SessionID  string
	PeriodID   string
	Outcome    Outcome
	StartedAt  time.Time
	EndedAt    time.Time
	Frames     int
	Recognized int
	Duplicates int
	// Unknown: сколько раз распознаватель вернул метку чужого лица.
	Unknown    int
	NewRecords []string
	FrameErr   error
}
