package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/clock"
	"github.com/Spok95/classroom-attendance/internal/ctxutil"
	"github.com/Spok95/classroom-attendance/internal/metrics"
	"github.com/Spok95/classroom-attendance/internal/models"
)

const (
	DefaultInterval = time.Second
	// DefaultUnknownLabel: так распознаватель называет лица не из базы.
	DefaultUnknownLabel = "Unknown"
)

type Session struct {
	Source     FrameSource
	Recognizer Recognizer
	Ledger     Recorder
	Clock      clock.Clock
	// Interval: пауза между кадрами.
	Interval time.Duration
	// CallTimeout ограничивает одно чтение кадра и одно распознавание.
	CallTimeout time.Duration
	// UnknownLabel не записывается в журнал (без учёта регистра).
	// Пусто: DefaultUnknownLabel.
	UnknownLabel string
	Logger       *zap.Logger
}

// Run снимает кадры, пока период не закончился (end включительно, с точностью
// до секунды) и ctx не отменён. Отмена кооперативная: начатый цикл
// «кадр → распознавание → запись» доводится до конца. Ошибкой считается
// только сбой распознавания; потеря кадра просто завершает сессию.
func (s *Session) Run(ctx context.Context, periodID string, end time.Time) (Result, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	res := Result{
		SessionID: uuid.NewString(),
		PeriodID:  periodID,
		StartedAt: s.Clock.Now(),
	}
	ctx = ctxutil.WithSessionID(ctxutil.WithPeriod(ctx, periodID), res.SessionID)
	log = log.With(ctxutil.Fields(ctx)...)
	log.Info("начало отметки посещаемости", zap.Time("until", end))

	finish := func(o Outcome) (Result, error) {
		res.Outcome = o
		res.EndedAt = s.Clock.Now()
		metrics.SessionsTotal.WithLabelValues(o.String()).Inc()
		log.Info("отметка посещаемости завершена",
			zap.Stringer("outcome", o),
			zap.Int("frames", res.Frames),
			zap.Int("new_records", len(res.NewRecords)),
			zap.Int("duplicates", res.Duplicates),
		)
		return res, nil
	}

	for s.within(end) {
		if ctx.Err() != nil {
			return finish(OutcomeStopped)
		}

		frame, err := s.readFrame(ctx)
		if err != nil {
			metrics.FrameErrors.Inc()
			res.FrameErr = err
			log.Warn("не удалось получить кадр с камеры", zap.Error(err))
			return finish(OutcomeNoFrame)
		}
		res.Frames++
		metrics.FramesTotal.Inc()

		ids, err := s.recognize(ctx, frame)
		if err != nil {
			res.EndedAt = s.Clock.Now()
			return res, fmt.Errorf("распознавание кадра %d: %w", frame.Seq, err)
		}
		s.record(log, &res, periodID, ids)

		if err := s.Clock.Sleep(ctx, interval); err != nil {
			return finish(OutcomeStopped)
		}
	}
	if ctx.Err() != nil {
		return finish(OutcomeStopped)
	}
	return finish(OutcomeElapsed)
}

func (s *Session) within(end time.Time) bool {
	return !s.Clock.Now().Truncate(time.Second).After(end)
}

// Внешние вызовы не прерываются сигналом остановки, только своим таймаутом.
func (s *Session) readFrame(ctx context.Context) (Frame, error) {
	callCtx, cancel := ctxutil.WithCallTimeout(context.WithoutCancel(ctx), s.CallTimeout)
	defer cancel()
	f, err := s.Source.Read(callCtx)
	if err != nil {
		if errors.Is(err, ErrNoFrame) {
			return Frame{}, err
		}
		return Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	return f, nil
}

func (s *Session) recognize(ctx context.Context, frame Frame) ([]string, error) {
	callCtx, cancel := ctxutil.WithCallTimeout(context.WithoutCancel(ctx), s.CallTimeout)
	defer cancel()
	return s.Recognizer.Recognize(callCtx, frame)
}

func (s *Session) unknownLabel() string {
	if s.UnknownLabel == "" {
		return DefaultUnknownLabel
	}
	return s.UnknownLabel
}

func (s *Session) record(log *zap.Logger, res *Result, periodID string, ids []string) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if strings.EqualFold(id, s.unknownLabel()) {
			res.Unknown++
			continue
		}
		res.Recognized++
		metrics.Recognitions.Inc()

		now := s.Clock.Now()
		if !s.Ledger.TryRecord(id, now.Format(models.DateLayout), periodID, now) {
			res.Duplicates++
			metrics.DuplicatesTotal.Inc()
			continue
		}
		res.NewRecords = append(res.NewRecords, id)
		metrics.RecordsTotal.WithLabelValues(periodID).Inc()
		log.Info("посещаемость отмечена",
			zap.String("identity", id),
			zap.String("time", now.Format(models.ClockLayout)),
		)
	}
}
