package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/capture"
	"github.com/Spok95/classroom-attendance/internal/clock"
	"github.com/Spok95/classroom-attendance/internal/metrics"
	"github.com/Spok95/classroom-attendance/internal/models"
	"github.com/Spok95/classroom-attendance/internal/observability"
	"github.com/Spok95/classroom-attendance/internal/timetable"
)

const DefaultPollInterval = time.Minute

// SessionRunner: capture.Session.
type SessionRunner interface {
	Run(ctx context.Context, periodID string, end time.Time) (capture.Result, error)
}

// Report передаётся Notifier после каждой сессии.
type Report struct {
	Period models.Period
	Result capture.Result
	Err    error
}

type Notifier interface {
	SessionEnded(ctx context.Context, r Report)
}

type Options struct {
	Timetable    *timetable.Timetable
	Session      SessionRunner
	Clock        clock.Clock
	PollInterval time.Duration
	RunPolicy    RunPolicy
	// TargetPeriod: период, после которого RunSinglePeriod останавливается.
	TargetPeriod string
	ErrorPolicy  ErrorPolicy
	// OnTerminal вызывается, когда планировщик решил остановиться сам.
	OnTerminal func()
	Notifier   Notifier
	Logger     *zap.Logger
}

type Scheduler struct {
	opts  Options
	log   *zap.Logger
	state atomic.Int32
	done  chan struct{}

	// targetEnd: конец уже начатого целевого периода (RunSinglePeriod).
	targetEnd time.Time
}

func New(opts Options) (*Scheduler, error) {
	if opts.Timetable == nil {
		return nil, errors.New("scheduler: нет расписания")
	}
	if opts.Session == nil {
		return nil, errors.New("scheduler: нет сессии съёмки")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.RunPolicy == RunSinglePeriod {
		if _, ok := opts.Timetable.Find(opts.TargetPeriod); !ok {
			return nil, fmt.Errorf("scheduler: целевой период %q не найден в расписании", opts.TargetPeriod)
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{opts: opts, log: log, done: make(chan struct{})}, nil
}

func (s *Scheduler) State() State { return State(s.state.Load()) }

// Done закрывается, когда Run вернул управление.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
	metrics.SchedulerState.Set(float64(st))
}

// Run крутит цикл IDLE → IN_SESSION → IDLE до отмены ctx (тогда nil) или
// до ошибки итерации при StopOnError (тогда ошибка). Вызывается один раз.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)
	s.setState(StateIdle)
	s.log.Info("планировщик запущен",
		zap.Int("periods", s.opts.Timetable.Len()),
		zap.Stringer("mode", s.opts.RunPolicy),
		zap.Stringer("on_error", s.opts.ErrorPolicy),
		zap.Duration("poll", s.opts.PollInterval),
	)

	for {
		if ctx.Err() != nil {
			s.setState(StateStopped)
			s.log.Info("планировщик остановлен")
			return nil
		}

		next, err := s.step(ctx)
		if err != nil {
			metrics.SchedulerErrors.Inc()
			if s.opts.ErrorPolicy == StopOnError {
				s.log.Error("ошибка планировщика, останавливаемся", zap.Error(err))
				observability.CaptureErrTags(err, map[string]string{"component": "scheduler"})
				s.setState(StateStopped)
				return err
			}
			s.log.Warn("ошибка планировщика, ждём следующей проверки", zap.Error(err))
			_ = s.opts.Clock.Sleep(ctx, s.opts.PollInterval)
			continue
		}
		if next == StateStopped {
			s.setState(StateStopped)
			s.log.Info("планировщик завершил работу")
			return nil
		}
	}
}

// step: одна итерация автомата. Паника внутри превращается в ошибку.
func (s *Scheduler) step(ctx context.Context) (next State, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.setState(StateIdle)
			next, err = StateIdle, fmt.Errorf("panic в планировщике: %v", r)
		}
	}()

	now := s.opts.Clock.Now()
	if !s.targetEnd.IsZero() && now.After(s.targetEnd) {
		return s.finishTarget(), nil
	}
	p, ok := s.opts.Timetable.Resolve(models.ClockOf(now))
	s.log.Debug("проверка расписания",
		zap.String("now", now.Format(models.ClockLayout)),
		zap.Bool("class_in_session", ok),
		zap.String("period", p.ID),
	)
	if !ok {
		s.log.Debug("урока нет, ожидание", zap.Duration("poll", s.opts.PollInterval))
		_ = s.opts.Clock.Sleep(ctx, s.opts.PollInterval)
		return StateIdle, nil
	}

	s.setState(StateInSession)
	s.log.Info("обнаружен период", zap.String("period", p.ID), zap.Stringer("end", p.End))
	end := p.End.On(now)
	if s.opts.RunPolicy == RunSinglePeriod && p.ID == s.opts.TargetPeriod {
		s.targetEnd = end
	}
	res, err := s.opts.Session.Run(ctx, p.ID, end)
	s.setState(StateIdle)
	s.notify(ctx, Report{Period: p, Result: res, Err: err})
	if err != nil {
		return StateIdle, fmt.Errorf("сессия периода %s: %w", p.ID, err)
	}

	// Если сессия оборвалась раньше конца периода, остановку решит
	// следующая итерация по targetEnd.
	if p.ID == s.opts.TargetPeriod && !s.targetEnd.IsZero() && res.Outcome == capture.OutcomeElapsed {
		return s.finishTarget(), nil
	}

	// Пауза после сессии: не перезапускать её сразу при отказе камеры.
	_ = s.opts.Clock.Sleep(ctx, s.opts.PollInterval)
	return StateIdle, nil
}

func (s *Scheduler) finishTarget() State {
	s.log.Info("целевой период завершён", zap.String("period", s.opts.TargetPeriod))
	if s.opts.OnTerminal != nil {
		s.opts.OnTerminal()
	}
	return StateStopped
}

func (s *Scheduler) notify(ctx context.Context, r Report) {
	if s.opts.Notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.opts.Notifier.SessionEnded(nctx, r)
}
