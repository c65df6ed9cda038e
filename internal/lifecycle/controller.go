// Package lifecycle запускает планировщик в фоне и гарантирует порядок
// остановки: стоп → ожидание → освобождение камеры → однократное сохранение журнала.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/metrics"
	"github.com/Spok95/classroom-attendance/internal/models"
	"github.com/Spok95/classroom-attendance/internal/observability"
)

type Runner interface {
	Run(ctx context.Context) error
}

type Snapshotter interface {
	Snapshot() []models.AttendanceRecord
}

// Flusher сохраняет снимок журнала. Первый в списке: основной (CSV).
type Flusher interface {
	Name() string
	Flush(ctx context.Context, records []models.AttendanceRecord) error
}

type Config struct {
	Scheduler Runner
	Ledger    Snapshotter
	// Source закрывается после остановки планировщика.
	Source   io.Closer
	Flushers []Flusher
	// StopTimeout ограничивает ожидание планировщика, 0 значит без ограничения.
	StopTimeout time.Duration
	Logger      *zap.Logger
}

type Controller struct {
	cfg Config
	log *zap.Logger

	mu            sync.Mutex
	started       bool
	stopRequested bool
	cancel        context.CancelFunc

	stopped chan struct{}
	runErr  error

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{cfg: cfg, log: log, stopped: make(chan struct{})}
}

// Start запускает планировщик в отдельной горутине. Повторный вызов и вызов
// после RequestStop ничего не делают.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopRequested {
		return
	}
	c.started = true

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go func() {
		defer cancel()
		err := c.run(runCtx)
		c.runErr = err
		close(c.stopped)
	}()
}

func (c *Controller) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic в фоновой задаче: %v", r)
			observability.CaptureErr(err)
		}
	}()
	return c.cfg.Scheduler.Run(ctx)
}

// RequestStop поднимает сигнал остановки. Идемпотентен, безопасен из любой горутины.
func (c *Controller) RequestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopRequested {
		return
	}
	c.stopRequested = true
	if c.cancel != nil {
		c.cancel()
	}
}

// Stopped закрывается, когда фоновая задача завершилась.
func (c *Controller) Stopped() <-chan struct{} { return c.stopped }

// Err: ошибка, с которой завершился планировщик (nil при штатной остановке).
// Имеет смысл после закрытия Stopped.
func (c *Controller) Err() error {
	select {
	case <-c.stopped:
		return c.runErr
	default:
		return nil
	}
}

// WaitForStop ждёт завершения планировщика не дольше timeout (0: без
// ограничения). Если Start не вызывался, возвращает true сразу.
func (c *Controller) WaitForStop(timeout time.Duration) bool {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return true
	}
	if timeout <= 0 {
		<-c.stopped
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-c.stopped:
		return true
	case <-t.C:
		return false
	}
}

// Shutdown выполняется один раз; повторные вызовы возвращают первый результат.
// Журнал не очищается: при ошибке сохранения снимок можно записать повторно.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.shutdownErr = c.shutdown(ctx)
	})
	return c.shutdownErr
}

// Guard вызывается через defer сразу после Start. При панике в вызывающем
// коде журнал сохраняется до того, как паника уйдёт дальше.
func (c *Controller) Guard() {
	if r := recover(); r != nil {
		c.log.Error("аварийное завершение, сохраняем журнал", zap.Any("panic", r))
		_ = c.Shutdown(context.Background())
		panic(r)
	}
	_ = c.Shutdown(context.Background())
}

func (c *Controller) shutdown(ctx context.Context) error {
	c.log.Info("завершение работы: останавливаем планировщик")
	c.RequestStop()
	if !c.WaitForStop(c.cfg.StopTimeout) {
		c.log.Warn("планировщик не остановился вовремя, сохраняем журнал без ожидания",
			zap.Duration("timeout", c.cfg.StopTimeout))
	}

	if c.cfg.Source != nil {
		if err := c.cfg.Source.Close(); err != nil {
			c.log.Warn("не удалось освободить камеру", zap.Error(err))
		}
	}

	var records []models.AttendanceRecord
	if c.cfg.Ledger != nil {
		records = c.cfg.Ledger.Snapshot()
	}
	c.log.Info("сохранение журнала посещаемости", zap.Int("records", len(records)))

	var errs []error
	for _, f := range c.cfg.Flushers {
		start := time.Now()
		err := f.Flush(ctx, records)
		metrics.ObserveFlush(f.Name(), time.Since(start), err)
		if err != nil {
			err = fmt.Errorf("сохранение (%s): %w", f.Name(), err)
			c.log.Error("журнал не сохранён", zap.String("sink", f.Name()), zap.Error(err))
			observability.CaptureErrTags(err, map[string]string{"component": "flush", "sink": f.Name()})
			errs = append(errs, err)
			continue
		}
		c.log.Info("журнал сохранён", zap.String("sink", f.Name()), zap.Int("records", len(records)))
	}
	return errors.Join(errs...)
}
