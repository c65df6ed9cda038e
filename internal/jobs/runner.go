package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/metrics"
	"github.com/Spok95/classroom-attendance/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every запускает fn раз в interval до отмены контекста раннера.
// interval <= 0: задача не запускается.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	if interval <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.runOnce(name, fn)
			}
		}
	}()
}

func (r *Runner) runOnce(name string, fn Job) {
	start := time.Now()
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic в задаче %s: %v", name, rec)
			r.log.Error("фоновая задача упала", zap.String("job", name), zap.Error(err))
			observability.CaptureErrTags(err, map[string]string{"component": "job", "job": name})
		}
		metrics.ObserveJob(name, time.Since(start), err)
	}()
	if err = fn(r.ctx); err != nil {
		r.log.Warn("ошибка фоновой задачи", zap.String("job", name), zap.Error(err))
	}
}

// Wait ждёт завершения всех задач после отмены контекста.
func (r *Runner) Wait() { r.wg.Wait() }
