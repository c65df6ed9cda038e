package clock

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Fake управляется вручную, Sleep мгновенно сдвигает время на d.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int

	// OnSleep вызывается после каждого сдвига (вне блокировки).
	OnSleep func(now time.Time)
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()
	return now
}

func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.sleeps++
	now := f.now
	hook := f.OnSleep
	f.mu.Unlock()

	if hook != nil {
		hook(now)
	}
	runtime.Gosched()
	return ctx.Err()
}

// Sleeps: сколько раз вызывался Sleep.
func (f *Fake) Sleeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sleeps
}
