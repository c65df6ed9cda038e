// Package capturetest содержит поддельные камера и распознаватель для тестов.
package capturetest

import (
	"context"
	"sync"

	"github.com/Spok95/classroom-attendance/internal/capture"
)

// Source отдаёт Limit кадров (0: без ограничения), затем capture.ErrNoFrame.
type Source struct {
	mu     sync.Mutex
	Limit  int
	reads  int
	closed bool

	// OnRead вызывается перед возвратом кадра с его номером (с 1).
	OnRead func(seq int)
}

func (s *Source) Read(context.Context) (capture.Frame, error) {
	s.mu.Lock()
	if s.closed || (s.Limit > 0 && s.reads >= s.Limit) {
		s.mu.Unlock()
		return capture.Frame{}, capture.ErrNoFrame
	}
	s.reads++
	seq := s.reads
	hook := s.OnRead
	s.mu.Unlock()

	if hook != nil {
		hook(seq)
	}
	return capture.Frame{Seq: uint64(seq), Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg", Source: "fake"}, nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Recognizer возвращает Script[i] на i-й вызов; после конца сценария:
// последний элемент. Err, если задан, возвращается всегда.
type Recognizer struct {
	mu     sync.Mutex
	Script [][]string
	Err    error
	calls  int
}

func (r *Recognizer) Recognize(context.Context, capture.Frame) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.Script) == 0 {
		return nil, nil
	}
	i := r.calls - 1
	if i >= len(r.Script) {
		i = len(r.Script) - 1
	}
	return append([]string(nil), r.Script[i]...), nil
}

func (r *Recognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
