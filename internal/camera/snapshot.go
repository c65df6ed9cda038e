// Package camera содержит источники кадров: снимок с IP-камеры по HTTP и
// воспроизведение каталога с изображениями.
package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Spok95/classroom-attendance/internal/capture"
)

// MaxFrameSize: ограничение на размер одного снимка.
const MaxFrameSize = 16 << 20

// SnapshotSource берёт кадр запросом GET к URL снимка камеры.
type SnapshotSource struct {
	url    string
	client *http.Client
	seq    atomic.Uint64

	mu     sync.Mutex
	closed bool
}

func NewSnapshotSource(url string, timeout time.Duration) *SnapshotSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SnapshotSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *SnapshotSource) Read(ctx context.Context) (capture.Frame, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return capture.Frame{}, fmt.Errorf("%w: камера закрыта", capture.ErrNoFrame)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return capture.Frame{}, fmt.Errorf("%w: %v", capture.ErrNoFrame, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return capture.Frame{}, fmt.Errorf("%w: %v", capture.ErrNoFrame, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return capture.Frame{}, fmt.Errorf("%w: http %d", capture.ErrNoFrame, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFrameSize))
	if err != nil {
		return capture.Frame{}, fmt.Errorf("%w: %v", capture.ErrNoFrame, err)
	}
	if len(data) == 0 {
		return capture.Frame{}, fmt.Errorf("%w: пустой снимок", capture.ErrNoFrame)
	}
	return capture.Frame{
		Seq:         s.seq.Add(1),
		Timestamp:   time.Now(),
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Source:      s.url,
	}, nil
}

// Close idempotent; последующие Read отдают ErrNoFrame.
func (s *SnapshotSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.client.CloseIdleConnections()
	return nil
}
