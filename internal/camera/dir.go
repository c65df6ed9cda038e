package camera

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Spok95/classroom-attendance/internal/capture"
)

// ImageExts: расширения, которые считаются изображениями.
var ImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true}

func IsImage(name string) bool {
	return ImageExts[strings.ToLower(filepath.Ext(name))]
}

// DirSource отдаёт изображения каталога по порядку имён. Без Loop после
// последнего файла возвращает ErrNoFrame, как отключённая камера.
type DirSource struct {
	dir   string
	loop  bool
	files []string

	mu     sync.Mutex
	next   int
	seq    uint64
	closed bool
}

func NewDirSource(dir string, loop bool) (*DirSource, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("каталог кадров: %w", err)
	}
	var files []string
	for _, e := range ents {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("каталог кадров %s: нет изображений", dir)
	}
	return &DirSource{dir: dir, loop: loop, files: files}, nil
}

func (s *DirSource) Read(context.Context) (capture.Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return capture.Frame{}, fmt.Errorf("%w: источник закрыт", capture.ErrNoFrame)
	}
	if s.next >= len(s.files) {
		if !s.loop {
			s.mu.Unlock()
			return capture.Frame{}, fmt.Errorf("%w: кадры закончились", capture.ErrNoFrame)
		}
		s.next = 0
	}
	path := s.files[s.next]
	s.next++
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return capture.Frame{}, fmt.Errorf("%w: %v", capture.ErrNoFrame, err)
	}
	return capture.Frame{
		Seq:         seq,
		Timestamp:   time.Now(),
		Data:        data,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Source:      path,
	}, nil
}

func (s *DirSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *DirSource) Len() int { return len(s.files) }
