// Package archive копирует файл журнала в объектное хранилище после сохранения.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/models"
)

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
}

// FileArchiver загружает файл Path под ключом <Prefix>/<дата>/<имя файла>.
// Должен стоять после CSV в списке приёмников: архивируется уже записанный файл.
type FileArchiver struct {
	Store    ObjectStore
	Path     string
	Prefix   string
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

func (a *FileArchiver) Name() string { return "s3" }

func (a *FileArchiver) Key() string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	t := now()
	if a.Location != nil {
		t = t.In(a.Location)
	}
	return path.Join(a.Prefix, t.Format(models.DateLayout), filepath.Base(a.Path))
}

func (a *FileArchiver) Flush(ctx context.Context, _ []models.AttendanceRecord) error {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return fmt.Errorf("архив: чтение %s: %w", a.Path, err)
	}
	key := a.Key()
	if err := a.Store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("архив: загрузка %s: %w", key, err)
	}
	if a.Logger != nil {
		a.Logger.Info("журнал выгружен в архив", zap.String("key", key), zap.Int("bytes", len(data)))
	}
	return nil
}
