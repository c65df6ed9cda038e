package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/Spok95/classroom-attendance/internal/db/migrations"
)

// goose хранит диалект и FS глобально.
var gooseMu sync.Mutex

func (s *Store) dialect() string {
	if s.Backend == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

func (s *Store) prepareGoose() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(s.dialect()); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	return nil
}

// Migrate накатывает встроенные миграции до последней версии.
func (s *Store) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := s.prepareGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.DB, "."); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}
	return nil
}

// Version: текущая версия схемы.
func (s *Store) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := s.prepareGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.DB)
}
