// Package db ведёт необязательное зеркало журнала посещаемости в Postgres или SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Backend string

const (
	Postgres Backend = "postgres"
	SQLite   Backend = "sqlite"
)

// BackendFor выбирает Postgres для postgres:// и postgresql://, иначе это путь к файлу SQLite.
func BackendFor(url string) Backend {
	u := strings.ToLower(url)
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return Postgres
	}
	return SQLite
}

type Store struct {
	DB      *sql.DB
	Backend Backend
}

// Open открывает базу и проверяет соединение. Схему не трогает, см. Migrate.
func Open(ctx context.Context, url string) (*Store, error) {
	backend := BackendFor(url)
	driver := "pgx"
	dsn := url
	if backend == SQLite {
		driver = "sqlite"
		dsn = strings.TrimPrefix(url, "sqlite://")
	}
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("открытие базы (%s): %w", backend, err)
	}
	if backend == SQLite {
		// один писатель, иначе "database is locked"
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("подключение к базе (%s): %w", backend, err)
	}
	return New(sqlDB, backend), nil
}

func New(sqlDB *sql.DB, backend Backend) *Store {
	return &Store{DB: sqlDB, Backend: backend}
}

func (s *Store) Close() error { return s.DB.Close() }

// rebind переводит ? в $1, $2… для Postgres.
func (s *Store) rebind(q string) string {
	if s.Backend != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
