//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Spok95/classroom-attendance/internal/db"
)

type DBHandle struct {
	DB     *sql.DB
	URL    string
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start поднимает Postgres в контейнере и накатывает миграции журнала.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("attendance"),
		postgres.WithUsername("attendance"),
		postgres.WithPassword("attendance"),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	sqlDB, err := sql.Open("postgres", uri)
	if err != nil {
		return fail(err)
	}
	if err := waitReady(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return fail(err)
	}
	if err := db.New(sqlDB, db.Postgres).Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return fail(err)
	}

	return &DBHandle{
		DB:     sqlDB,
		URL:    uri,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

func waitReady(ctx context.Context, sqlDB *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := sqlDB.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
