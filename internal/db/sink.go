package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/classroom-attendance/internal/models"
)

const insertRecord = `INSERT INTO attendance (identity, date, time, period_id, recorded_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (identity, date, period_id) DO NOTHING`

// Sink дописывает снимок журнала в таблицу attendance. Уже записанные
// отметки пропускаются, поэтому повторный вызов безопасен.
type Sink struct {
	Store *Store
}

func (s *Sink) Name() string { return "db" }

func (s *Sink) Flush(ctx context.Context, records []models.AttendanceRecord) error {
	_, err := s.Store.Insert(ctx, records)
	return err
}

// Insert возвращает число действительно добавленных строк.
func (s *Store) Insert(ctx context.Context, records []models.AttendanceRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertRecord))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var added int64
	for _, r := range records {
		res, err := stmt.ExecContext(ctx, r.Identity, r.Date, r.Time(), r.PeriodID, r.Timestamp.UTC())
		if err != nil {
			return 0, fmt.Errorf("insert %s/%s/%s: %w", r.Identity, r.Date, r.PeriodID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// List читает записи за дату (пустая: все) в порядке вставки.
func (s *Store) List(ctx context.Context, date string, loc *time.Location) ([]models.AttendanceRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	q := `SELECT identity, date, time, period_id FROM attendance`
	var args []any
	if date != "" {
		q += ` WHERE date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY recorded_at, identity`

	rows, err := s.DB.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		var clock string
		if err := rows.Scan(&r.Identity, &r.Date, &clock, &r.PeriodID); err != nil {
			return nil, err
		}
		ts, err := time.ParseInLocation(models.DateLayout+" "+models.ClockLayout, r.Date+" "+clock, loc)
		if err != nil {
			return nil, fmt.Errorf("запись %s/%s: %w", r.Identity, r.Date, err)
		}
		r.Timestamp = ts
		out = append(out, r)
	}
	return out, rows.Err()
}
