// Package ledger хранит отметки посещаемости текущего запуска: только
// добавление, одна запись на (человек, дата, период).
package ledger

import (
	"sync"
	"time"

	"github.com/Spok95/classroom-attendance/internal/models"
)

type Ledger struct {
	mu      sync.Mutex
	records []models.AttendanceRecord
	index   map[models.RecordKey]struct{}
}

func New() *Ledger {
	return &Ledger{index: make(map[models.RecordKey]struct{})}
}

// TryRecord добавляет отметку, если по ключу её ещё нет. Проверка и вставка
// выполняются под одной блокировкой; true: запись добавлена.
func (l *Ledger) TryRecord(identity, date, periodID string, ts time.Time) bool {
	rec := models.AttendanceRecord{
		Identity:  identity,
		Date:      date,
		Timestamp: ts,
		PeriodID:  periodID,
	}
	key := rec.Key()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.index[key]; seen {
		return false
	}
	l.index[key] = struct{}{}
	l.records = append(l.records, rec)
	return true
}

// Has сообщает, отмечен ли уже человек в периоде.
func (l *Ledger) Has(key models.RecordKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[key]
	return ok
}

// Snapshot: копия записей в порядке вставки; журнал не меняется.
func (l *Ledger) Snapshot() []models.AttendanceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AttendanceRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
