package timetable

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Spok95/classroom-attendance/internal/models"
)

// ErrInvalid: ошибка конфигурации расписания, фатальна при старте.
var ErrInvalid = errors.New("некорректное расписание")

// Timetable: неизменяемый набор периодов в порядке объявления.
type Timetable struct {
	periods []models.Period
	byID    map[string]int
}

func New(periods []models.Period) (*Timetable, error) {
	tt := &Timetable{
		periods: make([]models.Period, 0, len(periods)),
		byID:    make(map[string]int, len(periods)),
	}
	for i, p := range periods {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: строка %d: %v", ErrInvalid, i+1, err)
		}
		if _, dup := tt.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: период %s объявлен дважды", ErrInvalid, p.ID)
		}
		tt.byID[p.ID] = len(tt.periods)
		tt.periods = append(tt.periods, p)
	}
	return tt, nil
}

// Load читает расписание из CSV или YAML, формат: по расширению файла.
func Load(path string) (*Timetable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("расписание %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var periods []models.Period
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		periods, err = parseYAML(f)
	default:
		periods, err = parseCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("расписание %s: %w", path, err)
	}
	tt, err := New(periods)
	if err != nil {
		return nil, fmt.Errorf("расписание %s: %w", path, err)
	}
	return tt, nil
}

func (t *Timetable) Periods() []models.Period {
	out := make([]models.Period, len(t.periods))
	copy(out, t.periods)
	return out
}

func (t *Timetable) Len() int { return len(t.periods) }

func (t *Timetable) Find(id string) (models.Period, bool) {
	i, ok := t.byID[id]
	if !ok {
		return models.Period{}, false
	}
	return t.periods[i], true
}

func (t *Timetable) Resolve(now models.ClockTime) (models.Period, bool) {
	if t == nil {
		return models.Period{}, false
	}
	return Resolve(now, t.periods)
}
