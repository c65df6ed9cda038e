package models

import (
	"fmt"
	"time"
)

// ClockTime: время суток в секундах от полуночи, без даты.
type ClockTime int

const ClockLayout = "15:04:05"

const secondsPerDay = 24 * 60 * 60

// ParseClock разбирает "HH:MM:SS".
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("время %q: ожидается HH:MM:SS: %w", s, err)
	}
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// ClockOf возвращает время суток момента t (доли секунды отбрасываются).
func ClockOf(t time.Time) ClockTime {
	h, m, s := t.Clock()
	return ClockTime(h*3600 + m*60 + s)
}

func (c ClockTime) String() string {
	v := int(c) % secondsPerDay
	return fmt.Sprintf("%02d:%02d:%02d", v/3600, (v/60)%60, v%60)
}

// On возвращает момент с этим временем суток в дату day.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(c) * time.Second)
}

// Period: окно урока внутри дня. Границы включаются обе.
type Period struct {
	ID    string
	Start ClockTime
	End   ClockTime
}

func (p Period) Contains(now ClockTime) bool {
	return p.Start <= now && now <= p.End
}

func (p Period) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("пустой идентификатор периода")
	}
	if p.Start > p.End {
		return fmt.Errorf("период %s: начало %s позже окончания %s", p.ID, p.Start, p.End)
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%s [%s–%s]", p.ID, p.Start, p.End)
}
