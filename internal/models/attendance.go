package models

import "time"

const DateLayout = "2006-01-02"

// RecordKey задаёт дедупликацию: одна отметка на человека, дату и период.
type RecordKey struct {
	Identity string
	Date     string
	PeriodID string
}

type AttendanceRecord struct {
	Identity  string
	Date      string
	Timestamp time.Time
	PeriodID  string
}

func (r AttendanceRecord) Key() RecordKey {
	return RecordKey{Identity: r.Identity, Date: r.Date, PeriodID: r.PeriodID}
}

// Time: время отметки в формате HH:MM:SS.
func (r AttendanceRecord) Time() string {
	return r.Timestamp.Format(ClockLayout)
}
