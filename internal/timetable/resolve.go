package timetable

import "github.com/Spok95/classroom-attendance/internal/models"

// Resolve возвращает первый в порядке определения период, чьё окно
// [Start, End] содержит now. При пересечении окон побеждает объявленный раньше.
func Resolve(now models.ClockTime, periods []models.Period) (models.Period, bool) {
	for _, p := range periods {
		if p.Contains(now) {
			return p, true
		}
	}
	return models.Period{}, false
}
