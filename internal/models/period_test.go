package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:50:01")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(8*3600+50*60+1), c)
	assert.Equal(t, "08:50:01", c.String())

	for _, bad := range []string{"", "8:50", "25:00:00", "08:61:00", "utro"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockOfTruncatesFraction(t *testing.T) {
	ts := time.Date(2026, 10, 19, 8, 50, 0, 900_000_000, time.UTC)
	assert.Equal(t, "08:50:00", ClockOf(ts).String())
}

func TestClockOn(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	day := time.Date(2026, 10, 19, 23, 10, 0, 0, loc)
	c, _ := ParseClock("09:50:00")
	assert.Equal(t, time.Date(2026, 10, 19, 9, 50, 0, 0, loc), c.On(day))
}

func TestPeriodContainsInclusive(t *testing.T) {
	start, _ := ParseClock("08:00:00")
	end, _ := ParseClock("08:50:00")
	p := Period{ID: "1", Start: start, End: end}

	assert.True(t, p.Contains(start))
	assert.True(t, p.Contains(end))
	assert.False(t, p.Contains(end+1))
	assert.False(t, p.Contains(start-1))
}

func TestPeriodValidate(t *testing.T) {
	assert.Error(t, Period{ID: "", Start: 1, End: 2}.Validate())
	assert.Error(t, Period{ID: "1", Start: 3, End: 2}.Validate())
	assert.NoError(t, Period{ID: "1", Start: 2, End: 2}.Validate())
}

func TestRecordKeyAndTime(t *testing.T) {
	r := AttendanceRecord{
		Identity:  "alice",
		Date:      "2026-10-19",
		Timestamp: time.Date(2026, 10, 19, 9, 10, 3, 0, time.UTC),
		PeriodID:  "1",
	}
	assert.Equal(t, RecordKey{Identity: "alice", Date: "2026-10-19", PeriodID: "1"}, r.Key())
	assert.Equal(t, "09:10:03", r.Time())
}
