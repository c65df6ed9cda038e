package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/classroom-attendance/internal/clock"
	"github.com/Spok95/classroom-attendance/internal/models"
	"github.com/Spok95/classroom-attendance/internal/timetable"
)

const ledgerCSV = `identity,date,time,period_id
alice,2026-10-19,09:00:05,P1
bob,2026-10-19,09:00:07,P1
alice,2026-10-20,10:01:00,P2
`

func writeLedger(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "attendance.csv")
	require.NoError(t, os.WriteFile(p, []byte(ledgerCSV), 0o644))
	return p
}

func rec(id, date string) models.AttendanceRecord {
	d, _ := time.Parse(models.DateLayout, date)
	return models.AttendanceRecord{Identity: id, Date: date, PeriodID: "P1", Timestamp: d.Add(9 * time.Hour)}
}

func TestPrintLedger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf, []models.AttendanceRecord{rec("alice", "2026-10-19"), rec("bob", "2026-10-19")}))
	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "09:00:00")
	assert.Contains(t, out, "2 отметок, 2 человек")
}

func TestFilterDateAndRange(t *testing.T) {
	recs := []models.AttendanceRecord{rec("a", "2026-10-20"), rec("b", "2026-10-19"), rec("c", "2026-10-21")}
	assert.Len(t, filterDate(recs, "2026-10-19"), 1)
	assert.Len(t, filterDate(recs, ""), 3)

	from, to := dateRange(recs)
	assert.Equal(t, "2026-10-19", from)
	assert.Equal(t, "2026-10-21", to)
}

func TestPrintPeriodsMarksActive(t *testing.T) {
	p1, _ := models.ParseClock("09:00:00")
	e1, _ := models.ParseClock("09:45:00")
	p2, _ := models.ParseClock("10:00:00")
	e2, _ := models.ParseClock("10:45:00")
	tt, err := timetable.New([]models.Period{{ID: "P1", Start: p1, End: e1}, {ID: "P2", Start: p2, End: e2}})
	require.NoError(t, err)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, printPeriods(cmd, tt, clock.NewFake(time.Date(2026, 10, 19, 10, 15, 0, 0, time.UTC))))
	assert.Contains(t, buf.String(), "<- now")
	assert.Contains(t, buf.String(), "идёт")

	buf.Reset()
	require.NoError(t, printPeriods(cmd, tt, clock.NewFake(time.Date(2026, 10, 19, 9, 50, 0, 0, time.UTC))))
	assert.NotContains(t, buf.String(), "<- now")
	assert.Contains(t, buf.String(), "урока нет")
}

func TestExportCommandWritesWorkbook(t *testing.T) {
	in := writeLedger(t)
	out := filepath.Join(t.TempDir(), "report.xlsx")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"export", in, "--out", out, "--tz", "UTC"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "3 отметок")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Contains(t, f.GetSheetList(), "Журнал")
}
