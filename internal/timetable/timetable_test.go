package timetable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "TimeTable.csv", "Period,Start_Time,End_Time\n"+
		"1,09:00:00,09:50:00\n"+
		"\n"+
		"2, 10:00:00, 10:50:00\n")

	tt, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, tt.Len())

	ps := tt.Periods()
	assert.Equal(t, "1", ps[0].ID)
	assert.Equal(t, "09:50:00", ps[0].End.String())
	assert.Equal(t, "10:00:00", ps[1].Start.String())

	p, ok := tt.Find("2")
	require.True(t, ok)
	assert.Equal(t, "10:50:00", p.End.String())
	_, ok = tt.Find("3")
	assert.False(t, ok)
}

func TestLoadCSVColumnOrder(t *testing.T) {
	path := writeFile(t, "tt.csv", "End_Time,Period,Start_Time\n09:50:00,1,09:00:00\n")
	tt, err := Load(path)
	require.NoError(t, err)
	p, ok := tt.Find("1")
	require.True(t, ok)
	assert.Equal(t, "09:00:00", p.Start.String())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "tt.yaml", `periods:
  - id: "1"
    start: "09:00:00"
    end: "09:50:00"
  - id: lab
    start: "10:00:00"
    end: "11:30:00"
`)
	tt, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tt.Len())
	p, ok := tt.Find("lab")
	require.True(t, ok)
	assert.Equal(t, "11:30:00", p.End.String())
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"missing column":  "Period,Start_Time\n1,09:00:00\n",
		"bad time":        "Period,Start_Time,End_Time\n1,9am,09:50:00\n",
		"start after end": "Period,Start_Time,End_Time\n1,10:00:00,09:00:00\n",
		"empty id":        "Period,Start_Time,End_Time\n,09:00:00,09:50:00\n",
		"duplicate id":    "Period,Start_Time,End_Time\n1,09:00:00,09:50:00\n1,10:00:00,10:50:00\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "tt.csv", body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(writeFile(t, "tt.yml", "periods:\n  - id: 1\n    start: nope\n    end: \"09:00:00\"\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyFileYieldsNoPeriods(t *testing.T) {
	tt, err := Load(writeFile(t, "tt.csv", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, tt.Len())
}
