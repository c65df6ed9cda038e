package timetable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Spok95/classroom-attendance/internal/models"
)

// Колонки CSV в формате TimeTable.csv: Period,Start_Time,End_Time.
const (
	colPeriod = "period"
	colStart  = "start_time"
	colEnd    = "end_time"
)

func parseCSV(r io.Reader) ([]models.Period, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: заголовок: %v", ErrInvalid, err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range []string{colPeriod, colStart, colEnd} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: нет колонки %q", ErrInvalid, c)
		}
	}

	var out []models.Period
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: строка %d: %v", ErrInvalid, line, err)
		}
		if isBlank(rec) {
			continue
		}
		p, err := buildPeriod(field(rec, idx[colPeriod]), field(rec, idx[colStart]), field(rec, idx[colEnd]))
		if err != nil {
			return nil, fmt.Errorf("%w: строка %d: %v", ErrInvalid, line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

type yamlTimetable struct {
	Periods []struct {
		ID    string `yaml:"id"`
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"periods"`
}

func parseYAML(r io.Reader) ([]models.Period, error) {
	var doc yamlTimetable
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	out := make([]models.Period, 0, len(doc.Periods))
	for i, row := range doc.Periods {
		p, err := buildPeriod(row.ID, row.Start, row.End)
		if err != nil {
			return nil, fmt.Errorf("%w: periods[%d]: %v", ErrInvalid, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func buildPeriod(id, start, end string) (models.Period, error) {
	s, err := models.ParseClock(strings.TrimSpace(start))
	if err != nil {
		return models.Period{}, err
	}
	e, err := models.ParseClock(strings.TrimSpace(end))
	if err != nil {
		return models.Period{}, err
	}
	p := models.Period{ID: strings.TrimSpace(id), Start: s, End: e}
	return p, p.Validate()
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
