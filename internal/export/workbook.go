package export

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/classroom-attendance/internal/models"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

type Workbook struct {
	File *excelize.File
}

const (
	sheetJournal = "Журнал"
	sheetSummary = "Сводка"
	sheetPeriods = "По урокам"
)

// NewWorkbook собирает книгу из листов; стандартный Sheet1 переименовывается в первый лист.
func NewWorkbook(sheets []SheetSpec) (wb *Workbook, err error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("нет листов для книги")
	}
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}

		for c, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(c+1))
			if err := f.SetCellStr(s.Title, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(s.Title, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		if err := ApplyDefaultExcelFormatting(f, s.Title); err != nil {
			return nil, fmt.Errorf("format %s: %w", s.Title, err)
		}
	}
	return &Workbook{File: f}, nil
}

// NewAttendanceWorkbook: журнал отметок, сводка по каждому человеку и
// таблица человек × урок с числом отметок.
func NewAttendanceWorkbook(records []models.AttendanceRecord) (*Workbook, error) {
	journal := SheetSpec{
		Title:  sheetJournal,
		Header: []string{"Ученик", "Дата", "Время", "Урок"},
	}
	for _, r := range records {
		journal.Rows = append(journal.Rows, []string{r.Identity, r.Date, r.Time(), r.PeriodID})
	}
	summary := SheetSpec{
		Title:  sheetSummary,
		Header: []string{"Ученик", "Отметок", "Дней", "Первая дата", "Последняя дата"},
		Rows:   summarize(records),
	}
	return NewWorkbook([]SheetSpec{journal, summary, byPeriod(records)})
}

func byPeriod(records []models.AttendanceRecord) SheetSpec {
	counts := map[string]map[string]int{}
	periodSet := map[string]struct{}{}
	for _, r := range records {
		if counts[r.Identity] == nil {
			counts[r.Identity] = map[string]int{}
		}
		counts[r.Identity][r.PeriodID]++
		periodSet[r.PeriodID] = struct{}{}
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	spec := SheetSpec{Title: sheetPeriods, Header: append([]string{"Ученик"}, periods...)}
	for _, n := range names {
		row := []string{n}
		for _, p := range periods {
			row = append(row, strconv.Itoa(counts[n][p]))
		}
		spec.Rows = append(spec.Rows, row)
	}
	return spec
}

func summarize(records []models.AttendanceRecord) [][]string {
	type acc struct {
		marks       int
		days        map[string]struct{}
		first, last string
	}
	by := map[string]*acc{}
	for _, r := range records {
		a, ok := by[r.Identity]
		if !ok {
			a = &acc{days: map[string]struct{}{}, first: r.Date, last: r.Date}
			by[r.Identity] = a
		}
		a.marks++
		a.days[r.Date] = struct{}{}
		if r.Date < a.first {
			a.first = r.Date
		}
		if r.Date > a.last {
			a.last = r.Date
		}
	}
	names := make([]string, 0, len(by))
	for n := range by {
		names = append(names, n)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, n := range names {
		a := by[n]
		rows = append(rows, []string{n, strconv.Itoa(a.marks), strconv.Itoa(len(a.days)), a.first, a.last})
	}
	return rows
}

func (w *Workbook) SaveAs(path string) error {
	return w.File.SaveAs(path)
}

func (w *Workbook) Close() error {
	return w.File.Close()
}
