package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ApplyDefaultExcelFormatting: жирный заголовок, автофильтр по первой строке,
// ширина колонок по содержимому (с потолком).
func ApplyDefaultExcelFormatting(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return nil
	}
	last := colName(cols)

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
	}
	_ = f.AutoFilter(sheet, "A1:"+last+"1", nil)

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = 10
	}
	for rIdx, row := range rows {
		for cIdx, v := range row {
			w := float64(visualLen(v)) * 1.1
			if rIdx == 0 {
				w += 1.5
			}
			widths[cIdx] = max(widths[cIdx], min(w, 60))
		}
	}
	for i, w := range widths {
		col := colName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// BuildAttendanceReportFilename: имя файла отчёта за диапазон дат.
func BuildAttendanceReportFilename(from, to string) string {
	name := fmt.Sprintf("Посещаемость — %s.xlsx", cleanName(from))
	if to != "" && to != from {
		name = fmt.Sprintf("Посещаемость — %s — %s.xlsx", cleanName(from), cleanName(to))
	}
	return sanitizeFileName(name)
}

// 1 -> A; 27 -> AA
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

// visualLen считает руны, табуляцию как 4.
func visualLen(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "—"
	}
	return s
}
