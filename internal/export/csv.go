package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Spok95/classroom-attendance/internal/models"
)

// Header: заголовок файла журнала.
var Header = []string{"identity", "date", "time", "period_id"}

// legacyHeader: заголовок Attendance.csv старой версии; дописываем и в такие файлы.
var legacyHeader = []string{"name", "date", "time", "period"}

var ErrHeaderMismatch = errors.New("заголовок файла журнала не совпадает")

// CSVWriter дописывает записи в плоский CSV-файл. Существующий файл не
// переписывается: заголовок пишется только при создании.
type CSVWriter struct {
	Path string
}

func (w *CSVWriter) Name() string { return "csv" }

func (w *CSVWriter) Flush(_ context.Context, records []models.AttendanceRecord) error {
	if w.Path == "" {
		return errors.New("csv: не задан путь файла журнала")
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("csv: каталог %s: %w", dir, err)
		}
	}

	needHeader, needNewline, err := inspect(w.Path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csv: открыть %s: %w", w.Path, err)
	}
	bw := bufio.NewWriter(f)
	if needNewline {
		_ = bw.WriteByte('\n')
	}
	cw := csv.NewWriter(bw)
	if needHeader {
		_ = cw.Write(Header)
	}
	for _, r := range records {
		_ = cw.Write([]string{r.Identity, r.Date, r.Time(), r.PeriodID})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: запись %s: %w", w.Path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: запись %s: %w", w.Path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: sync %s: %w", w.Path, err)
	}
	return f.Close()
}

// inspect проверяет существующий файл: нужен ли заголовок и не оборвана ли последняя строка.
func inspect(path string) (needHeader, needNewline bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("csv: открыть %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return false, false, fmt.Errorf("csv: stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		return true, false, nil
	}

	head, err := csv.NewReader(bufio.NewReader(f)).Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return false, false, fmt.Errorf("csv: заголовок %s: %w", path, err)
	}
	if !headerMatches(head, Header) && !headerMatches(head, legacyHeader) {
		return false, false, fmt.Errorf("csv: %s: %w: %v", path, ErrHeaderMismatch, head)
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, st.Size()-1); err != nil {
		return false, false, fmt.Errorf("csv: чтение %s: %w", path, err)
	}
	return false, last[0] != '\n', nil
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(got[i], "\ufeff"))) != want[i] {
			return false
		}
	}
	return true
}

// ReadCSV читает файл журнала (новый или старый заголовок). Время отметки
// собирается из даты и времени в loc.
func ReadCSV(path string, loc *time.Location) ([]models.AttendanceRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: открыть %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = len(Header)
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: заголовок %s: %w", path, err)
	}
	if !headerMatches(head, Header) && !headerMatches(head, legacyHeader) {
		return nil, fmt.Errorf("csv: %s: %w: %v", path, ErrHeaderMismatch, head)
	}

	var out []models.AttendanceRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %s: %w", path, err)
		}
		ts, err := time.ParseInLocation(models.DateLayout+" "+models.ClockLayout, row[1]+" "+row[2], loc)
		if err != nil {
			return nil, fmt.Errorf("csv: %s: строка %v: %w", path, row, err)
		}
		out = append(out, models.AttendanceRecord{
			Identity:  row[0],
			Date:      row[1],
			Timestamp: ts,
			PeriodID:  row[3],
		})
	}
	return out, nil
}
