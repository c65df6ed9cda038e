package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Spok95/classroom-attendance/internal/export"
	"github.com/Spok95/classroom-attendance/internal/models"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Выгрузить журнал в Excel (журнал + сводка)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := location()
		if err != nil {
			return err
		}
		records, err := export.ReadCSV(ledgerPath(args), loc)
		if err != nil {
			return err
		}
		date, _ := cmd.Flags().GetString("date")
		records = filterDate(records, date)

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			from, to := dateRange(records)
			out = filepath.Join(filepath.Dir(ledgerPath(args)), export.BuildAttendanceReportFilename(from, to))
		}
		wb, err := export.NewAttendanceWorkbook(records)
		if err != nil {
			return err
		}
		defer func() { _ = wb.Close() }()
		if err := wb.SaveAs(out); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Записано %d отметок в %s\n", len(records), out)
		return err
	},
}

func init() {
	exportCmd.Flags().String("out", "", "Output .xlsx path (default: named after the date range)")
	exportCmd.Flags().String("date", "", "Only records of this date (YYYY-MM-DD)")
}

func dateRange(records []models.AttendanceRecord) (from, to string) {
	for _, r := range records {
		if from == "" || r.Date < from {
			from = r.Date
		}
		if r.Date > to {
			to = r.Date
		}
	}
	return from, to
}
