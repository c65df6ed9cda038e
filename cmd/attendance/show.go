package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/Spok95/classroom-attendance/internal/config"
	"github.com/Spok95/classroom-attendance/internal/export"
	"github.com/Spok95/classroom-attendance/internal/models"
)

var showCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Показать журнал посещаемости таблицей",
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
		return printLedger(cmd.OutOrStdout(), filterDate(records, date))
	},
}

func init() {
	showCmd.Flags().String("date", "", "Only records of this date (YYYY-MM-DD)")
}

func ledgerPath(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return v.GetString(config.KeyOutput)
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(v.GetString(config.KeyTZ))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.KeyTZ, err)
	}
	return loc, nil
}

func filterDate(records []models.AttendanceRecord, date string) []models.AttendanceRecord {
	if date == "" {
		return records
	}
	var out []models.AttendanceRecord
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

func printLedger(w io.Writer, records []models.AttendanceRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Identity", "Date", "Time", "Period"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(records))
	people := map[string]bool{}
	for i, r := range records {
		data = append(data, []string{fmt.Sprint(i + 1), r.Identity, r.Date, r.Time(), r.PeriodID})
		people[r.Identity] = true
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	names := make([]string, 0, len(people))
	for n := range people {
		names = append(names, n)
	}
	sort.Strings(names)
	bold := color.New(color.FgGreen, color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "%s отметок, %s человек\n", bold(len(records)), bold(len(names)))
	return err
}
