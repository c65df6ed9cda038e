package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Spok95/classroom-attendance/internal/clock"
	"github.com/Spok95/classroom-attendance/internal/config"
	"github.com/Spok95/classroom-attendance/internal/models"
	"github.com/Spok95/classroom-attendance/internal/timetable"
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Показать расписание и текущий урок",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		loc, err := location()
		if err != nil {
			return err
		}
		tt, err := timetable.Load(v.GetString(config.KeyTimetable))
		if err != nil {
			return err
		}
		return printPeriods(cmd, tt, clock.Real{Location: loc})
	},
}

func printPeriods(cmd *cobra.Command, tt *timetable.Timetable, clk clock.Clock) error {
	w := cmd.OutOrStdout()
	now := clk.Now()
	active, ok := tt.Resolve(models.ClockOf(now))

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Period", "Start", "End", ""})
	var data [][]string
	for _, p := range tt.Periods() {
		mark := ""
		if ok && p.ID == active.ID {
			mark = "<- now"
		}
		data = append(data, []string{p.ID, p.Start.String(), p.End.String(), mark})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if !ok {
		_, err := fmt.Fprintf(w, "%s: урока нет\n", now.Format(models.ClockLayout))
		return err
	}
	hl := color.New(color.FgYellow, color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "%s: идёт %s\n", now.Format(models.ClockLayout), hl(active.ID))
	return err
}
