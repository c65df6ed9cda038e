package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Spok95/classroom-attendance/internal/config"
)

var version = "dev"

// v собирает значения по умолчанию, файл настроек, ATTENDANCE_* и флаги.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:               "attendance",
	Short:             "Учёт посещаемости уроков по камере и расписанию.",
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return loadConfigFile() },
}

func init() {
	cobra.OnInitialize(func() { config.SetDefaults(v) })

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (yaml)")
	pf.String(config.KeyTimetable, "timetable.csv", "Timetable file (.csv or .yaml)")
	pf.String(config.KeyOutput, "attendance.csv", "Attendance ledger CSV file")
	pf.String(config.KeyTZ, "Europe/Moscow", "Time zone for dates and periods")
	pf.String(config.KeyLogLevel, "info", "Log level: debug|info|warn|error")
	pf.String(config.KeyEnv, "dev", "Environment: dev|prod")
	pf.String(config.KeyDatabaseURL, "", "Optional database mirror: postgres:// URL or SQLite file")
	if err := v.BindPFlags(pf); err != nil {
		panic("bind root flags: " + err.Error())
	}

	rootCmd.AddCommand(runCmd, showCmd, exportCmd, migrateCmd, periodsCmd)
}

func loadConfigFile() error {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("attendance")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("файл настроек: %w", err)
		}
	}
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}
