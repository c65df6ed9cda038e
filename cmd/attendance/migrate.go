package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Spok95/classroom-attendance/internal/config"
	"github.com/Spok95/classroom-attendance/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции базы-зеркала журнала",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := v.GetString(config.KeyDatabaseURL)
		if url == "" {
			return errors.New("не задан " + config.KeyDatabaseURL)
		}
		store, err := db.Open(cmd.Context(), url)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		ver, err := store.Version(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Схема %s: версия %d\n", store.Backend, ver)
		return err
	},
}
