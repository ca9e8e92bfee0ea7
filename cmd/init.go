package cmd

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/MrArkon/Rustic/rustic"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database and run migrations",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if cfg.DatabaseType == "" {
			log.Fatal("Environment variable RUSTIC_DATABASE_TYPE not set (must be one of: sqlite, postgres)")
		}
		if cfg.Database == "" {
			log.Fatal(
				"Environment variable RUSTIC_DATABASE not set (must be a valid " +
					"database connection string or sqlite file path)",
			)
		}

		_, err := rustic.CreateDB(
			ctx,
			cfg.DatabaseType,
			cfg.Database,
			tint.NewHandler(
				cmd.ErrOrStderr(),
				&tint.Options{Level: slog.LevelInfo},
			),
			cfg.DatabaseSlowThreshold,
		)
		if err != nil {
			log.Fatalf("Error creating database: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(
			out,
			"Initialization complete. You can now start the bot with the 'run' subcommand.",
		)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
