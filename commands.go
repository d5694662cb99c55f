package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sardor-M/p-website-backend/config"
	"github.com/Sardor-M/p-website-backend/database"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	var versioned bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the relational schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer database.New(db).Close()

			if versioned {
				err = database.RunMigrations(db)
			} else {
				err = database.Migrate(db, cfg.IsProduction())
			}
			if err != nil {
				log.Error().Err(err).Msg("Migration failed")
				return err
			}
			log.Info().Msg("Schema is up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&versioned, "sql", false, "run the versioned SQL migrations even outside production")
	return cmd
}

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	var (
		outPath    string
		reportOnly bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate GORM query helpers and report unmapped columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer database.New(db).Close()

			if reportOnly {
				report, err := database.ColumnMismatchReport(db)
				if err != nil {
					return err
				}
				for table, columns := range report {
					if len(columns) > 0 {
						fmt.Printf("%s: %v\n", table, columns)
					}
				}
				return nil
			}
			return database.GenerateQueries(db, outPath)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "./database/query", "output directory for generated code")
	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "only print the column mismatch report")
	return cmd
}
