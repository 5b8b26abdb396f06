package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Archive the daily summaries of an export",
	Long: `Stores the per-day summaries of the export in the local SQLite database.
Days that are already archived are replaced and marked unpublished. Raw samples
are not stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd.Context(), cmd.OutOrStdout(), args)
	if err != nil {
		return err
	}

	rows := v.Daily()
	if len(rows) == 0 {
		fmt.Println("No days to import")
		return nil
	}

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.UpsertSummaries(rows, v.Source()); err != nil {
		return fmt.Errorf("archiving summaries: %w", err)
	}

	fmt.Printf("Archived %d days (%s to %s) from %s\n", len(rows), rows[0].Date, rows[len(rows)-1].Date, v.Source())
	return nil
}
