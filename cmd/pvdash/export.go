package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/internal/export"
)

var (
	exportFormats string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the daily summary and overlay as XLSX, PDF or CSV",
	Long:  `Writes the requested formats concurrently into the output directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormats, "format", "xlsx,pdf,csv", "Comma separated formats (xlsx, pdf, csv)")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Output directory")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	formats, err := export.ParseFormats(exportFormats)
	if err != nil {
		return err
	}

	v, err := loadView(cmd.Context(), cmd.OutOrStdout(), args)
	if err != nil {
		return err
	}

	report, err := export.NewReport(v)
	if err != nil {
		return err
	}

	paths, err := report.WriteAll(cmd.Context(), exportOut, formats)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	for _, path := range paths {
		size := "?"
		if info, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Printf("Wrote %s (%s)\n", path, size)
	}

	return nil
}
