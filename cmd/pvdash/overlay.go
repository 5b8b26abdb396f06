package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/internal/overlay"
	"github.com/jgoulah/pvdash/pkg/models"
)

var (
	overlayColumn string
	overlayFill   bool
)

var overlayCmd = &cobra.Command{
	Use:   "overlay [file]",
	Short: "Print the multi-day time-of-day overlay",
	Long: `Prints the power of every day on the common 5-minute axis, followed by the
simple average, the average over generating days and the generating-day count
scaled by 50 (Generating*4). Absent samples are shown as "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOverlay,
}

func init() {
	overlayCmd.Flags().StringVar(&overlayColumn, "column", "", "Print a single column (a day, Average_simple, Average_generating or Generating*4)")
	overlayCmd.Flags().BoolVar(&overlayFill, "fill", false, "Show absent samples as 0")
	rootCmd.AddCommand(overlayCmd)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd.Context(), cmd.OutOrStdout(), args)
	if err != nil {
		return err
	}

	m, cols := v.Overlay()
	if overlayFill {
		m = m.Filled()
	}

	if overlayColumn != "" {
		values, err := m.Column(overlayColumn)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s  %12s\n", "Time", overlayColumn)
		for b, bucket := range m.Buckets {
			fmt.Printf("%-8s  %12s\n", bucket, values[b].Format(1))
		}
		return nil
	}

	printOverlay(m, cols)
	return nil
}

func printOverlay(m *overlay.Matrix, cols []string) {
	header := []string{fmt.Sprintf("%-8s", "Time")}
	for _, c := range cols[1:] {
		header = append(header, fmt.Sprintf("%18s", c))
	}
	fmt.Println(strings.Join(header, " "))

	for b, bucket := range m.Buckets {
		fields := []string{fmt.Sprintf("%-8s", bucket)}
		for d := range m.Days {
			fields = append(fields, fmt.Sprintf("%18s", models.NullFloat(m.Power[b][d]).Format(1)))
		}
		fields = append(fields,
			fmt.Sprintf("%18s", m.AverageSimple[b].Format(1)),
			fmt.Sprintf("%18s", m.AverageGenerating[b].Format(1)),
			fmt.Sprintf("%18.0f", m.GeneratingScaled[b]),
		)
		fmt.Println(strings.Join(fields, " "))
	}
}
