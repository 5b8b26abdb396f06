package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/pkg/models"
)

var (
	rawDays  []string
	rawSince string
	rawUntil string
)

var rawCmd = &cobra.Command{
	Use:   "raw [file]",
	Short: "Print the raw samples of selected days",
	Long:  `Prints the samples of the selected days in file order. Without filters every day is printed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRaw,
}

func init() {
	rawCmd.Flags().StringSliceVar(&rawDays, "days", nil, "Days to print (YYYY-MM-DD, comma separated)")
	rawCmd.Flags().StringVar(&rawSince, "since", "", "Only days since this date (YYYY-MM-DD or relative like 7d)")
	rawCmd.Flags().StringVar(&rawUntil, "until", "", "Only days until this date (YYYY-MM-DD)")
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd.Context(), cmd.OutOrStdout(), args)
	if err != nil {
		return err
	}

	days := rawDays
	if len(days) == 0 {
		days = v.Days()
	}

	days, err = filterDays(days, rawSince, rawUntil)
	if err != nil {
		return err
	}

	samples := v.Select(days)
	if len(samples) == 0 {
		fmt.Println("No samples for the selected days")
		return nil
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("%-20s  %12s  %14s\n", "Timestamp", "Power (W)", "Energy (kWh)")
	fmt.Println("--------------------------------------------------")
	for _, s := range samples {
		fmt.Printf("%-20s  %12.1f  %14.3f\n", s.Timestamp.Format(models.DayLayout+" "+models.TimeOfDayLayout), s.PowerW, s.EnergyTodayKWh)
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("%s samples\n", humanize.Comma(int64(len(samples))))

	return nil
}

// filterDays keeps the days within the optional since/until bounds
func filterDays(days []string, since, until string) ([]string, error) {
	var sinceDay, untilDay string
	if since != "" {
		t, err := parseDate(since)
		if err != nil {
			return nil, fmt.Errorf("parsing --since date: %w", err)
		}
		sinceDay = t.Format(models.DayLayout)
	}
	if until != "" {
		t, err := parseDate(until)
		if err != nil {
			return nil, fmt.Errorf("parsing --until date: %w", err)
		}
		untilDay = t.Format(models.DayLayout)
	}

	filtered := make([]string, 0, len(days))
	for _, day := range days {
		if sinceDay != "" && day < sinceDay {
			continue
		}
		if untilDay != "" && day > untilDay {
			continue
		}
		filtered = append(filtered, day)
	}
	return filtered, nil
}

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d")
func parseDate(dateStr string) (time.Time, error) {
	// Try absolute date format first
	t, err := time.Parse(models.DayLayout, dateStr)
	if err == nil {
		return t, nil
	}

	// Try relative format (e.g., "7d" for 7 days ago)
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		daysStr := dateStr[:len(dateStr)-1]
		var days int
		if _, err := fmt.Sscanf(daysStr, "%d", &days); err == nil {
			return time.Now().AddDate(0, 0, -days), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}
