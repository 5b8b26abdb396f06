package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived daily summaries",
	Long:  `Displays all daily summaries stored in the database, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	data, err := db.ListSummaries()
	if err != nil {
		return fmt.Errorf("listing summaries: %w", err)
	}

	if len(data) == 0 {
		fmt.Println("No data found")
		return nil
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("%-12s  %10s  %10s  %8s  %9s\n", "Date", "kWh", "Pmax W", "Error %", "Published")
	fmt.Println("------------------------------------------------------------")

	var total float64
	for _, record := range data {
		published := "no"
		if record.Published {
			published = "yes"
		}
		fmt.Printf("%-12s  %10.2f  %10.0f  %8s  %9s\n",
			record.Date, record.EnergyMeteredKWh, record.PowerMaxW, record.EnergyErrorPct.Format(2), published)
		total += record.EnergyMeteredKWh
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %.2f kWh (%d records)\n", total, len(data))

	return nil
}
