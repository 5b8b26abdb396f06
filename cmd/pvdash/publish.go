package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/internal/publisher"
	"github.com/jgoulah/pvdash/pkg/models"
)

var (
	publishSince string
	publishUntil string
	publishAll   bool
	publishLimit int
	publishStats bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish archived daily summaries to MQTT and Home Assistant",
	Long:  `Reads archived daily summaries from the database and publishes them to the sinks enabled in config.`,
	Args:  cobra.NoArgs,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishSince, "since", "", "Only publish data since this date (YYYY-MM-DD or relative like 7d)")
	publishCmd.Flags().StringVar(&publishUntil, "until", "", "Only publish data until this date (YYYY-MM-DD)")
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all records (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of records to publish (0 = no limit)")
	publishCmd.Flags().BoolVar(&publishStats, "stats", false, "Ask Home Assistant to generate statistics after publishing")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !cfg.MQTT.Enabled && !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("neither MQTT nor Home Assistant is enabled in config")
	}

	// Create publisher
	pub, err := publisher.New(cfg.MQTT, cfg.HomeAssistant)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Get summaries based on --all flag
	var data []models.ArchivedSummary
	if publishAll {
		data, err = db.ListSummaries()
	} else {
		data, err = db.ListUnpublished()
	}
	if err != nil {
		return fmt.Errorf("listing summaries: %w", err)
	}

	if len(data) == 0 {
		if publishAll {
			fmt.Println("No data found")
		} else {
			fmt.Println("No unpublished data found")
		}
		return nil
	}

	// Filter by date range if specified
	days := make([]string, len(data))
	for i, record := range data {
		days[i] = record.Date
	}
	inRange, err := filterDays(days, publishSince, publishUntil)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(inRange))
	for _, day := range inRange {
		keep[day] = true
	}
	filteredData := make([]models.ArchivedSummary, 0, len(data))
	for _, record := range data {
		if keep[record.Date] {
			filteredData = append(filteredData, record)
		}
	}

	if len(filteredData) == 0 {
		fmt.Println("No data in date range")
		return nil
	}

	// Apply limit if specified
	if publishLimit > 0 && len(filteredData) > publishLimit {
		filteredData = filteredData[:publishLimit]
		fmt.Printf("Limiting to %d records (--limit flag)\n", publishLimit)
	}

	// Publish each record
	fmt.Printf("Publishing %d records...\n", len(filteredData))
	published := 0
	for i, record := range filteredData {
		fmt.Printf("[%d/%d] Publishing %s (%.2f kWh)... ", i+1, len(filteredData), record.Date, record.EnergyMeteredKWh)
		if err := pub.Publish(cmd.Context(), record.DailySummary); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}

		// Mark record as published in database
		if err := db.MarkPublished(record.ID); err != nil {
			fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Printf("✓\n")
		}
		published++
	}

	fmt.Printf("\nSuccessfully published %d/%d records\n", published, len(filteredData))

	if publishStats && published > 0 {
		fmt.Print("Generating Home Assistant statistics... ")
		if err := pub.GenerateStatistics(cmd.Context()); err != nil {
			return fmt.Errorf("generating statistics: %w", err)
		}
		fmt.Println("✓")
	}
	return nil
}
