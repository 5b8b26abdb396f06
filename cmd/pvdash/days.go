package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var daysCmd = &cobra.Command{
	Use:   "days [file]",
	Short: "List the days present in an export",
	Long:  `Prints the distinct days of the export in the order they first appear.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDays,
}

func init() {
	rootCmd.AddCommand(daysCmd)
}

func runDays(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd.Context(), cmd.OutOrStdout(), args)
	if err != nil {
		return err
	}

	days := v.Days()
	for _, day := range days {
		fmt.Println(day)
	}
	fmt.Printf("%d days\n", len(days))

	return nil
}
