package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jgoulah/pvdash/pkg/models"
)

var dailyMonthly bool

var dailyCmd = &cobra.Command{
	Use:   "daily [file]",
	Short: "Print the per-day summary",
	Long: `Prints one row per day with the generation window, peak and average power, and
the metered energy cross-checked against energy integrated from power samples.
With --monthly the days are grouped by month.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDaily,
}

func init() {
	dailyCmd.Flags().BoolVar(&dailyMonthly, "monthly", false, "Group days by month with min/median/max distribution")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd.Context(), cmd.OutOrStdout(), args)
	if err != nil {
		return err
	}

	if dailyMonthly {
		printMonthly(v.Monthly())
		return nil
	}

	rows := v.Daily()
	if len(rows) == 0 {
		fmt.Println("No data found")
		return nil
	}

	line := "------------------------------------------------------------------------------------------------------"
	fmt.Println(line)
	fmt.Printf("%-10s  %8s  %8s  %6s  %9s  %9s  %10s  %10s  %10s  %8s\n",
		"Date", "Start", "End", "Min", "Pmax W", "Pavg W", "Meter kWh", "Integ kWh", "Intvl kWh", "Error %")
	fmt.Println(line)

	var total float64
	for _, r := range rows {
		fmt.Printf("%-10s  %8s  %8s  %6d  %9.0f  %9.0f  %10.3f  %10.3f  %10.3f  %8s\n",
			r.Date, r.Start, r.End, r.GenerationMinutes, r.PowerMaxW, r.PowerAvgW,
			r.EnergyMeteredKWh, r.EnergyIntegratedKWh, r.EnergyIntegratedByIntervalKWh,
			r.EnergyErrorPct.Format(2))
		total += r.EnergyMeteredKWh
		if r.CounterDecreases > 0 {
			fmt.Printf("  warning: energy counter decreased %d time(s) on %s\n", r.CounterDecreases, r.Date)
		}
	}

	fmt.Println(line)
	fmt.Printf("Total: %.2f kWh (%d days)\n", total, len(rows))

	return nil
}

// distribution holds the min, median and max of a monthly series
type distribution struct {
	min, median, max float64
}

func distributionOf(values []float64) distribution {
	if len(values) == 0 {
		return distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return distribution{min: sorted[0], median: median, max: sorted[len(sorted)-1]}
}

func printMonthly(groups []models.MonthlyGroup) {
	if len(groups) == 0 {
		fmt.Println("No data found")
		return
	}

	line := "----------------------------------------------------------------------------------"
	fmt.Println(line)
	fmt.Printf("%-7s  %4s  %28s  %28s\n", "Month", "Days", "Energy kWh (min/med/max)", "Pmax W (min/med/max)")
	fmt.Println(line)

	for _, g := range groups {
		energy := make([]float64, len(g.Days))
		power := make([]float64, len(g.Days))
		for i, d := range g.Days {
			energy[i] = d.EnergyMeteredKWh
			power[i] = d.PowerMaxW
		}
		e := distributionOf(energy)
		p := distributionOf(power)
		fmt.Printf("%-7s  %4d  %8.2f / %8.2f / %8.2f  %8.0f / %8.0f / %8.0f\n",
			g.Month, len(g.Days), e.min, e.median, e.max, p.min, p.median, p.max)
	}
	fmt.Println(line)
}
