package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/jgoulah/pvdash/pkg/models"
)

// BuildCSV renders the daily summary table. Undefined values are empty fields.
func BuildCSV(rows []models.DailySummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"date", "start", "end", "generation_minutes", "power_max_w", "power_avg_w",
		"energy_metered_kwh", "energy_integrated_kwh", "energy_integrated_by_interval_kwh",
		"energy_error_pct", "samples", "counter_decreases",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, d := range rows {
		errorPct := ""
		if d.EnergyErrorPct.Valid() {
			errorPct = formatFloat(d.EnergyErrorPct.Float64())
		}
		record := []string{
			d.Date,
			d.Start,
			d.End,
			strconv.Itoa(d.GenerationMinutes),
			formatFloat(d.PowerMaxW),
			formatFloat(d.PowerAvgW),
			formatFloat(d.EnergyMeteredKWh),
			formatFloat(d.EnergyIntegratedKWh),
			formatFloat(d.EnergyIntegratedByIntervalKWh),
			errorPct,
			strconv.Itoa(d.Samples),
			strconv.Itoa(d.CounterDecreases),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
