package daily

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/pvdash/pkg/models"
)

func at(day string, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", day+" "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func sample(day, clock string, power, energy float64) models.Sample {
	return models.Sample{Timestamp: at(day, clock), PowerW: power, EnergyTodayKWh: energy}
}

func TestSummarize_TwoDays(t *testing.T) {
	ds := &models.Dataset{Samples: []models.Sample{
		sample("2023-01-01", "12:00:00", 1000, 0.5),
		sample("2023-01-02", "12:00:00", 0, 0),
	}}

	rows := Summarize(ds)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "2023-01-01", first.Date)
	assert.Equal(t, "12:00:00", first.Start)
	assert.Equal(t, "12:00:00", first.End)
	assert.Equal(t, 0, first.GenerationMinutes)
	assert.Equal(t, 1000.0, first.PowerMaxW)
	assert.Equal(t, 0.5, first.EnergyMeteredKWh)
	assert.InDelta(t, 1000.0/12/1000, first.EnergyIntegratedKWh, 1e-9)
	require.True(t, first.EnergyErrorPct.Valid())
	assert.InDelta(t, -83.333, first.EnergyErrorPct.Float64(), 1e-3)
	assert.Equal(t, 0.0, first.PowerAvgW)
	assert.Equal(t, 1, first.Samples)

	second := rows[1]
	assert.Equal(t, "2023-01-02", second.Date)
	assert.Equal(t, 0.0, second.EnergyMeteredKWh)
	assert.False(t, second.EnergyErrorPct.Valid(), "zero metered energy leaves the error undefined")
}

func TestSummarize_ConstantPowerFullDay(t *testing.T) {
	const power = 1200.0
	start := at("2023-06-01", "00:00:00")

	var samples []models.Sample
	for i := 0; i < 288; i++ {
		samples = append(samples, models.Sample{
			Timestamp:      start.Add(time.Duration(i) * 5 * time.Minute),
			PowerW:         power,
			EnergyTodayKWh: float64(i+1) * power / 12 / 1000,
		})
	}

	rows := Summarize(&models.Dataset{Samples: samples})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "00:00:00", row.Start)
	assert.Equal(t, "23:55:00", row.End)
	assert.Equal(t, 1435, row.GenerationMinutes)
	assert.InDelta(t, power*24/1000, row.EnergyIntegratedKWh, 1e-9)
	assert.InDelta(t, power*24/1000, row.EnergyIntegratedByIntervalKWh, 1e-9)
	assert.InDelta(t, 0, row.EnergyErrorPct.Float64(), 1e-9)
	assert.InDelta(t, row.EnergyMeteredKWh/1435*60*1000, row.PowerAvgW, 1e-9)
	assert.Equal(t, 0, row.CounterDecreases)
	assert.Equal(t, 288, row.Samples)
}

func TestSummarize_RowsPerDistinctDaySorted(t *testing.T) {
	ds := &models.Dataset{Samples: []models.Sample{
		sample("2023-03-02", "10:00:00", 10, 1),
		sample("2023-03-01", "10:00:00", 10, 1),
		sample("2023-03-02", "11:00:00", 20, 2),
		sample("2023-02-28", "09:00:00", 5, 0.2),
		sample("2023-03-01", "08:30:00", 7, 0.1),
	}}

	rows := Summarize(ds)
	require.Len(t, rows, len(Days(ds)))

	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}
	assert.Equal(t, []string{"2023-02-28", "2023-03-01", "2023-03-02"}, dates)

	assert.Equal(t, "08:30:00", rows[1].Start)
	assert.Equal(t, "10:00:00", rows[1].End)
	assert.Equal(t, 90, rows[1].GenerationMinutes)
}

func TestSummarize_GenerationMinutesTruncates(t *testing.T) {
	ds := &models.Dataset{Samples: []models.Sample{
		sample("2023-03-01", "08:00:10", 10, 0.1),
		sample("2023-03-01", "08:05:05", 10, 0.2),
	}}

	rows := Summarize(ds)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].GenerationMinutes)
}

func TestSummarize_IrregularCadence(t *testing.T) {
	ds := &models.Dataset{Samples: []models.Sample{
		sample("2023-03-01", "10:00:00", 1200, 0.1),
		sample("2023-03-01", "10:15:00", 1200, 0.4),
	}}

	rows := Summarize(ds)
	require.Len(t, rows, 1)

	// 15 minutes then one nominal 5 minute bucket at 1.2 kW
	assert.InDelta(t, 0.4, rows[0].EnergyIntegratedByIntervalKWh, 1e-9)
	assert.InDelta(t, 0.2, rows[0].EnergyIntegratedKWh, 1e-9)
}

func TestSummarize_CounterDecreases(t *testing.T) {
	ds := &models.Dataset{Samples: []models.Sample{
		sample("2023-03-01", "10:10:00", 100, 0.3),
		sample("2023-03-01", "10:00:00", 100, 1.0),
		sample("2023-03-01", "10:05:00", 100, 1.2),
		sample("2023-03-01", "10:15:00", 100, 0.4),
	}}

	rows := Summarize(ds)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].CounterDecreases)
	assert.Equal(t, 1.2, rows[0].EnergyMeteredKWh)
}

func TestSummarize_NotOK(t *testing.T) {
	assert.Empty(t, Summarize(nil))
	assert.Empty(t, Summarize(&models.Dataset{Status: []string{"not found: missing.csv"}}))
	assert.Empty(t, Summarize(&models.Dataset{}))
}

func TestDivide(t *testing.T) {
	v, err := Divide(1, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = Divide(1, 0)
	assert.ErrorIs(t, err, ErrDivisionUndefined)
	assert.True(t, math.IsNaN(v))
}

func TestDays_FirstAppearanceOrder(t *testing.T) {
	ds := &models.Dataset{Samples: []models.Sample{
		sample("2023-03-02", "10:00:00", 1, 1),
		sample("2023-03-01", "10:00:00", 1, 1),
		sample("2023-03-02", "11:00:00", 1, 1),
	}}

	assert.Equal(t, []string{"2023-03-02", "2023-03-01"}, Days(ds))
	assert.Empty(t, Days(&models.Dataset{Status: []string{"unknown: boom"}}))
}

func TestMonthly(t *testing.T) {
	rows := []models.DailySummary{
		{Date: "2023-02-27"},
		{Date: "2023-03-01"},
		{Date: "2023-02-28"},
		{Date: "2023-03-02"},
	}

	groups := Monthly(rows)
	require.Len(t, groups, 2)

	assert.Equal(t, "2023-02", groups[0].Month)
	require.Len(t, groups[0].Days, 2)
	assert.Equal(t, "2023-02-27", groups[0].Days[0].Date)
	assert.Equal(t, "2023-02-28", groups[0].Days[1].Date)

	assert.Equal(t, "2023-03", groups[1].Month)
	assert.Len(t, groups[1].Days, 2)

	assert.Empty(t, Monthly(nil))
}
