// Package daily derives per-day production statistics from a Dataset and
// cross-checks metered energy against energy integrated from power samples.
package daily

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/timebucket"
	"github.com/jgoulah/pvdash/pkg/models"
)

// SamplesPerHour is the sampling cadence assumed by the fixed-divisor integration
const SamplesPerHour = 12

// ErrDivisionUndefined is returned when a ratio has a zero denominator
var ErrDivisionUndefined = errors.New("division undefined: zero denominator")

// Divide returns num/den, or NaN and ErrDivisionUndefined when den is zero
func Divide(num, den float64) (float64, error) {
	if den == 0 {
		return math.NaN(), ErrDivisionUndefined
	}
	return num / den, nil
}

// Days returns the distinct days of the dataset in order of first appearance
func Days(ds *models.Dataset) []string {
	if !ds.OK() {
		return []string{}
	}
	return lo.Uniq(lo.Map(ds.Samples, func(s models.Sample, _ int) string {
		return s.Day()
	}))
}

// Summarize returns one summary per distinct day, sorted ascending by date.
// A dataset that failed to load yields no rows.
func Summarize(ds *models.Dataset) []models.DailySummary {
	if !ds.OK() || len(ds.Samples) == 0 {
		return []models.DailySummary{}
	}

	byDay := lo.GroupBy(ds.Samples, func(s models.Sample) string {
		return s.Day()
	})

	dates := lo.Keys(byDay)
	sort.Strings(dates)

	rows := make([]models.DailySummary, 0, len(dates))
	for _, date := range dates {
		row := summarizeDay(date, byDay[date])
		if row.CounterDecreases > 0 {
			logging.Warn("Cumulative energy counter decreased within a day",
				"date", date,
				"decreases", row.CounterDecreases,
				"metered_kwh", row.EnergyMeteredKWh)
		}
		rows = append(rows, row)
	}

	return rows
}

// summarizeDay computes the statistics of one non-empty day
func summarizeDay(date string, samples []models.Sample) models.DailySummary {
	times := lo.Map(samples, func(s models.Sample, _ int) string {
		return s.TimeOfDay()
	})
	sort.Strings(times)

	row := models.DailySummary{
		Date:    date,
		Start:   times[0],
		End:     times[len(times)-1],
		Samples: len(samples),
	}
	row.GenerationMinutes = minutesBetween(row.Start, row.End)

	var powerSum float64
	row.PowerMaxW = math.Inf(-1)
	row.EnergyMeteredKWh = math.Inf(-1)
	for _, s := range samples {
		powerSum += s.PowerW
		row.PowerMaxW = math.Max(row.PowerMaxW, s.PowerW)
		row.EnergyMeteredKWh = math.Max(row.EnergyMeteredKWh, s.EnergyTodayKWh)
	}

	row.EnergyIntegratedKWh = powerSum / SamplesPerHour / 1000
	row.EnergyIntegratedByIntervalKWh, row.CounterDecreases = integrateByInterval(samples)

	if ratio, err := Divide(row.EnergyIntegratedKWh-row.EnergyMeteredKWh, row.EnergyMeteredKWh); err == nil {
		row.EnergyErrorPct = models.NullFloat(ratio * 100)
	} else {
		row.EnergyErrorPct = models.Null()
	}

	if row.GenerationMinutes > 0 {
		row.PowerAvgW = row.EnergyMeteredKWh / float64(row.GenerationMinutes) * 60 * 1000
	}

	return row
}

// minutesBetween returns the whole minutes from start to end, both HH:MM:SS
// times of day anchored to the same date
func minutesBetween(start, end string) int {
	s, err := time.Parse(models.TimeOfDayLayout, start)
	if err != nil {
		return 0
	}
	e, err := time.Parse(models.TimeOfDayLayout, end)
	if err != nil {
		return 0
	}
	return int(e.Sub(s) / time.Minute)
}

// integrateByInterval weights each sample's power by the time until the next
// sample of the day; the last sample covers one nominal bucket. It also counts
// decreases of the cumulative energy counter in timestamp order.
func integrateByInterval(samples []models.Sample) (kwh float64, decreases int) {
	ordered := make([]models.Sample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var wh float64
	for i, s := range ordered {
		interval := timebucket.Width
		if i+1 < len(ordered) {
			interval = ordered[i+1].Timestamp.Sub(s.Timestamp)
			if ordered[i+1].EnergyTodayKWh < s.EnergyTodayKWh {
				decreases++
			}
		}
		wh += s.PowerW * interval.Hours()
	}

	return wh / 1000, decreases
}

// Monthly groups daily summaries by YYYY-MM, ascending by month. Days keep
// their input order; no further reduction is applied.
func Monthly(rows []models.DailySummary) []models.MonthlyGroup {
	byMonth := lo.GroupBy(rows, func(r models.DailySummary) string {
		return r.Month()
	})

	months := lo.Keys(byMonth)
	sort.Strings(months)

	groups := make([]models.MonthlyGroup, 0, len(months))
	for _, month := range months {
		groups = append(groups, models.MonthlyGroup{Month: month, Days: byMonth[month]})
	}
	return groups
}
