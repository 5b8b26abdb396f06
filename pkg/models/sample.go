package models

import "time"

// Input column names of the inverter CSV export
const (
	ColumnDate        = "date"
	ColumnPower       = "ac_power"
	ColumnEnergyToday = "ac_energy_today"
)

// Layouts used when rendering derived keys
const (
	DayLayout       = "2006-01-02"
	TimeOfDayLayout = "15:04:05"
	MonthLayout     = "2006-01"
)

// Sample represents one CSV record of the inverter export
type Sample struct {
	Timestamp      time.Time `json:"timestamp"`
	PowerW         float64   `json:"power_w"`
	EnergyTodayKWh float64   `json:"cumulative_energy_kwh"` // Cumulative per-day meter reading
}

// Day returns the calendar date of the sample's wall clock (YYYY-MM-DD)
func (s Sample) Day() string {
	return s.Timestamp.Format(DayLayout)
}

// TimeOfDay returns the sample's wall-clock time as HH:MM:SS
func (s Sample) TimeOfDay() string {
	return s.Timestamp.Format(TimeOfDayLayout)
}

// Dataset holds the samples of one loaded file and its load status.
// An empty Status means the load succeeded.
type Dataset struct {
	Source    string   `json:"source"`
	Samples   []Sample `json:"samples"`
	Status    []string `json:"status"`
	Truncated bool     `json:"truncated"` // Rows beyond the configured cap were dropped
}

// OK reports whether the dataset loaded without errors
func (d *Dataset) OK() bool {
	return d != nil && len(d.Status) == 0
}
