package models

import "time"

// DailySummary represents the derived statistics of one calendar day
type DailySummary struct {
	Date                          string    `json:"date"`
	Start                         string    `json:"start"` // First time of day with a sample
	End                           string    `json:"end"`   // Last time of day with a sample
	GenerationMinutes             int       `json:"generation_minutes"`
	PowerMaxW                     float64   `json:"power_max_w"`
	PowerAvgW                     float64   `json:"power_avg_w"`
	EnergyMeteredKWh              float64   `json:"energy_metered_kwh"`
	EnergyIntegratedKWh           float64   `json:"energy_integrated_kwh"`
	EnergyIntegratedByIntervalKWh float64   `json:"energy_integrated_by_interval_kwh"`
	EnergyErrorPct                NullFloat `json:"energy_error_pct"` // Undefined when nothing was metered
	Samples                       int       `json:"samples"`
	CounterDecreases              int       `json:"counter_decreases"`
}

// Month returns the YYYY-MM prefix of the summary's date
func (d DailySummary) Month() string {
	if len(d.Date) < 7 {
		return d.Date
	}
	return d.Date[:7]
}

// MonthlyGroup holds the daily summaries of one month
type MonthlyGroup struct {
	Month string         `json:"month"`
	Days  []DailySummary `json:"days"`
}

// ArchivedSummary is a daily summary stored in the local archive
type ArchivedSummary struct {
	ID int `json:"id"`
	DailySummary
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
	Published  bool      `json:"published"`
}
