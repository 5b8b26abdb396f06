// Package session is the boundary between loaded data and its presenters.
// A View wraps one immutable Dataset and recomputes each derived view on
// request; a Store keeps the views of concurrent sessions apart.
package session

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jgoulah/pvdash/internal/daily"
	"github.com/jgoulah/pvdash/internal/metrics"
	"github.com/jgoulah/pvdash/internal/overlay"
	"github.com/jgoulah/pvdash/pkg/models"
)

// View exposes the derived views of one Dataset
type View struct {
	ds      *models.Dataset
	created time.Time
}

// NewView wraps ds. A nil dataset behaves as an empty, successfully loaded one.
func NewView(ds *models.Dataset) *View {
	if ds == nil {
		ds = &models.Dataset{}
	}
	return &View{ds: ds, created: time.Now()}
}

// Dataset returns the underlying dataset
func (v *View) Dataset() *models.Dataset {
	return v.ds
}

// Source returns the name the dataset was loaded from
func (v *View) Source() string {
	return v.ds.Source
}

// Created returns when the view was created
func (v *View) Created() time.Time {
	return v.created
}

// Status returns the load status entries; empty means success
func (v *View) Status() []string {
	return append([]string{}, v.ds.Status...)
}

// OK reports whether the dataset loaded without errors
func (v *View) OK() bool {
	return v.ds.OK()
}

// StatusText returns the status entries joined by newlines
func (v *View) StatusText() string {
	return strings.Join(v.ds.Status, "\n")
}

// Truncated reports whether the row cap dropped rows
func (v *View) Truncated() bool {
	return v.ds.Truncated
}

// Days returns the distinct days in order of first appearance
func (v *View) Days() []string {
	return daily.Days(v.ds)
}

// Select returns the samples whose day is in days, in input order
func (v *View) Select(days []string) []models.Sample {
	defer observe("select", time.Now())

	if !v.OK() || len(days) == 0 {
		return []models.Sample{}
	}

	wanted := lo.SliceToMap(days, func(d string) (string, struct{}) {
		return d, struct{}{}
	})
	return lo.Filter(v.ds.Samples, func(s models.Sample, _ int) bool {
		_, ok := wanted[s.Day()]
		return ok
	})
}

// Daily returns the per-day summary table
func (v *View) Daily() []models.DailySummary {
	defer observe("daily", time.Now())
	return daily.Summarize(v.ds)
}

// Monthly returns the daily summaries grouped by month
func (v *View) Monthly() []models.MonthlyGroup {
	defer observe("monthly", time.Now())
	return daily.Monthly(daily.Summarize(v.ds))
}

// Overlay returns the day-by-bucket matrix and its column identifiers
func (v *View) Overlay() (*overlay.Matrix, []string) {
	defer observe("overlay", time.Now())
	return overlay.Build(v.ds)
}

func observe(view string, start time.Time) {
	metrics.ObserveView(view, time.Since(start))
}
