// Package overlay lays the power curves of every day onto the common
// 5-minute time-of-day axis so that days can be compared bucket by bucket.
package overlay

import (
	"errors"
	"fmt"
	"math"

	"github.com/jgoulah/pvdash/internal/timebucket"
	"github.com/jgoulah/pvdash/pkg/models"
)

// Column identifiers besides the per-day columns
const (
	ColumnAll               = "All"
	ColumnAverageSimple     = "Average_simple"
	ColumnAverageGenerating = "Average_generating"
	ColumnGeneratingScaled  = "Generating*4"
)

// GeneratingScale multiplies the generating-day count so it plots on the power axis
const GeneratingScale = 50

// ErrNotAColumn is returned when selecting a column that holds no data
var ErrNotAColumn = errors.New("not a data column")

// Matrix holds one row per time bucket and one column per day.
// Absent cells are NaN.
type Matrix struct {
	Buckets           []timebucket.Bucket
	Days              []string
	Power             [][]float64 // [bucket][day]
	AverageSimple     []models.NullFloat
	AverageGenerating []models.NullFloat
	Generating        []int
	GeneratingScaled  []float64
}

// Build places every sample's power in the cell of its day and bucket, in
// input order, so a later sample overwrites an earlier one in the same cell.
// It returns the matrix and the ordered column identifiers.
func Build(ds *models.Dataset) (*Matrix, []string) {
	var samples []models.Sample
	if ds.OK() {
		samples = ds.Samples
	}

	dayIndex := make(map[string]int)
	var days []string
	for _, s := range samples {
		day := s.Day()
		if _, ok := dayIndex[day]; !ok {
			dayIndex[day] = len(days)
			days = append(days, day)
		}
	}

	m := newMatrix(days)
	for _, s := range samples {
		m.Power[timebucket.Of(s.Timestamp)][dayIndex[s.Day()]] = s.PowerW
	}
	m.computeStatistics()

	return m, Columns(days)
}

// Columns returns the column identifiers for the given days
func Columns(days []string) []string {
	cols := make([]string, 0, len(days)+4)
	cols = append(cols, ColumnAll)
	cols = append(cols, days...)
	return append(cols, ColumnAverageSimple, ColumnAverageGenerating, ColumnGeneratingScaled)
}

func newMatrix(days []string) *Matrix {
	if days == nil {
		days = []string{}
	}

	m := &Matrix{
		Buckets:           timebucket.Axis(),
		Days:              days,
		Power:             make([][]float64, timebucket.PerDay),
		AverageSimple:     make([]models.NullFloat, timebucket.PerDay),
		AverageGenerating: make([]models.NullFloat, timebucket.PerDay),
		Generating:        make([]int, timebucket.PerDay),
		GeneratingScaled:  make([]float64, timebucket.PerDay),
	}
	for b := range m.Power {
		row := make([]float64, len(days))
		for d := range row {
			row[d] = math.NaN()
		}
		m.Power[b] = row
	}
	return m
}

func (m *Matrix) computeStatistics() {
	for b, row := range m.Power {
		var sum float64
		generating := 0
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			if v != 0 {
				generating++
			}
		}

		m.Generating[b] = generating
		m.GeneratingScaled[b] = float64(generating * GeneratingScale)
		m.AverageSimple[b] = ratio(sum, len(m.Days))
		m.AverageGenerating[b] = ratio(sum, generating)
	}
}

func ratio(sum float64, n int) models.NullFloat {
	if n == 0 {
		return models.Null()
	}
	return models.NullFloat(sum / float64(n))
}

// Filled returns a copy whose absent day cells hold 0. Undefined averages
// stay undefined.
func (m *Matrix) Filled() *Matrix {
	out := &Matrix{
		Buckets:           append([]timebucket.Bucket(nil), m.Buckets...),
		Days:              append([]string(nil), m.Days...),
		Power:             make([][]float64, len(m.Power)),
		AverageSimple:     append([]models.NullFloat(nil), m.AverageSimple...),
		AverageGenerating: append([]models.NullFloat(nil), m.AverageGenerating...),
		Generating:        append([]int(nil), m.Generating...),
		GeneratingScaled:  append([]float64(nil), m.GeneratingScaled...),
	}
	for b, row := range m.Power {
		filled := make([]float64, len(row))
		for d, v := range row {
			if !math.IsNaN(v) {
				filled[d] = v
			}
		}
		out.Power[b] = filled
	}
	return out
}

// Column returns the values of one column over the time axis
func (m *Matrix) Column(name string) ([]models.NullFloat, error) {
	switch name {
	case ColumnAll:
		return nil, fmt.Errorf("%q: %w", name, ErrNotAColumn)
	case ColumnAverageSimple:
		return append([]models.NullFloat(nil), m.AverageSimple...), nil
	case ColumnAverageGenerating:
		return append([]models.NullFloat(nil), m.AverageGenerating...), nil
	case ColumnGeneratingScaled:
		out := make([]models.NullFloat, len(m.GeneratingScaled))
		for b, v := range m.GeneratingScaled {
			out[b] = models.NullFloat(v)
		}
		return out, nil
	}

	for d, day := range m.Days {
		if day != name {
			continue
		}
		out := make([]models.NullFloat, len(m.Power))
		for b, row := range m.Power {
			out[b] = models.NullFloat(row[d])
		}
		return out, nil
	}

	return nil, fmt.Errorf("unknown column %q (available: %v)", name, Columns(m.Days))
}

// Cell returns the power of a day at a bucket, or an undefined value when absent
func (m *Matrix) Cell(b timebucket.Bucket, day string) models.NullFloat {
	if !b.Valid() {
		return models.Null()
	}
	for d, name := range m.Days {
		if name == day {
			return models.NullFloat(m.Power[b][d])
		}
	}
	return models.Null()
}
