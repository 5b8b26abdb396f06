package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/pvdash/pkg/models"
)

// timestampLayouts lists the accepted forms of the date column, tried in order.
// Fractional seconds are accepted after the seconds field by time.Parse.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// columns holds the indices of the required columns within a record
type columns struct {
	date   int
	power  int
	energy int
}

// parseCSV reads an inverter export. At most maxRows samples are kept when
// maxRows > 0; truncated reports whether further rows were present.
func parseCSV(r io.Reader, maxRows int) (samples []models.Sample, truncated bool, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read header to find column indices
	header, err := reader.Read()
	if err == io.EOF {
		return nil, false, malformedf("empty file: missing header row")
	}
	if err != nil {
		return nil, false, malformedf("reading CSV header: %w", err)
	}

	cols, err := findColumns(header)
	if err != nil {
		return nil, false, err
	}

	for {
		if maxRows > 0 && len(samples) == maxRows {
			// Rows past the cap are ignored, even malformed ones
			_, err := reader.Read()
			truncated = err != io.EOF
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, false, &LoadError{Kind: KindMalformedFormat, Line: parseErr.Line, Err: parseErr.Err}
			}
			return nil, false, err
		}

		line, _ := reader.FieldPos(0)
		sample, err := parseRecord(record, cols)
		if err != nil {
			return nil, false, &LoadError{Kind: KindMalformedFormat, Line: line, Err: err}
		}
		samples = append(samples, sample)
	}

	return samples, truncated, nil
}

// findColumns locates the required columns by header name; extra columns are ignored
func findColumns(header []string) (columns, error) {
	cols := columns{date: -1, power: -1, energy: -1}

	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch name {
		case models.ColumnDate:
			cols.date = i
		case models.ColumnPower:
			cols.power = i
		case models.ColumnEnergyToday:
			cols.energy = i
		}
	}

	var missing []string
	if cols.date == -1 {
		missing = append(missing, models.ColumnDate)
	}
	if cols.power == -1 {
		missing = append(missing, models.ColumnPower)
	}
	if cols.energy == -1 {
		missing = append(missing, models.ColumnEnergyToday)
	}
	if len(missing) > 0 {
		return cols, malformedf("missing required column(s) %s in header %v", strings.Join(missing, ", "), header)
	}

	return cols, nil
}

func parseRecord(record []string, cols columns) (models.Sample, error) {
	ts, err := parseTimestamp(record[cols.date])
	if err != nil {
		return models.Sample{}, err
	}

	power, err := parseNumber(models.ColumnPower, record[cols.power])
	if err != nil {
		return models.Sample{}, err
	}

	energy, err := parseNumber(models.ColumnEnergyToday, record[cols.energy])
	if err != nil {
		return models.Sample{}, err
	}

	return models.Sample{Timestamp: ts, PowerW: power, EnergyTodayKWh: energy}, nil
}

// parseTimestamp parses the date column, keeping the wall clock as written
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, malformedf("empty %s value", models.ColumnDate)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, malformedf("parsing %s %q: unrecognized timestamp", models.ColumnDate, s)
}

func parseNumber(column, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, malformedf("empty %s value", column)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, malformedf("parsing %s: %w", column, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformedf("parsing %s %q: not a finite number", column, s)
	}

	return v, nil
}
