package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/pvdash/pkg/models"
)

const (
	dailySheet   = "daily"
	overlaySheet = "overlay"
)

var dailyHeader = []string{
	"Date", "Start", "End", "Generation (min)", "Power max (W)", "Power avg (W)",
	"Energy metered (kWh)", "Energy integrated (kWh)", "Energy integrated by interval (kWh)",
	"Energy error (%)", "Samples", "Counter decreases",
}

// BuildXLSX renders the daily table and the overlay matrix as two sheets.
// Undefined values are left as empty cells.
func BuildXLSX(r *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dailySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(overlaySheet); err != nil {
		return nil, err
	}

	for i, h := range dailyHeader {
		_ = f.SetCellValue(dailySheet, cell(i, 1), h)
	}
	for i, d := range r.Daily {
		row := i + 2
		values := []interface{}{
			d.Date, d.Start, d.End, d.GenerationMinutes, d.PowerMaxW, d.PowerAvgW,
			d.EnergyMeteredKWh, d.EnergyIntegratedKWh, d.EnergyIntegratedByIntervalKWh,
			d.EnergyErrorPct, d.Samples, d.CounterDecreases,
		}
		for col, v := range values {
			setValue(f, dailySheet, cell(col, row), v)
		}
	}

	if m := r.Overlay; m != nil {
		_ = f.SetCellValue(overlaySheet, cell(0, 1), "Time")
		for i, name := range r.Columns[1:] {
			_ = f.SetCellValue(overlaySheet, cell(i+1, 1), name)
		}
		for b, bucket := range m.Buckets {
			row := b + 2
			_ = f.SetCellValue(overlaySheet, cell(0, row), bucket.String())
			col := 1
			for d := range m.Days {
				setValue(f, overlaySheet, cell(col, row), models.NullFloat(m.Power[b][d]))
				col++
			}
			setValue(f, overlaySheet, cell(col, row), m.AverageSimple[b])
			setValue(f, overlaySheet, cell(col+1, row), m.AverageGenerating[b])
			setValue(f, overlaySheet, cell(col+2, row), m.GeneratingScaled[b])
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// cell converts a 0-based column and 1-based row to an A1 reference
func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		panic(fmt.Sprintf("cell reference %d,%d: %v", col, row, err))
	}
	return name
}

func setValue(f *excelize.File, sheet, ref string, v interface{}) {
	if n, ok := v.(models.NullFloat); ok {
		if !n.Valid() {
			return
		}
		v = n.Float64()
	}
	_ = f.SetCellValue(sheet, ref, v)
}
