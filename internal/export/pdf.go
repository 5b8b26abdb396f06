package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type pdfColumn struct {
	title string
	width float64
	align string
}

var pdfColumns = []pdfColumn{
	{"Date", 26, "C"},
	{"Start", 20, "C"},
	{"End", 20, "C"},
	{"Minutes", 20, "R"},
	{"Pmax (W)", 26, "R"},
	{"Pavg (W)", 26, "R"},
	{"Metered (kWh)", 30, "R"},
	{"Integrated (kWh)", 32, "R"},
	{"By interval (kWh)", 32, "R"},
	{"Error (%)", 22, "R"},
	{"Samples", 20, "R"},
}

// BuildPDF renders the daily summary table on landscape A4 pages
func BuildPDF(r *Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "PV Daily Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Source: %s", r.Source))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Days: %d", len(r.Daily)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format(time.RFC3339)))
	pdf.Ln(8)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	for _, d := range r.Daily {
		values := []string{
			d.Date,
			d.Start,
			d.End,
			fmt.Sprintf("%d", d.GenerationMinutes),
			fmt.Sprintf("%.0f", d.PowerMaxW),
			fmt.Sprintf("%.0f", d.PowerAvgW),
			fmt.Sprintf("%.3f", d.EnergyMeteredKWh),
			fmt.Sprintf("%.3f", d.EnergyIntegratedKWh),
			fmt.Sprintf("%.3f", d.EnergyIntegratedByIntervalKWh),
			d.EnergyErrorPct.Format(2),
			fmt.Sprintf("%d", d.Samples),
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, values[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
