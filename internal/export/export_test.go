package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/pvdash/internal/session"
	"github.com/jgoulah/pvdash/pkg/models"
)

func sample(ts string, power, energy float64) models.Sample {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	return models.Sample{Timestamp: t, PowerW: power, EnergyTodayKWh: energy}
}

func testReport(t *testing.T) *Report {
	t.Helper()
	v := session.NewView(&models.Dataset{Source: "/data/inverter.csv.gz", Samples: []models.Sample{
		sample("2023-01-01 12:00:00", 1000, 0.5),
		sample("2023-01-02 12:00:00", 0, 0),
	}})
	r, err := NewReport(v)
	require.NoError(t, err)
	return r
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("xlsx, PDF,csv")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatXLSX, FormatPDF, FormatCSV}, formats)

	_, err = ParseFormats("docx")
	assert.Error(t, err)

	_, err = ParseFormats(" , ")
	assert.Error(t, err)
}

func TestNewReport_FailedLoad(t *testing.T) {
	_, err := NewReport(session.NewView(&models.Dataset{Status: []string{"not found: x.csv"}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found: x.csv")
}

func TestReport_Filename(t *testing.T) {
	r := testReport(t)
	assert.Equal(t, "inverter-daily.xlsx", r.Filename(FormatXLSX))

	r.Source = "-"
	assert.Equal(t, "pvdash-daily.csv", r.Filename(FormatCSV))
}

func TestBuildCSV(t *testing.T) {
	r := testReport(t)

	data, err := r.Build(FormatCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "date", records[0][0])
	assert.Equal(t, "2023-01-01", records[1][0])
	assert.Equal(t, "0.5", records[1][6])
	assert.NotEmpty(t, records[1][9])
	assert.Equal(t, "", records[2][9], "undefined error is an empty field")
}

func TestBuildXLSX(t *testing.T) {
	r := testReport(t)

	data, err := r.Build(FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{dailySheet, overlaySheet}, f.GetSheetList())

	date, err := f.GetCellValue(dailySheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", date)

	undefined, err := f.GetCellValue(dailySheet, "J3")
	require.NoError(t, err)
	assert.Equal(t, "", undefined)

	rows, err := f.GetRows(overlaySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 289)
	assert.Equal(t, []string{"Time", "2023-01-01", "2023-01-02", "Average_simple", "Average_generating", "Generating*4"}, rows[0])
	assert.Equal(t, "00:00:00", rows[1][0])

	noon, err := f.GetCellValue(overlaySheet, "B146")
	require.NoError(t, err)
	assert.Equal(t, "1000", noon)
}

func TestBuildPDF(t *testing.T) {
	r := testReport(t)

	data, err := r.Build(FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestWriteAll(t *testing.T) {
	r := testReport(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := r.WriteAll(context.Background(), dir, Formats())
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Equal(t, filepath.Join(dir, "inverter-daily.pdf"), paths[1])
}
