// Package export renders the daily and overlay views as downloadable files.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/metrics"
	"github.com/jgoulah/pvdash/internal/overlay"
	"github.com/jgoulah/pvdash/internal/session"
	"github.com/jgoulah/pvdash/pkg/models"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatXLSX, FormatPDF, FormatCSV}
}

// ParseFormat validates a format name (case-insensitive)
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q (use xlsx, pdf or csv)", s)
}

// ParseFormats splits a comma separated list of formats
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no export format given")
	}
	return formats, nil
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Report holds the views rendered into an export
type Report struct {
	Source  string
	Daily   []models.DailySummary
	Overlay *overlay.Matrix
	Columns []string
}

// NewReport computes the views of a successfully loaded session
func NewReport(v *session.View) (*Report, error) {
	if !v.OK() {
		return nil, fmt.Errorf("failed to load the data: %s", v.StatusText())
	}
	m, cols := v.Overlay()
	return &Report{
		Source:  v.Source(),
		Daily:   v.Daily(),
		Overlay: m,
		Columns: cols,
	}, nil
}

// Filename returns the file name used for the report in the given format
func (r *Report) Filename(f Format) string {
	base := strings.TrimSuffix(filepath.Base(r.Source), filepath.Ext(r.Source))
	base = strings.TrimSuffix(base, ".csv")
	if base == "" || base == "." || base == "-" {
		base = "pvdash"
	}
	return fmt.Sprintf("%s-daily.%s", base, f)
}

// Build renders the report in one format
func (r *Report) Build(f Format) ([]byte, error) {
	var data []byte
	var err error

	switch f {
	case FormatXLSX:
		data, err = BuildXLSX(r)
	case FormatPDF:
		data, err = BuildPDF(r)
	case FormatCSV:
		data, err = BuildCSV(r.Daily)
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}

	if err != nil {
		metrics.IncExport(string(f), metrics.ResultError)
		return nil, fmt.Errorf("building %s export: %w", f, err)
	}
	metrics.IncExport(string(f), metrics.ResultSuccess)
	return data, nil
}

// WriteAll renders every format concurrently into dir and returns the written paths
func (r *Report) WriteAll(ctx context.Context, dir string, formats []Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.Build(f)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, r.Filename(f))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			logging.Info("Wrote export", "format", string(f), "path", path, "bytes", len(data))
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
