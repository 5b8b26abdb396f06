// Package ingest loads inverter CSV exports into an immutable Dataset.
// Failures never escape as errors: they are recorded in the Dataset status.
package ingest

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/metrics"
	"github.com/jgoulah/pvdash/pkg/models"
)

// StdinSource is the source name that reads the export from standard input
const StdinSource = "-"

// Options controls how exports are loaded
type Options struct {
	MaxRows int             // Keep only the first N rows (0 = no cap)
	S3      ObjectGetter    // Client for s3:// sources
	S3Err   error           // Why S3 could not be created; reported for s3:// sources
	Stdin   io.Reader       // Reader for "-" (default os.Stdin)
	Logger  *logging.Logger // Default is the global logger
}

func (o Options) logger() *logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.Global()
}

// Load opens source (a local path, "-" or s3://bucket/key) and parses it.
// Gzip-compressed exports are decompressed transparently.
func Load(ctx context.Context, source string, opts Options) *models.Dataset {
	start := time.Now()

	rc, err := open(ctx, source, opts)
	if err != nil {
		return finish(&models.Dataset{Source: source}, newLoadError(source, 0, err), 0, start, opts)
	}
	defer rc.Close()

	return read(rc, source, opts, start)
}

// Read parses an export from r. name identifies the source in status and logs.
func Read(r io.Reader, name string, opts Options) *models.Dataset {
	return read(r, name, opts, time.Now())
}

func open(ctx context.Context, source string, opts Options) (io.ReadCloser, error) {
	switch {
	case source == StdinSource:
		if opts.Stdin != nil {
			return io.NopCloser(opts.Stdin), nil
		}
		return io.NopCloser(os.Stdin), nil
	case IsS3(source):
		return openS3(ctx, opts.S3, opts.S3Err, source)
	default:
		return os.Open(source)
	}
}

func read(r io.Reader, name string, opts Options, start time.Time) *models.Dataset {
	ds := &models.Dataset{Source: name}
	counter := &countingReader{r: r}

	body, err := decompress(counter)
	if err != nil {
		return finish(ds, newLoadError(name, 0, err), counter.n, start, opts)
	}

	samples, truncated, err := parseCSV(body, opts.MaxRows)
	if err != nil {
		return finish(ds, newLoadError(name, 0, err), counter.n, start, opts)
	}

	ds.Samples = samples
	ds.Truncated = truncated
	return finish(ds, nil, counter.n, start, opts)
}

// decompress detects the gzip magic bytes and unwraps compressed input
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

// finish records the outcome of a load in the dataset, metrics and logs
func finish(ds *models.Dataset, loadErr *LoadError, size int64, start time.Time, opts Options) *models.Dataset {
	log := opts.logger().With("source", ds.Source)
	elapsed := time.Since(start)

	if loadErr != nil {
		if loadErr.Source == "" {
			loadErr.Source = ds.Source
		}
		ds.Samples = nil
		ds.Truncated = false
		ds.Status = append(ds.Status, loadErr.Error())

		metrics.ObserveLoad(metrics.ResultError, elapsed)
		metrics.IncLoadError(string(loadErr.Kind))
		log.Warn("Failed to load export", "kind", string(loadErr.Kind), "error", loadErr.Error())
		return ds
	}

	metrics.ObserveLoad(metrics.ResultSuccess, elapsed)
	metrics.ObserveSamples(len(ds.Samples))
	if ds.Truncated {
		log.Warn("Row cap reached, remaining rows ignored", "max_rows", opts.MaxRows)
	}
	log.Info("Loaded export",
		"samples", humanize.Comma(int64(len(ds.Samples))),
		"size", humanize.Bytes(uint64(size)),
		"duration", elapsed.String())

	return ds
}

// countingReader counts the bytes read from the underlying source
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
