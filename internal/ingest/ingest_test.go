package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/pvdash/internal/logging"
)

const sampleCSV = `date,ac_power,ac_energy_today,dc_voltage
2023-01-01 12:00:00,1000,0.5,410
2023-01-01 12:05:31,1200.5,0.6,411
2023-01-02 12:00:00,0,0,0
`

func testOptions() Options {
	return Options{Logger: logging.Nop()}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRead_ParsesSamples(t *testing.T) {
	ds := Read(strings.NewReader(sampleCSV), "upload.csv", testOptions())

	require.True(t, ds.OK(), "status: %v", ds.Status)
	require.Len(t, ds.Samples, 3)
	assert.Equal(t, "upload.csv", ds.Source)
	assert.False(t, ds.Truncated)

	first := ds.Samples[0]
	assert.Equal(t, time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, 1000.0, first.PowerW)
	assert.Equal(t, 0.5, first.EnergyTodayKWh)
	assert.Equal(t, "2023-01-01", first.Day())
	assert.Equal(t, "12:00:00", first.TimeOfDay())

	assert.Equal(t, "12:05:31", ds.Samples[1].TimeOfDay())
	assert.Equal(t, 1200.5, ds.Samples[1].PowerW)
}

func TestRead_ColumnOrderAndCaseDoNotMatter(t *testing.T) {
	data := "\ufeffAC_Energy_Today, Date ,extra,AC_POWER\n1.5,2023-05-01T08:10:00,x,250\n"

	ds := Read(strings.NewReader(data), "reordered.csv", testOptions())

	require.True(t, ds.OK(), "status: %v", ds.Status)
	require.Len(t, ds.Samples, 1)
	assert.Equal(t, 250.0, ds.Samples[0].PowerW)
	assert.Equal(t, 1.5, ds.Samples[0].EnergyTodayKWh)
	assert.Equal(t, "08:10:00", ds.Samples[0].TimeOfDay())
}

func TestRead_TimestampLayouts(t *testing.T) {
	tests := []struct {
		in      string
		wantDay string
		wantTOD string
	}{
		{"2023-01-01 12:00:00", "2023-01-01", "12:00:00"},
		{"2023-01-01T12:00:00", "2023-01-01", "12:00:00"},
		{"2023-01-01 12:00:00.250", "2023-01-01", "12:00:00"},
		{"2023-06-01T13:12:00+02:00", "2023-06-01", "13:12:00"},
		{"2023-06-01 23:59:00+02:00", "2023-06-01", "23:59:00"},
		{"2023-06-01 06:30", "2023-06-01", "06:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, err := parseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDay, ts.Format("2006-01-02"))
			assert.Equal(t, tt.wantTOD, ts.Format("15:04:05"))
		})
	}
}

func TestRead_HeaderOnlyIsEmptyDataset(t *testing.T) {
	ds := Read(strings.NewReader("date,ac_power,ac_energy_today\n"), "empty.csv", testOptions())

	assert.True(t, ds.OK())
	assert.Empty(t, ds.Samples)
}

func TestRead_MalformedInputs(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		contains string
	}{
		{"empty file", "", "missing header row"},
		{"missing column", "date,ac_power\n2023-01-01 12:00:00,10\n", "ac_energy_today"},
		{"bad number", "date,ac_power,ac_energy_today\n2023-01-01 12:00:00,abc,1\n", "line 2"},
		{"bad timestamp", "date,ac_power,ac_energy_today\nyesterday,1,1\n", "unrecognized timestamp"},
		{"empty value", "date,ac_power,ac_energy_today\n2023-01-01 12:00:00,,1\n", "empty ac_power"},
		{"ragged row", "date,ac_power,ac_energy_today\n2023-01-01 12:00:00,1\n", "line 2"},
		{"not finite", "date,ac_power,ac_energy_today\n2023-01-01 12:00:00,NaN,1\n", "not a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := Read(strings.NewReader(tt.data), "bad.csv", testOptions())

			assert.False(t, ds.OK())
			assert.Empty(t, ds.Samples)
			require.Len(t, ds.Status, 1)
			assert.True(t, strings.HasPrefix(ds.Status[0], "malformed format: "), ds.Status[0])
			assert.Contains(t, ds.Status[0], tt.contains)
		})
	}
}

func TestRead_MaxRowsTruncates(t *testing.T) {
	opts := testOptions()
	opts.MaxRows = 2

	ds := Read(strings.NewReader(sampleCSV), "capped.csv", opts)

	require.True(t, ds.OK())
	assert.Len(t, ds.Samples, 2)
	assert.True(t, ds.Truncated)
}

func TestRead_MaxRowsNotReached(t *testing.T) {
	opts := testOptions()
	opts.MaxRows = 3

	ds := Read(strings.NewReader(sampleCSV), "exact.csv", opts)

	require.True(t, ds.OK())
	assert.Len(t, ds.Samples, 3)
	assert.False(t, ds.Truncated)
}

func TestRead_MaxRowsIgnoresMalformedRowPastCap(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"ragged row", "2023-01-01 12:10:00,oops"},
		{"bad number", "2023-01-01 12:10:00,oops,0.7,412"},
		{"bad timestamp", "yesterday,1000,0.7,412"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `date,ac_power,ac_energy_today,dc_voltage
2023-01-01 12:00:00,1000,0.5,410
2023-01-01 12:05:00,1200,0.6,411
` + tt.row + "\n"
			opts := testOptions()
			opts.MaxRows = 2

			ds := Read(strings.NewReader(input), "capped.csv", opts)

			require.True(t, ds.OK(), "status: %v", ds.Status)
			assert.Len(t, ds.Samples, 2)
			assert.True(t, ds.Truncated)
		})
	}
}

func TestRead_MalformedRowWithinCap(t *testing.T) {
	input := `date,ac_power,ac_energy_today
2023-01-01 12:00:00,1000,0.5
2023-01-01 12:05:00,oops,0.6
`
	opts := testOptions()
	opts.MaxRows = 2

	ds := Read(strings.NewReader(input), "capped.csv", opts)

	require.Len(t, ds.Status, 1)
	assert.Contains(t, ds.Status[0], "malformed format: ")
	assert.Empty(t, ds.Samples)
	assert.False(t, ds.Truncated)
}

func TestRead_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ds := Read(&buf, "export.csv.gz", testOptions())

	require.True(t, ds.OK(), "status: %v", ds.Status)
	assert.Len(t, ds.Samples, 3)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "export.csv", sampleCSV)

	ds := Load(context.Background(), path, testOptions())

	require.True(t, ds.OK())
	assert.Len(t, ds.Samples, 3)
	assert.Equal(t, path, ds.Source)
}

func TestLoad_NotFound(t *testing.T) {
	ds := Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), testOptions())

	assert.False(t, ds.OK())
	assert.Empty(t, ds.Samples)
	require.Len(t, ds.Status, 1)
	assert.True(t, strings.HasPrefix(ds.Status[0], "not found: "), ds.Status[0])
}

func TestLoad_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for this user")
	}
	path := writeFile(t, "locked.csv", sampleCSV)
	require.NoError(t, os.Chmod(path, 0000))

	ds := Load(context.Background(), path, testOptions())

	require.Len(t, ds.Status, 1)
	assert.True(t, strings.HasPrefix(ds.Status[0], "permission denied: "), ds.Status[0])
}

func TestLoad_Stdin(t *testing.T) {
	opts := testOptions()
	opts.Stdin = strings.NewReader(sampleCSV)

	ds := Load(context.Background(), StdinSource, opts)

	require.True(t, ds.OK())
	assert.Len(t, ds.Samples, 3)
}

type fakeS3 struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestLoad_S3(t *testing.T) {
	client := &fakeS3{body: sampleCSV}
	opts := testOptions()
	opts.S3 = client

	ds := Load(context.Background(), "s3://pv-exports/2023/jan.csv", opts)

	require.True(t, ds.OK(), "status: %v", ds.Status)
	assert.Len(t, ds.Samples, 3)
	assert.Equal(t, "pv-exports", client.bucket)
	assert.Equal(t, "2023/jan.csv", client.key)
}

func TestLoad_S3Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		client ObjectGetter
		prefix string
	}{
		{"no such key", "s3://b/k.csv", &fakeS3{err: &smithy.GenericAPIError{Code: "NoSuchKey"}}, "not found: "},
		{"access denied", "s3://b/k.csv", &fakeS3{err: &smithy.GenericAPIError{Code: "AccessDenied"}}, "permission denied: "},
		{"other api error", "s3://b/k.csv", &fakeS3{err: &smithy.GenericAPIError{Code: "SlowDown"}}, "unknown: "},
		{"no client", "s3://b/k.csv", nil, "unknown: "},
		{"missing key", "s3://bucket-only", &fakeS3{}, "malformed format: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.S3 = tt.client

			ds := Load(context.Background(), tt.source, opts)

			require.Len(t, ds.Status, 1)
			assert.True(t, strings.HasPrefix(ds.Status[0], tt.prefix), ds.Status[0])
		})
	}
}

func TestLoad_S3ClientError(t *testing.T) {
	opts := testOptions()
	opts.S3Err = errors.New("creating S3 client: loading AWS config: no region")

	ds := Load(context.Background(), "s3://b/k.csv", opts)

	require.False(t, ds.OK())
	assert.Equal(t, []string{"unknown: creating S3 client: loading AWS config: no region"}, ds.Status)
	assert.Empty(t, ds.Samples)
}

func TestLoad_S3ClientErrorIgnoredForFiles(t *testing.T) {
	path := writeFile(t, "export.csv", sampleCSV)
	opts := testOptions()
	opts.S3Err = errors.New("creating S3 client: no region")

	ds := Load(context.Background(), path, opts)

	require.True(t, ds.OK(), "status: %v", ds.Status)
	assert.Len(t, ds.Samples, 3)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Kind(""), Classify(nil))
	assert.Equal(t, KindNotFound, Classify(os.ErrNotExist))
	assert.Equal(t, KindPermissionDenied, Classify(os.ErrPermission))
	assert.Equal(t, KindMalformedFormat, Classify(malformedf("bad")))
	assert.Equal(t, KindMalformedFormat, Classify(gzip.ErrHeader))
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")))
	assert.Equal(t, KindPermissionDenied, Classify(&LoadError{Kind: KindPermissionDenied}))
}

func TestLoadError_Error(t *testing.T) {
	err := &LoadError{Kind: KindMalformedFormat, Line: 7, Err: errors.New("empty ac_power value")}
	assert.Equal(t, "malformed format: incorrect file format? line 7: empty ac_power value", err.Error())

	err = &LoadError{Kind: KindPermissionDenied, Err: os.ErrPermission}
	assert.Equal(t, "permission denied: are you allowed to access this file? permission denied", err.Error())
}
