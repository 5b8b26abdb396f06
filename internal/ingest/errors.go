package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/gzip"
)

// Kind categorizes why an export could not be loaded
type Kind string

const (
	KindNotFound         Kind = "not found"
	KindPermissionDenied Kind = "permission denied"
	KindMalformedFormat  Kind = "malformed format"
	KindUnknown          Kind = "unknown"
)

// formatError marks schema and row problems detected while parsing
type formatError struct {
	err error
}

func (e *formatError) Error() string {
	return e.err.Error()
}

func (e *formatError) Unwrap() error {
	return e.err
}

// malformedf builds a format error; %w verbs keep the cause reachable
func malformedf(format string, args ...interface{}) error {
	return &formatError{err: fmt.Errorf(format, args...)}
}

// LoadError describes a failed load. Its message becomes a Dataset status entry.
type LoadError struct {
	Kind   Kind
	Source string
	Line   int // 1-based CSV line, 0 when not row specific
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	switch e.Kind {
	case KindPermissionDenied:
		b.WriteString("are you allowed to access this file? ")
	case KindMalformedFormat:
		b.WriteString("incorrect file format? ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// newLoadError classifies err and wraps it with its source location
func newLoadError(source string, line int, err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Kind: Classify(err), Source: source, Line: line, Err: err}
}

// Classify maps an error from opening or parsing an export to its Kind
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, gzip.ErrHeader),
		errors.Is(err, gzip.ErrChecksum):
		return KindMalformedFormat
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return KindNotFound
		case "AccessDenied", "Forbidden", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return KindPermissionDenied
		}
		return KindUnknown
	}

	var fmtErr *formatError
	if errors.As(err, &fmtErr) {
		return KindMalformedFormat
	}

	var parseErr *csv.ParseError
	var numErr *strconv.NumError
	var timeErr *time.ParseError
	if errors.As(err, &parseErr) || errors.As(err, &numErr) || errors.As(err, &timeErr) {
		return KindMalformedFormat
	}

	return KindUnknown
}
