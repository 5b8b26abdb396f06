// Package timebucket maps wall-clock times onto fixed 5-minute slots of a
// day, independent of the calendar date.
package timebucket

import (
	"fmt"
	"time"
)

const (
	// Width is the duration covered by one bucket
	Width = 5 * time.Minute

	// PerHour is the number of buckets in an hour
	PerHour = 12

	// PerDay is the number of buckets in a day
	PerDay = 24 * PerHour
)

// Bucket is the index (0..PerDay-1) of a 5-minute slot within a day
type Bucket int

// axis is generated once and never modified
var axis = func() []Bucket {
	a := make([]Bucket, PerDay)
	for i := range a {
		a[i] = Bucket(i)
	}
	return a
}()

// Axis returns the canonical sequence of all buckets of a day, starting at 00:00:00
func Axis() []Bucket {
	out := make([]Bucket, len(axis))
	copy(out, axis)
	return out
}

// Of returns the bucket containing the wall-clock time of t.
// Seconds and sub-second parts are discarded.
func Of(t time.Time) Bucket {
	return FromClock(t.Hour(), t.Minute())
}

// FromClock returns the bucket containing hour:minute
func FromClock(hour, minute int) Bucket {
	return Bucket(hour*PerHour + minute/5)
}

// Parse floors a time-of-day string (HH:MM or HH:MM:SS) to its bucket
func Parse(s string) (Bucket, error) {
	var t time.Time
	var err error
	switch len(s) {
	case len("15:04"):
		t, err = time.Parse("15:04", s)
	default:
		t, err = time.Parse("15:04:05", s)
	}
	if err != nil {
		return 0, fmt.Errorf("parsing time of day %q: %w", s, err)
	}
	return Of(t), nil
}

// Valid reports whether b lies within a day
func (b Bucket) Valid() bool {
	return b >= 0 && b < PerDay
}

// Clock returns the hour and minute at which the bucket starts
func (b Bucket) Clock() (hour, minute int) {
	return int(b) / PerHour, (int(b) % PerHour) * 5
}

// Minutes returns the minutes since midnight at which the bucket starts
func (b Bucket) Minutes() int {
	return int(b) * 5
}

// Offset returns the bucket start as a duration since midnight
func (b Bucket) Offset() time.Duration {
	return time.Duration(b) * Width
}

// On returns the bucket start on the calendar date of day, in day's location
func (b Bucket) On(day time.Time) time.Time {
	h, m := b.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// String renders the bucket start as HH:MM:00
func (b Bucket) String() string {
	h, m := b.Clock()
	return fmt.Sprintf("%02d:%02d:00", h, m)
}
