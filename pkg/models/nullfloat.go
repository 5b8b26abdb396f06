package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// NullFloat is a float64 where NaN marks an undefined value, such as the
// result of a division by zero. It marshals to JSON null.
type NullFloat float64

// Null returns an undefined NullFloat
func Null() NullFloat {
	return NullFloat(math.NaN())
}

// Valid reports whether the value is defined
func (f NullFloat) Valid() bool {
	return !math.IsNaN(float64(f))
}

// Float64 returns the raw value (NaN when undefined)
func (f NullFloat) Float64() float64 {
	return float64(f)
}

// Or returns the value, or def when undefined
func (f NullFloat) Or(def float64) float64 {
	if !f.Valid() {
		return def
	}
	return float64(f)
}

// Format renders the value with the given precision, or "-" when undefined
func (f NullFloat) Format(prec int) string {
	if !f.Valid() {
		return "-"
	}
	return strconv.FormatFloat(float64(f), 'f', prec, 64)
}

// MarshalJSON implements json.Marshaler
func (f NullFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler
func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Null()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullFloat(v)
	return nil
}
