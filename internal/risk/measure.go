package risk

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Measure is a numeric form field that may not have been recorded.
// The zero value is Unset. Comparisons against an Unset measure are always false.
type Measure struct {
	value float64
	set   bool
}

// Unset returns a measure with no recorded value.
func Unset() Measure { return Measure{} }

// Value returns a recorded measure. NaN and infinities are treated as not recorded.
func Value(v float64) Measure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measure{}
	}
	return Measure{value: v, set: true}
}

// ParseMeasure parses a raw form string. Empty or non-numeric input yields Unset.
func ParseMeasure(s string) Measure {
	s = strings.TrimSpace(s)
	if s == "" {
		return Measure{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Measure{}
	}
	return Value(v)
}

// Get returns the value and whether it was recorded.
func (m Measure) Get() (float64, bool) { return m.value, m.set }

// IsSet reports whether a value was recorded.
func (m Measure) IsSet() bool { return m.set }

// AtLeast reports m >= t for a recorded value.
func (m Measure) AtLeast(t float64) bool { return m.set && m.value >= t }

// Below reports m < t for a recorded value.
func (m Measure) Below(t float64) bool { return m.set && m.value < t }

// Positive reports whether a recorded value is greater than zero.
func (m Measure) Positive() bool { return m.set && m.value > 0 }

// MarshalJSON encodes an unset measure as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.set {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON accepts null, a JSON number, or a numeric string.
func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Measure{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = ParseMeasure(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Value(v)
	return nil
}
