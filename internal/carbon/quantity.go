package carbon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quantity is a numeric input field that may arrive as a JSON number or as a
// numeric JSON string (HTML form values are posted as strings). Decoding never
// fails; whether the value is present and numeric is checked by Value.
type Quantity struct {
	raw     string
	present bool
}

// NewQuantity returns a present Quantity holding v.
func NewQuantity(v float64) Quantity {
	return Quantity{raw: strconv.FormatFloat(v, 'f', -1, 64), present: true}
}

// Present reports whether the field was supplied with a non-null value.
func (q Quantity) Present() bool {
	return q.present
}

// Value parses the quantity as a finite, non-negative number.
func (q Quantity) Value() (float64, error) {
	if !q.present {
		return 0, fmt.Errorf("is required")
	}
	v, err := strconv.ParseFloat(q.raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be a number, got %q", q.raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", q.raw)
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*q = Quantity{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("decoding quantity %s: %w", s, err)
		}
		s = strings.TrimSpace(unquoted)
	}
	*q = Quantity{raw: s, present: true}
	return nil
}

// MarshalJSON implements json.Marshaler. Numeric values are written as JSON
// numbers, anything else as the original string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.present {
		return []byte("null"), nil
	}
	if v, err := strconv.ParseFloat(q.raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return []byte(strconv.Quote(q.raw)), nil
}
