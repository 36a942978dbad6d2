// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Measure is an optional numeric robot attribute. The zero value is absent,
// which is distinct from a present zero.
type Measure struct {
	Float64 float64
	Valid   bool
}

// Some returns a present measure.
func Some(v float64) Measure {
	return Measure{Float64: v, Valid: true}
}

// None returns an absent measure.
func None() Measure {
	return Measure{}
}

// ParseMeasure interprets s as a number. Blank, malformed and non-finite
// input yields an absent measure.
func ParseMeasure(s string) Measure {
	s = strings.TrimSpace(s)
	if s == "" {
		return None()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None()
	}
	return finite(v)
}

func finite(v float64) Measure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return None()
	}
	return Some(v)
}

// Ptr returns nil for an absent measure.
func (m Measure) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Float64
	return &v
}

func (m Measure) String() string {
	if !m.Valid {
		return "null"
	}
	return strconv.FormatFloat(m.Float64, 'f', -1, 64)
}

// MarshalJSON encodes an absent measure as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Float64)
}

// UnmarshalJSON accepts null, numbers and string-encoded numbers. Anything
// else decodes as absent rather than failing the whole document.
func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*m = None()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*m = None()
			return nil
		}
		*m = ParseMeasure(s)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			*m = None()
			return nil
		}
		*m = finite(v)
	}
	return nil
}

// UnmarshalYAML applies the same rules as UnmarshalJSON to fixture files.
func (m *Measure) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
		*m = None()
		return nil
	}
	*m = ParseMeasure(value.Value)
	return nil
}

// Scan implements sql.Scanner for nullable numeric columns.
func (m *Measure) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = None()
	case float64:
		*m = finite(v)
	case float32:
		*m = finite(float64(v))
	case int64:
		*m = Some(float64(v))
	case []byte:
		*m = ParseMeasure(string(v))
	case string:
		*m = ParseMeasure(v)
	default:
		return fmt.Errorf("measure: unsupported scan type %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (m Measure) Value() (driver.Value, error) {
	if !m.Valid {
		return nil, nil
	}
	return m.Float64, nil
}
