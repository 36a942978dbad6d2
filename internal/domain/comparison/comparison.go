// Package comparison computes the pairwise attribute comparison of two robots.
//
// The calculator is pure: no I/O, no errors, deterministic output. Input
// decoding (string-encoded numbers, nulls) happens at the boundary through
// model.Measure, so every value seen here is either present or absent.
package comparison

import (
	"encoding/json"
	"math"

	"github.com/robostorm/robostorm/internal/domain/model"
)

// Side identifies robot A or robot B. The empty Side encodes as JSON null.
type Side string

// Sides and the overall tie outcome.
const (
	SideNone Side = ""
	SideA    Side = "a"
	SideB    Side = "b"
	Tie      Side = "tie"
)

// MarshalJSON encodes SideNone as null.
func (s Side) MarshalJSON() ([]byte, error) {
	if s == SideNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// Attribute is one comparable robot attribute and its preference policy.
type Attribute struct {
	Key            string
	Label          string
	Unit           string
	HigherIsBetter bool
	value          func(model.Robot) model.Measure
}

// Value extracts the attribute from r.
func (a Attribute) Value(r model.Robot) model.Measure {
	return a.value(r)
}

var attributes = []Attribute{
	{Key: "height", Label: "Height", Unit: "cm", value: func(r model.Robot) model.Measure { return r.HeightCM }},
	{Key: "weight", Label: "Weight", Unit: "kg", value: func(r model.Robot) model.Measure { return r.WeightKG }},
	{Key: "price", Label: "Price", Unit: "USD", value: func(r model.Robot) model.Measure { return r.EstimatedPriceUSD }},
	{Key: "rating", Label: "Rating", HigherIsBetter: true, value: func(r model.Robot) model.Measure { return r.RatingAverage }},
	{Key: "walking_speed", Label: "Walking Speed", Unit: "km/h", HigherIsBetter: true, value: func(r model.Robot) model.Measure { return r.WalkingSpeedKMH }},
	{Key: "payload", Label: "Max Payload", Unit: "kg", HigherIsBetter: true, value: func(r model.Robot) model.Measure { return r.MaxPayloadKG }},
	{Key: "battery_life", Label: "Battery Life", Unit: "hours", HigherIsBetter: true, value: func(r model.Robot) model.Measure { return r.BatteryLifeHours }},
	{Key: "release_year", Label: "Release Year", HigherIsBetter: true, value: model.Robot.ReleaseYear},
}

// Attributes returns the fixed, ordered attribute table.
func Attributes() []Attribute {
	out := make([]Attribute, len(attributes))
	copy(out, attributes)
	return out
}

// Metric is one attribute's pairwise comparison.
type Metric struct {
	Key            string        `json:"key"`
	Label          string        `json:"label"`
	Unit           string        `json:"unit,omitempty"`
	ValueA         model.Measure `json:"value_a"`
	ValueB         model.Measure `json:"value_b"`
	Difference     model.Measure `json:"difference"`
	Winner         Side          `json:"winner"`
	HigherIsBetter bool          `json:"higher_is_better"`
}

// Comparable reports whether both sides had a value.
func (m Metric) Comparable() bool {
	return m.ValueA.Valid && m.ValueB.Valid
}

// Result aggregates every metric for one robot pair.
type Result struct {
	Metrics         []Metric `json:"metrics"`
	OverallWinner   Side     `json:"overall_winner"`
	AWins           int      `json:"a_wins"`
	BWins           int      `json:"b_wins"`
	TotalComparable int      `json:"total_comparable"`
}

// Compare builds the comparison of a against b over the attribute table.
func Compare(a, b model.Robot) Result {
	res := Result{Metrics: make([]Metric, 0, len(attributes))}

	for _, attr := range attributes {
		m := compareValues(attr, attr.Value(a), attr.Value(b))
		if m.Comparable() {
			res.TotalComparable++
			switch m.Winner {
			case SideA:
				res.AWins++
			case SideB:
				res.BWins++
			}
		}
		res.Metrics = append(res.Metrics, m)
	}

	switch {
	case res.AWins > res.BWins:
		res.OverallWinner = SideA
	case res.BWins > res.AWins:
		res.OverallWinner = SideB
	default:
		res.OverallWinner = Tie
	}
	return res
}

func compareValues(attr Attribute, va, vb model.Measure) Metric {
	m := Metric{
		Key:            attr.Key,
		Label:          attr.Label,
		Unit:           attr.Unit,
		ValueA:         va,
		ValueB:         vb,
		HigherIsBetter: attr.HigherIsBetter,
	}
	if !m.Comparable() {
		return m
	}

	m.Difference = model.Some(math.Abs(va.Float64 - vb.Float64))
	if va.Float64 == vb.Float64 {
		return m
	}
	aHigher := va.Float64 > vb.Float64
	if aHigher == attr.HigherIsBetter {
		m.Winner = SideA
	} else {
		m.Winner = SideB
	}
	return m
}
