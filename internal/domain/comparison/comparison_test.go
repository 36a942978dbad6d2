package comparison_test

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/robostorm/robostorm/internal/domain/comparison"
	"github.com/robostorm/robostorm/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func metricByKey(res comparison.Result, key string) comparison.Metric {
	for _, m := range res.Metrics {
		if m.Key == key {
			return m
		}
	}
	panic("no metric " + key)
}

func TestCompare_Scenario(t *testing.T) {
	Convey("Given A={height:150, weight:80, price:null} and B={height:170, weight:80, price:50000}", t, func() {
		a := model.Robot{ID: "a", HeightCM: model.Some(150), WeightKG: model.Some(80)}
		b := model.Robot{ID: "b", HeightCM: model.Some(170), WeightKG: model.Some(80), EstimatedPriceUSD: model.Some(50000)}

		res := comparison.Compare(a, b)

		Convey("Then the shorter robot wins height by 20", func() {
			h := metricByKey(res, "height")
			So(h.Difference, ShouldResemble, model.Some(20))
			So(h.Winner, ShouldEqual, comparison.SideA)
			So(h.HigherIsBetter, ShouldBeFalse)
		})

		Convey("And equal weight has zero difference and no winner", func() {
			w := metricByKey(res, "weight")
			So(w.Difference, ShouldResemble, model.Some(0))
			So(w.Winner, ShouldEqual, comparison.SideNone)
		})

		Convey("And price is not comparable", func() {
			p := metricByKey(res, "price")
			So(p.Difference.Valid, ShouldBeFalse)
			So(p.Winner, ShouldEqual, comparison.SideNone)
		})

		Convey("And A wins overall 1-0 over 2 comparable metrics", func() {
			So(res.TotalComparable, ShouldEqual, 2)
			So(res.AWins, ShouldEqual, 1)
			So(res.BWins, ShouldEqual, 0)
			So(res.OverallWinner, ShouldEqual, comparison.SideA)
		})
	})
}

func TestCompare_Policies(t *testing.T) {
	Convey("Given robots differing on higher-is-better attributes", t, func() {
		release := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		older := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
		a := model.Robot{RatingAverage: model.Some(4.5), WalkingSpeedKMH: model.Some(3), MaxPayloadKG: model.Some(20), BatteryLifeHours: model.Some(2), ReleaseDate: &older}
		b := model.Robot{RatingAverage: model.Some(4.0), WalkingSpeedKMH: model.Some(5), MaxPayloadKG: model.Some(25), BatteryLifeHours: model.Some(4), ReleaseDate: &release}

		res := comparison.Compare(a, b)

		Convey("Then the higher value wins each of them", func() {
			So(metricByKey(res, "rating").Winner, ShouldEqual, comparison.SideA)
			So(metricByKey(res, "walking_speed").Winner, ShouldEqual, comparison.SideB)
			So(metricByKey(res, "payload").Winner, ShouldEqual, comparison.SideB)
			So(metricByKey(res, "battery_life").Winner, ShouldEqual, comparison.SideB)
			So(metricByKey(res, "release_year").Winner, ShouldEqual, comparison.SideB)
			So(metricByKey(res, "release_year").Difference, ShouldResemble, model.Some(3))
			So(res.OverallWinner, ShouldEqual, comparison.SideB)
		})
	})

	Convey("Given two empty robots", t, func() {
		res := comparison.Compare(model.Robot{}, model.Robot{})

		Convey("Then every metric is present with null winner and difference", func() {
			So(res.Metrics, ShouldHaveLength, len(comparison.Attributes()))
			for _, m := range res.Metrics {
				So(m.Winner, ShouldEqual, comparison.SideNone)
				So(m.Difference.Valid, ShouldBeFalse)
			}
		})

		Convey("And the result is a tie", func() {
			So(res.TotalComparable, ShouldEqual, 0)
			So(res.OverallWinner, ShouldEqual, comparison.Tie)
		})
	})

	Convey("Given split wins", t, func() {
		a := model.Robot{HeightCM: model.Some(100), RatingAverage: model.Some(3)}
		b := model.Robot{HeightCM: model.Some(120), RatingAverage: model.Some(4)}

		So(comparison.Compare(a, b).OverallWinner, ShouldEqual, comparison.Tie)
	})
}

func randomMeasure(rng *rand.Rand) model.Measure {
	if rng.Intn(3) == 0 {
		return model.None()
	}
	return model.Some(math.Round(rng.Float64()*2000) / 10)
}

func randomRobot(rng *rand.Rand) model.Robot {
	return model.Robot{
		HeightCM:          randomMeasure(rng),
		WeightKG:          randomMeasure(rng),
		EstimatedPriceUSD: randomMeasure(rng),
		RatingAverage:     randomMeasure(rng),
		WalkingSpeedKMH:   randomMeasure(rng),
		MaxPayloadKG:      randomMeasure(rng),
		BatteryLifeHours:  randomMeasure(rng),
	}
}

func TestCompare_Properties(t *testing.T) {
	Convey("Given many random robot pairs", t, func() {
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test data

		Convey("Then the metric invariants hold for every pair", func() {
			for i := 0; i < 500; i++ {
				a, b := randomRobot(rng), randomRobot(rng)
				res := comparison.Compare(a, b)

				comparable, aWins, bWins := 0, 0, 0
				for j, attr := range comparison.Attributes() {
					m := res.Metrics[j]
					So(m.Key, ShouldEqual, attr.Key)
					va, vb := attr.Value(a), attr.Value(b)
					if !va.Valid || !vb.Valid {
						So(m.Winner, ShouldEqual, comparison.SideNone)
						So(m.Difference.Valid, ShouldBeFalse)
						continue
					}
					comparable++
					So(m.Difference.Float64, ShouldEqual, math.Abs(va.Float64-vb.Float64))
					So(m.Difference.Float64, ShouldBeGreaterThanOrEqualTo, 0)
					if va.Float64 == vb.Float64 {
						So(m.Winner, ShouldEqual, comparison.SideNone)
					}
					switch m.Winner {
					case comparison.SideA:
						aWins++
					case comparison.SideB:
						bWins++
					}
				}
				So(res.TotalComparable, ShouldEqual, comparable)
				So(res.AWins, ShouldEqual, aWins)
				So(res.BWins, ShouldEqual, bWins)
				if comparable == 0 {
					So(res.OverallWinner, ShouldEqual, comparison.Tie)
				}
			}
		})

		Convey("Then comparing the same snapshots twice is bit-identical", func() {
			a, b := randomRobot(rng), randomRobot(rng)
			first, err := json.Marshal(comparison.Compare(a, b))
			So(err, ShouldBeNil)
			second, err := json.Marshal(comparison.Compare(a, b))
			So(err, ShouldBeNil)
			So(string(second), ShouldEqual, string(first))
			So(comparison.Compare(a, b), ShouldResemble, comparison.Compare(a, b))
		})
	})
}

func TestResultJSON(t *testing.T) {
	Convey("Given a result with an incomparable metric", t, func() {
		res := comparison.Compare(model.Robot{HeightCM: model.Some(150)}, model.Robot{})
		out, err := json.Marshal(res.Metrics[0])

		Convey("Then winner and difference are null", func() {
			So(err, ShouldBeNil)
			So(string(out), ShouldContainSubstring, `"winner":null`)
			So(string(out), ShouldContainSubstring, `"difference":null`)
			So(string(out), ShouldContainSubstring, `"value_a":150`)
		})

		Convey("And the overall winner encodes as tie", func() {
			raw, err := json.Marshal(res)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"overall_winner":"tie"`)
		})
	})
}
