package model_test

import (
	"encoding/json"
	"testing"

	"github.com/robostorm/robostorm/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

func TestMeasureJSON(t *testing.T) {
	Convey("Given JSON robot payloads", t, func() {
		Convey("When attributes are numbers, strings, null or missing", func() {
			var r model.Robot
			err := json.Unmarshal([]byte(`{
				"id": "r1",
				"height_cm": 150,
				"weight_kg": "80.5",
				"estimated_price_usd": null,
				"rating_average": "four",
				"max_payload_kg": 0
			}`), &r)

			Convey("Then numbers and numeric strings are present", func() {
				So(err, ShouldBeNil)
				So(r.HeightCM, ShouldResemble, model.Some(150))
				So(r.WeightKG, ShouldResemble, model.Some(80.5))
			})

			Convey("And null, malformed and missing values are absent", func() {
				So(r.EstimatedPriceUSD.Valid, ShouldBeFalse)
				So(r.RatingAverage.Valid, ShouldBeFalse)
				So(r.WalkingSpeedKMH.Valid, ShouldBeFalse)
			})

			Convey("And a present zero is not absent", func() {
				So(r.MaxPayloadKG.Valid, ShouldBeTrue)
				So(r.MaxPayloadKG.Float64, ShouldEqual, 0)
			})
		})

		Convey("When marshalling", func() {
			out, err := json.Marshal(struct {
				A model.Measure `json:"a"`
				B model.Measure `json:"b"`
			}{A: model.Some(1.25), B: model.None()})

			Convey("Then absent encodes as null", func() {
				So(err, ShouldBeNil)
				So(string(out), ShouldEqual, `{"a":1.25,"b":null}`)
			})
		})
	})
}

func TestMeasureYAML(t *testing.T) {
	Convey("Given a YAML fixture", t, func() {
		var r model.Robot
		err := yaml.Unmarshal([]byte(`
id: r1
height_cm: 171
weight_kg: "60"
estimated_price_usd: ~
battery_life_hours: n/a
`), &r)

		Convey("Then measures follow the same absence rules", func() {
			So(err, ShouldBeNil)
			So(r.HeightCM, ShouldResemble, model.Some(171))
			So(r.WeightKG, ShouldResemble, model.Some(60))
			So(r.EstimatedPriceUSD.Valid, ShouldBeFalse)
			So(r.BatteryLifeHours.Valid, ShouldBeFalse)
		})
	})
}

func TestMeasureScan(t *testing.T) {
	Convey("Given database column values", t, func() {
		cases := []struct {
			src  any
			want model.Measure
		}{
			{nil, model.None()},
			{float64(12.5), model.Some(12.5)},
			{int64(3), model.Some(3)},
			{[]byte("99000.00"), model.Some(99000)},
			{"", model.None()},
		}

		Convey("Then each scans to the expected measure", func() {
			for _, c := range cases {
				var m model.Measure
				So(m.Scan(c.src), ShouldBeNil)
				So(m, ShouldResemble, c.want)
			}
		})

		Convey("And unsupported types fail", func() {
			var m model.Measure
			So(m.Scan(true), ShouldNotBeNil)
		})

		Convey("And Value round-trips to the driver", func() {
			v, err := model.Some(2).Value()
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2.0)
			v, err = model.None().Value()
			So(err, ShouldBeNil)
			So(v, ShouldBeNil)
		})
	})
}
