package fixtures_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robostorm/robostorm/internal/adapters/fixtures"
	"github.com/robostorm/robostorm/internal/adapters/repository"
	"github.com/robostorm/robostorm/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const catalog = `
manufacturers:
  - name: Boston Dynamics
    country: US
robots:
  - name: Atlas
    manufacturer: Boston Dynamics
    category: humanoid
    height_cm: 150
    weight_kg: "89"
    estimated_price_usd: null
    release_date: 2024-04-17
    specifications:
      - name: dof
        value: "28"
    media:
      - url: https://img.example/atlas.png
        media_type: image
        is_primary: true
  - name: Digit V4
    slug: digit
    manufacturer: Agility Robotics
    status: draft
    rating_average: unknown
news:
  - title: Atlas goes electric
    source_name: wire
    tags: [humanoid]
`

func TestLoad(t *testing.T) {
	Convey("Given a catalog document", t, func() {
		set, err := fixtures.Load(strings.NewReader(catalog))

		Convey("Then it decodes and normalizes entries", func() {
			So(err, ShouldBeNil)
			So(set.Manufacturers, ShouldHaveLength, 1)
			So(set.Robots, ShouldHaveLength, 2)
			So(set.News, ShouldHaveLength, 1)

			atlas := set.Robots[0]
			So(atlas.Slug, ShouldEqual, "atlas")
			So(atlas.Status, ShouldEqual, model.StatusActive)
			So(atlas.HeightCM, ShouldResemble, model.Some(150))
			So(atlas.WeightKG, ShouldResemble, model.Some(89))
			So(atlas.EstimatedPriceUSD.Valid, ShouldBeFalse)
			So(atlas.ReleaseYear(), ShouldResemble, model.Some(2024))
			So(atlas.Manufacturer, ShouldEqual, "Boston Dynamics")

			digit := set.Robots[1]
			So(digit.Slug, ShouldEqual, "digit")
			So(digit.Status, ShouldEqual, model.StatusDraft)
			So(digit.RatingAverage.Valid, ShouldBeFalse)
		})
	})

	Convey("Given invalid documents", t, func() {
		cases := map[string]string{
			"unknown key":     "robots:\n  - name: X\n    colour: red\n",
			"missing name":    "robots:\n  - slug: x\n",
			"duplicate slug":  "robots:\n  - name: X\n  - name: x\n",
			"bad status":      "robots:\n  - name: X\n    status: retired\n",
			"untitled news":   "news:\n  - source_name: wire\n",
			"nameless vendor": "manufacturers:\n  - country: US\n",
		}
		for name, doc := range cases {
			Convey("Then a document with "+name+" is rejected", func() {
				_, err := fixtures.Load(strings.NewReader(doc))
				So(errors.Is(err, fixtures.ErrInvalidFixture), ShouldBeTrue)
			})
		}
	})

	Convey("Given an empty document", t, func() {
		set, err := fixtures.Load(strings.NewReader(""))

		Convey("Then it is an empty set", func() {
			So(err, ShouldBeNil)
			So(set.Robots, ShouldBeEmpty)
		})
	})
}

func TestSlugify(t *testing.T) {
	Convey("Slugify joins alphanumeric runs", t, func() {
		So(fixtures.Slugify("Digit V4"), ShouldEqual, "digit-v4")
		So(fixtures.Slugify("  Unitree G1 (EDU)  "), ShouldEqual, "unitree-g1-edu")
		So(fixtures.Slugify("Optimus"), ShouldEqual, "optimus")
	})
}

func TestApply(t *testing.T) {
	Convey("Given a loaded catalog file and a memory store", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "robots.yaml")
		So(os.WriteFile(path, []byte(catalog), 0o600), ShouldBeNil)

		set, err := fixtures.LoadFile(path)
		So(err, ShouldBeNil)

		store := repository.NewMemoryStore(ctx)
		defer store.Close()

		sum, err := fixtures.Apply(ctx, store, set)

		Convey("Then robots and referenced manufacturers are stored", func() {
			So(err, ShouldBeNil)
			So(sum.Manufacturers, ShouldEqual, 2)
			So(sum.Robots, ShouldEqual, 2)

			atlas, err := store.FindBySlug(ctx, "atlas", model.FetchOptions{IncludeSpecs: true, IncludeMedia: true})
			So(err, ShouldBeNil)
			So(atlas.Manufacturer, ShouldNotBeNil)
			So(atlas.Manufacturer.Country, ShouldEqual, "US")
			So(atlas.Specifications, ShouldHaveLength, 1)
			So(atlas.Media, ShouldHaveLength, 1)

			digit, err := store.FindBySlug(ctx, "digit", model.FetchOptions{})
			So(err, ShouldBeNil)
			So(digit.Manufacturer.Name, ShouldEqual, "Agility Robotics")
		})

		Convey("Then applying twice is idempotent", func() {
			_, err := fixtures.Apply(ctx, store, set)
			So(err, ShouldBeNil)
			n, err := store.CountRobots(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := fixtures.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestShippedCatalog(t *testing.T) {
	Convey("Given the catalog shipped in configs", t, func() {
		set, err := fixtures.LoadFile(filepath.Join("..", "..", "..", "configs", "robots.yaml"))

		Convey("Then it loads and applies cleanly", func() {
			So(err, ShouldBeNil)
			So(len(set.Robots), ShouldBeGreaterThan, 0)

			store := repository.NewMemoryStore(context.Background())
			defer store.Close()
			sum, err := fixtures.Apply(context.Background(), store, set)
			So(err, ShouldBeNil)
			So(sum.Robots, ShouldEqual, len(set.Robots))
		})
	})
}
