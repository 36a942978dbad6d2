package config_test

import (
	"testing"
	"time"

	"github.com/robostorm/robostorm/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 3000)
			convey.So(cfg.StoreTimeout(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.MaxRandomCount, convey.ShouldEqual, 50)
			convey.So(cfg.MaxPopularLimit, convey.ShouldEqual, 100)
			convey.So(cfg.IdempotencySize, convey.ShouldEqual, 100_000)
			convey.So(cfg.CORSAllowOrigin, convey.ShouldEqual, "*")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
