package config_test

import (
	"testing"

	"github.com/okian/mcreate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8888")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.UpstreamBaseURL, convey.ShouldEqual, "https://one.nhtsa.gov")
			convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 10_000)
			convey.So(cfg.CrashConcurrency, convey.ShouldEqual, 10)
			convey.So(cfg.DocsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
