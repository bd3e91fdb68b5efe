package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.upstreamRequests.WithLabelValues("vehicles", "ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_upstream_requests_total")
			})
		})

		Convey("When empty options are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "mcreate")
				So(manager.subsystem, ShouldEqual, "facade")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording crash fan-outs", func() {
			before := testutil.ToFloat64(globalManager.crashLookupsDropped)
			RecordCrashFanout(3, 1)
			RecordCrashFanout(2, 0)

			Convey("Then only dropped lookups are counted", func() {
				So(testutil.ToFloat64(globalManager.crashLookupsDropped)-before, ShouldEqual, float64(1))
			})
		})

		Convey("When recording fallbacks", func() {
			c := globalManager.fallbackResponses.WithLabelValues("vehicles", "upstream_error")
			before := testutil.ToFloat64(c)
			RecordFallback("vehicles", "upstream_error")

			Convey("Then the labelled counter increases", func() {
				So(testutil.ToFloat64(c)-before, ShouldEqual, float64(1))
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordHTTPRequest("vehicles", "GET", "200")
				RecordHTTPRequestDuration("vehicles", "GET", "200", 12)
				RecordErrorByEndpoint("vehicles", "GET", "not_found")
				RecordUpstreamRequest("crash", "error", 30)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)

			Convey("Then the registry gathers without error", func() {
				_, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
			})
		})
	})
}
