package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager on it", func() {
			m := NewManager(WithPrometheusRegistry(registry))

			Convey("Then its collectors are registered under the gameboard namespace", func() {
				So(m, ShouldNotBeNil)
				m.cacheHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "gameboard_engine_trophy_cache_hits_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering twice on the same registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording engine activity", func() {
			before := testutil.ToFloat64(globalManager.cacheMisses)
			RecordCacheMiss()
			RecordStatisticResolution("wins", 1.5)
			RecordRoundRejected("invalid")
			RecordHTTPRequest("/groups/{groupID}/trophies", "GET", "200", 3)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.cacheMisses), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.statisticResolutions.WithLabelValues("wins")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.roundsRejected.WithLabelValues("invalid")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When gauges are set", func() {
			UpdateQueueSize(7)
			UpdateCacheEntries(2)

			Convey("Then they report the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.cacheEntries), ShouldEqual, 2)
			})
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then only gameboard metrics are exported", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "gameboard_"), ShouldBeTrue)
				}
			})
		})
	})
}
