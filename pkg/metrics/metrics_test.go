package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewMetricsManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording pipeline metrics", func() {
			Convey("Then it should record assembled pages", func() {
				So(func() {
					RecordPageAssembled()
					RecordPageAssembled()
				}, ShouldNotPanic)
			})

			Convey("And it should record scored candidates and drops", func() {
				So(func() {
					RecordCandidatesScored(40)
					RecordDuplicateDropped()
					RecordNonviableDropped(3)
					RecordDiversityBackfill(2)
					ObservePoolSize(37)
					RecordAssemblyLatency(120.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording upstream metrics", func() {
			So(func() {
				RecordUpstreamFetch("ok")
				RecordUpstreamFetch("error")
				RecordUpstreamFetchLatency(85.0)
				RecordBreakerOpen()
				RecordStoreLookup("ok")
			}, ShouldNotPanic)
		})

		Convey("When recording learning metrics", func() {
			So(func() {
				RecordInteraction("view")
				RecordInteraction("skip")
				RecordInteraction("genre_interest")
				RecordSmartFeedServed("bootstrap")
				RecordSmartFeedServed("tiered")
				UpdateSeenItemsTracked(12)
				UpdateProfileGenres(4)
				RecordPersistenceError("save")
				RecordPersistenceLatency(2.0)
			}, ShouldNotPanic)
		})

		Convey("When recording queue metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(1024)
				UpdateQueueUtilization(0.01)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequest("/feed", "GET", "200")
				RecordHTTPRequestDuration("/feed", "GET", "200", 15.0)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(20)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When fetching it", func() {
			registry := GetRegistry()

			Convey("Then it should not be nil", func() {
				So(registry, ShouldNotBeNil)
			})
		})
	})
}
