package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered on it", func() {
				So(manager, ShouldNotBeNil)
				manager.entriesFetched.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(manager.entriesFetched), ShouldEqual, 3)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.jobsSubmitted.Inc()

			Convey("Then names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_ns_test_sub_jobs_submitted_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "cardrank")
				So(manager.subsystem, ShouldEqual, "service")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording source metrics", func() {
			before := testutil.ToFloat64(globalManager.entriesFetched)
			RecordFetch("ok", 120)
			RecordEntriesFetched(42)
			RecordRateLimitWait(3)
			RecordFetchThrottled()

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.entriesFetched)-before, ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.fetchRequests.WithLabelValues("ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording aggregation and job metrics", func() {
			So(func() {
				RecordAggregation(0.4, 312)
				RecordExport()
				RecordJobSubmitted()
				UpdateJobsByStatus("pending", 2)
				RecordJobEvicted()
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.jobsByStatus.WithLabelValues("pending")), ShouldEqual, 2)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(250)
				RecordWorkerError()
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 10)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("scores", "GET", "200")
				RecordHTTPRequestDuration("scores", "GET", "200", 15)
				RecordErrorByComponent("source", "status")
				RecordErrorByType("upstream_error", "high")
				RecordErrorByEndpoint("scores", "GET", "server_error")
				RecordErrorLatency("http", "server_error", 30)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When exposing the registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then only cardrank metrics are present", func() {
				So(err, ShouldBeNil)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "cardrank_"), ShouldBeTrue)
				}
			})
		})
	})
}
