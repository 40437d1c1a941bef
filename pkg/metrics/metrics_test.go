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
				WithSubsystem("rec"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the custom namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.cacheHits.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool)
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_rec_similarity_cache_hits_total"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ingestion metrics", func() {
			before := testutil.ToFloat64(globalManager.eventsTracked.WithLabelValues("view"))
			RecordEventTracked("view")
			RecordEventTracked("view")

			Convey("Then the labelled counter grows", func() {
				So(testutil.ToFloat64(globalManager.eventsTracked.WithLabelValues("view")), ShouldEqual, before+2)
			})
		})

		Convey("When recording cache metrics", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			misses := testutil.ToFloat64(globalManager.cacheMisses)
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheMiss()

			Convey("Then hits and misses are counted separately", func() {
				So(testutil.ToFloat64(globalManager.cacheHits), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.cacheMisses), ShouldEqual, misses+2)
			})
		})

		Convey("When updating gauges", func() {
			UpdateRegisteredItems("project", 12)
			UpdateTrendingItems(4)
			UpdateQueueSize(7)

			Convey("Then the last value wins", func() {
				So(testutil.ToFloat64(globalManager.registeredItems.WithLabelValues("project")), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.trendingItems), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordEventUnknownItem("hire")
				RecordEventDuplicate()
				RecordRegistration("freelancer")
				RecordValidationError("project")
				RecordQueryLatency("project_recommendations", 0.3)
				RecordCandidatePool(42)
				RecordEmptyResult("similar_projects")
				UpdateTrackedUsers(3)
				RecordWarmupLoaded("project", 5)
				RecordWarmupFailure()
				RecordStoreError("append_event")
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.07)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(1.5)
				RecordWorkerError()
				RecordHTTPRequest("events", "POST", "202")
				RecordHTTPRequestDuration("events", "POST", "202", 1)
				RecordErrorByEndpoint("events", "POST", "client_error")
				RecordErrorByComponent("worker", "track_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
