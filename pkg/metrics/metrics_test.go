package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "sightmark")
				So(manager.subsystem, ShouldEqual, "adjust")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("archery"),
				WithSubsystem("sight"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithClickBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics carry the configured names and labels", func() {
				manager.overlaysRendered.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "archery_sight_overlays_rendered_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithClickBuckets([]float64{}),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "sightmark")
				So(manager.latencyBuckets, ShouldResemble, prometheus.DefBuckets)
				So(len(manager.clickBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording adjustments", func() {
			before := testutil.ToFloat64(globalManager.adjustmentsComputed.WithLabelValues("windage", "RIGHT"))
			RecordAdjustment("windage", "RIGHT", 9)
			RecordAdjustment("windage", "RIGHT", 9)

			Convey("Then the counter grows per call", func() {
				after := testutil.ToFloat64(globalManager.adjustmentsComputed.WithLabelValues("windage", "RIGHT"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording invalid input", func() {
			before := testutil.ToFloat64(globalManager.invalidInputs.WithLabelValues("api"))
			RecordInvalidInput("api")

			Convey("Then the source counter grows", func() {
				So(testutil.ToFloat64(globalManager.invalidInputs.WithLabelValues("api"))-before, ShouldEqual, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueCapacity(1024)
			UpdateQueueSize(12)
			UpdateQueueUtilization(12.0 / 1024)
			UpdateWorkerCount(8)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 1024)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 8)
			})
		})

		Convey("When recording every other metric", func() {
			So(func() {
				RecordPhotoDecoded("jpeg")
				RecordPhotoError("corrupt")
				RecordPhotoDecodeLatency(12)
				RecordOverlayRendered()
				RecordBatch(10)
				RecordBatchRejected("backpressure")
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerJobProcessed()
				RecordWorkerProcessingLatency(0.2)
				RecordWorkerError()
				RecordHTTPRequest("/adjustments", "POST", "200")
				RecordHTTPRequestDuration("/adjustments", "POST", "200", 1)
				RecordErrorByComponent("worker", "invalid_input")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("/adjustments", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 1)
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})
	})
}

func TestRegisterCollector(t *testing.T) {
	Convey("Given the service registry", t, func() {
		c := collectors.NewBuildInfoCollector()

		Convey("When registering a collector twice", func() {
			first := RegisterCollector(c)
			second := RegisterCollector(c)
			defer GetRegistry().Unregister(c)

			Convey("Then the second registration fails with ErrRegister", func() {
				So(first, ShouldBeNil)
				So(errors.Is(second, ErrRegister), ShouldBeTrue)
			})
		})
	})
}
