package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// counterValue sums every sample of the named family in the global registry
// whose labels include want.
func counterValue(name string, want map[string]string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched != len(want) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register its collectors there", func() {
				So(manager, ShouldNotBeNil)
				manager.jobsSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.jobsFailed.Inc()

			Convey("Then names and constant labels should follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_unit_jobs_failed_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "racerank")
				So(manager.subsystem, ShouldEqual, "pipeline")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestPipelineMetrics(t *testing.T) {
	Convey("Given the global pipeline metrics", t, func() {
		Convey("When recording a processed file", func() {
			before := counterValue("racerank_pipeline_files_processed_total", map[string]string{"format": "Otop", "outcome": "ok"})
			RecordFileProcessed("Otop", "ok")

			Convey("Then the labelled counter should increase by one", func() {
				after := counterValue("racerank_pipeline_files_processed_total", map[string]string{"format": "Otop", "outcome": "ok"})
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording emitted records", func() {
			before := counterValue("racerank_pipeline_records_emitted_total", map[string]string{"format": "GoalTiming"})
			RecordRecordsEmitted("GoalTiming", 12)
			RecordRecordsEmitted("GoalTiming", 0)

			Convey("Then only positive counts should be added", func() {
				after := counterValue("racerank_pipeline_records_emitted_total", map[string]string{"format": "GoalTiming"})
				So(after-before, ShouldEqual, 12)
			})
		})

		Convey("When recording a detection", func() {
			before := counterValue("racerank_pipeline_format_detections_total", map[string]string{"format": "Generic", "fallback": "true"})
			RecordFormatDetection("Generic", true)

			Convey("Then the fallback label should be set", func() {
				after := counterValue("racerank_pipeline_format_detections_total", map[string]string{"format": "Generic", "fallback": "true"})
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When updating the classification size", func() {
			UpdateClassificationMembers(7)

			Convey("Then the gauge should hold the value", func() {
				So(counterValue("racerank_pipeline_classification_members", nil), ShouldEqual, 7)
			})
		})

		Convey("When recording the remaining metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordRowDropped("disqualified")
					RecordStageLatency("extract", 12.5)
					RecordMemberUpdate()
					RecordJobSubmitted()
					RecordJobDuplicate()
					RecordJobFailed()
					UpdateQueueSize(3)
					UpdateQueueCapacity(100)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					UpdateWorkerCount(4)
					UpdateWorkerActiveCount(1)
					RecordWorkerProcessingLatency(40)
					RecordWorkerError()
					RecordHTTPRequest("/classification", "GET", "200")
					RecordHTTPRequestDuration("/classification", "GET", "200", 1.2)
					RecordErrorByComponent("extract", "corrupt_pdf")
				}, ShouldNotPanic)
			})
		})
	})
}
