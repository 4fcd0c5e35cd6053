package metrics

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then defaults are applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPredictionBuckets([]float64{0.01, 0.1}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.cacheHits.Inc()

			Convey("Then names and labels reflect the options", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.predictionBuckets, ShouldResemble, []float64{0.01, 0.1})

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_sub_pfx_cache_hits_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty option values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPredictionBuckets([]float64{1, 0.5}),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "salarygauge")
				So(manager.histogramBuckets, ShouldResemble, defaultRequestBuckets)
				So(manager.predictionBuckets, ShouldResemble, defaultPredictionBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestPredictionRecorders(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording predictions and errors", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("model"))
			beforeErr := testutil.ToFloat64(globalManager.predictionErrors.WithLabelValues("unknown_category"))
			beforeUnknown := testutil.ToFloat64(globalManager.unknownCategories.WithLabelValues("DevType", "fallback"))

			RecordPrediction("model")
			RecordPrediction("model")
			RecordPredictionError("unknown_category")
			RecordUnknownCategory("DevType", "fallback")
			RecordPredictionLatency(0.3)

			Convey("Then the counters move by the recorded amount", func() {
				So(testutil.ToFloat64(globalManager.predictions.WithLabelValues("model"))-before, ShouldEqual, 2.0)
				So(testutil.ToFloat64(globalManager.predictionErrors.WithLabelValues("unknown_category"))-beforeErr, ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.unknownCategories.WithLabelValues("DevType", "fallback"))-beforeUnknown, ShouldEqual, 1.0)
			})
		})

		Convey("When recording cache activity", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			misses := testutil.ToFloat64(globalManager.cacheMisses)
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheMiss()

			Convey("Then hits and misses are tracked separately", func() {
				So(testutil.ToFloat64(globalManager.cacheHits)-hits, ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.cacheMisses)-misses, ShouldEqual, 2.0)
			})
		})

		Convey("When publishing artifact info twice", func() {
			SetArtifactInfo("v1", "survey/v1", "linear", "standard", 28)
			SetArtifactInfo("v2", "survey/v1", "linear", "standard", 30)

			Convey("Then only the latest artifact is reported", func() {
				So(testutil.CollectAndCount(globalManager.artifactInfo), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.artifactInfo.WithLabelValues("v2", "survey/v1", "linear", "standard")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.artifactFeatures), ShouldEqual, 30.0)
			})
		})
	})
}

func TestHTTPRecorders(t *testing.T) {
	Convey("Given HTTP recorders", t, func() {
		RecordHTTPRequest("/predict", "POST", "200")
		RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
		RecordRateLimited("/predict")
		RecordErrorByEndpoint("/predict", "POST", "invalid_input")
		RecordErrorLatency("http", "invalid_input", 0.7)

		Convey("Then the series are exposed on the custom registry", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var names []string
			for _, mf := range families {
				names = append(names, mf.GetName())
			}
			joined := strings.Join(names, ",")
			So(joined, ShouldContainSubstring, "salarygauge_predictor_http_requests_total")
			So(joined, ShouldContainSubstring, "salarygauge_predictor_rate_limited_total")
		})
	})
}

func TestSystemCollector(t *testing.T) {
	Convey("Given the system sampler", t, func() {
		Convey("When sampling once", func() {
			n := SampleSystem(0)

			Convey("Then gauges are populated", func() {
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldBeGreaterThan, 0)
				So(SampleSystem(n), ShouldBeGreaterThanOrEqualTo, n)
			})
		})

		Convey("When the collector context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				RunSystemCollector(ctx)
				close(done)
			}()
			cancel()

			Convey("Then the collector returns", func() {
				select {
				case <-done:
					So(true, ShouldBeTrue)
				case <-time.After(2 * time.Second):
					So("collector still running", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("cache"))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordPrediction("cache")
				RecordCacheHit()
			}()
		}
		wg.Wait()

		Convey("Then no increments are lost", func() {
			So(testutil.ToFloat64(globalManager.predictions.WithLabelValues("cache"))-before, ShouldEqual, 50.0)
		})
	})
}
