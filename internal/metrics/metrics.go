// Package metrics provides the centralized Prometheus registry for the engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	CompositionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trifecta_engine",
		Name:      "compositions_total",
		Help:      "Total number of trifecta distributions composed",
	})
	StageFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trifecta_engine",
		Name:      "stage_fallbacks_total",
		Help:      "Total number of uniform fallbacks substituted for degenerate stage vectors",
	})
	PlansGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trifecta_engine",
		Name:      "plans_generated_total",
		Help:      "Total number of betting plans generated",
	}, []string{"market"})
	EmptyPlansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trifecta_engine",
		Name:      "empty_plans_total",
		Help:      "Total number of plans with no recommendation surviving the filters",
	})
	OddsUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "trifecta_engine",
		Name:      "odds_updates_total",
		Help:      "Total number of odds snapshots received from the feed",
	})
)

// Gauge metrics
var (
	LastPlanStake = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trifecta_engine",
		Name:      "last_plan_stake",
		Help:      "Total stake of the most recently generated plan",
	})
	LastPlanExpectedROI = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trifecta_engine",
		Name:      "last_plan_expected_roi",
		Help:      "Expected ROI of the most recently generated plan",
	})
	OddsFeedConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trifecta_engine",
		Name:      "odds_feed_connected",
		Help:      "Whether the odds feed websocket is currently connected (1) or not (0)",
	})
)

// Histogram metrics
var (
	CompositionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trifecta_engine",
		Name:      "composition_duration_seconds",
		Help:      "Duration of a full three-stage composition in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	PlanGenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "trifecta_engine",
		Name:      "plan_generation_duration_seconds",
		Help:      "End-to-end duration of plan generation for one race in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(CompositionsTotal)
		registry.MustRegister(StageFallbacksTotal)
		registry.MustRegister(PlansGeneratedTotal)
		registry.MustRegister(EmptyPlansTotal)
		registry.MustRegister(OddsUpdatesTotal)

		registry.MustRegister(LastPlanStake)
		registry.MustRegister(LastPlanExpectedROI)
		registry.MustRegister(OddsFeedConnected)

		registry.MustRegister(CompositionDuration)
		registry.MustRegister(PlanGenerationDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler for the engine registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordComposition records one completed three-stage composition.
func RecordComposition(durationSeconds float64, fallbacks int) {
	CompositionsTotal.Inc()
	CompositionDuration.Observe(durationSeconds)
	if fallbacks > 0 {
		StageFallbacksTotal.Add(float64(fallbacks))
	}
}

// RecordPlan records one generated betting plan.
func RecordPlan(market string, totalStake, expectedROI float64, empty bool) {
	PlansGeneratedTotal.WithLabelValues(market).Inc()
	if empty {
		EmptyPlansTotal.Inc()
		return
	}
	LastPlanStake.Set(totalStake)
	LastPlanExpectedROI.Set(expectedROI)
}

// RecordOddsUpdate records one odds snapshot received from the feed.
func RecordOddsUpdate() {
	OddsUpdatesTotal.Inc()
}

// SetOddsFeedConnected flips the feed connectivity gauge.
func SetOddsFeedConnected(connected bool) {
	if connected {
		OddsFeedConnected.Set(1)
		return
	}
	OddsFeedConnected.Set(0)
}
