// Package metrics exposes prometheus collectors for the completion-backed
// features.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OperationRecommend = "recommend"
	OperationCheckMeal = "check_meal"

	OutcomeSuccess    = "success"
	OutcomeCallFailed = "call_failed"
	OutcomeParseError = "parse_error"
)

type Collector struct {
	aiRequestsTotal   *prometheus.CounterVec
	aiRequestDuration *prometheus.HistogramVec
	fallbacksTotal    *prometheus.CounterVec
	foodsLoggedTotal  *prometheus.CounterVec
	mealPlansSaved    prometheus.Counter
}

// New registers the collectors with reg. A nil reg leaves them unregistered,
// which is what tests and library callers without a /metrics endpoint want.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_ai_requests_total",
				Help: "Completion requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foodlog_ai_request_duration_seconds",
				Help:    "Completion request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"operation"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_fallbacks_total",
				Help: "Results served from the local fallback instead of the completion service",
			},
			[]string{"operation"},
		),
		foodsLoggedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foodlog_foods_logged_total",
				Help: "Food logs written by meal type",
			},
			[]string{"meal_type"},
		),
		mealPlansSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "foodlog_meal_plans_saved_total",
				Help: "Meal plans saved",
			},
		),
	}
}

// ObserveAI records one completion-backed call. A nil Collector is a no-op.
func (c *Collector) ObserveAI(operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.aiRequestsTotal.WithLabelValues(operation, outcome).Inc()
	c.aiRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if outcome != OutcomeSuccess {
		c.fallbacksTotal.WithLabelValues(operation).Inc()
	}
}

func (c *Collector) FoodLogged(mealType string) {
	if c == nil {
		return
	}
	c.foodsLoggedTotal.WithLabelValues(mealType).Inc()
}

func (c *Collector) MealPlanSaved() {
	if c == nil {
		return
	}
	c.mealPlansSaved.Inc()
}

// AIRequests returns the counter for one operation/outcome pair.
func (c *Collector) AIRequests(operation, outcome string) prometheus.Counter {
	return c.aiRequestsTotal.WithLabelValues(operation, outcome)
}

func (c *Collector) Fallbacks(operation string) prometheus.Counter {
	return c.fallbacksTotal.WithLabelValues(operation)
}
