package recommend

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"food-log/internal/llm"
	"food-log/internal/metrics"
	"food-log/internal/models"
	"food-log/internal/nutrition"
)

const (
	NoItemsFeedback    = "You haven't selected any items yet."
	BalancedFeedback   = "This meal plan is balanced and meets your nutritional needs!"
	IncompleteFeedback = "Your meal plan needs more items to be nutritionally complete."
)

// Thresholds for the local completeness check.
const (
	minMealCalories = 500
	minMealProtein  = 20
	minMealCarbs    = 40
	minMealFat      = 15
	enoughItems     = 5
)

type aiVerdict struct {
	IsComplete *bool  `json:"isComplete"`
	Feedback   string `json:"feedback"`
}

var errNoVerdict = errors.New("completion reply has no isComplete field")

// Checker judges whether picked items form a complete meal. It asks the
// completion service when one is configured and otherwise uses EvaluateLocally.
type Checker struct {
	completer llm.Completer
	logger    *zap.Logger
	metrics   *metrics.Collector
	timeout   time.Duration
}

func NewChecker(completer llm.Completer, logger *zap.Logger, c *metrics.Collector, timeout time.Duration) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{completer: completer, logger: logger, metrics: c, timeout: timeout}
}

func (c *Checker) Check(ctx context.Context, items []models.MealPlanItem) (result models.CompletenessResult) {
	if len(items) == 0 {
		return models.CompletenessResult{IsComplete: false, Feedback: NoItemsFeedback}
	}
	if c == nil || c.completer == nil {
		return EvaluateLocally(items)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("meal check panicked", zap.Any("panic", r))
			c.metrics.ObserveAI(metrics.OperationCheckMeal, metrics.OutcomeCallFailed, time.Since(start))
			result = EvaluateLocally(items)
		}
	}()

	callCtx, cancel := withOptionalTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.completer.Complete(callCtx, completenessPrompt(items))
	if err != nil {
		c.logger.Warn("meal check request failed, using local evaluation", zap.Error(err))
		c.metrics.ObserveAI(metrics.OperationCheckMeal, metrics.OutcomeCallFailed, time.Since(start))
		return EvaluateLocally(items)
	}

	v, err := llm.Decode[aiVerdict](text, '{')
	if err == nil && v.IsComplete == nil {
		err = errNoVerdict
	}
	if err != nil {
		c.logger.Warn("could not parse meal check, using local evaluation",
			zap.Error(err),
			zap.String("raw_response", text),
		)
		c.metrics.ObserveAI(metrics.OperationCheckMeal, metrics.OutcomeParseError, time.Since(start))
		return EvaluateLocally(items)
	}

	c.metrics.ObserveAI(metrics.OperationCheckMeal, metrics.OutcomeSuccess, time.Since(start))
	return models.CompletenessResult{IsComplete: *v.IsComplete, Feedback: v.Feedback}
}

// EvaluateLocally is complete when every macro floor is met, or when there
// are at least five items regardless of totals.
func EvaluateLocally(items []models.MealPlanItem) models.CompletenessResult {
	if len(items) == 0 {
		return models.CompletenessResult{IsComplete: false, Feedback: NoItemsFeedback}
	}

	t := nutrition.SumItems(items)
	balanced := t.TotalCalories >= minMealCalories &&
		t.TotalProtein >= minMealProtein &&
		t.TotalCarbs >= minMealCarbs &&
		t.TotalFat >= minMealFat

	if balanced || len(items) >= enoughItems {
		return models.CompletenessResult{IsComplete: true, Feedback: BalancedFeedback}
	}

	feedback := IncompleteFeedback
	if t.TotalCalories < minMealCalories {
		feedback += " Consider adding more calories."
	}
	if t.TotalProtein < minMealProtein {
		feedback += " You need more protein."
	}
	if t.TotalCarbs < minMealCarbs {
		feedback += " Add some more carbohydrates."
	}
	if t.TotalFat < minMealFat {
		feedback += " Include some healthy fats."
	}
	return models.CompletenessResult{IsComplete: false, Feedback: feedback}
}
