package recommend

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"food-log/internal/llm"
	"food-log/internal/metrics"
	"food-log/internal/models"
)

const aiIDPrefix = "ai-rec-"

type aiSuggestion struct {
	FoodName string  `json:"foodName"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Reason   string  `json:"reason"`
}

var errEmptySuggestions = errors.New("completion returned no suggestions")

// AIEngine asks the completion service for suggestions and falls back to
// DefaultRecommendations on any failure.
type AIEngine struct {
	completer llm.Completer
	logger    *zap.Logger
	metrics   *metrics.Collector
	timeout   time.Duration
	newID     func() string
}

type AIOption func(*AIEngine)

func WithMetrics(c *metrics.Collector) AIOption {
	return func(e *AIEngine) { e.metrics = c }
}

// WithTimeout bounds each completion call. Zero means no extra bound.
func WithTimeout(d time.Duration) AIOption {
	return func(e *AIEngine) { e.timeout = d }
}

func WithIDGenerator(fn func() string) AIOption {
	return func(e *AIEngine) { e.newID = fn }
}

func NewAIEngine(completer llm.Completer, logger *zap.Logger, opts ...AIOption) *AIEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &AIEngine{
		completer: completer,
		logger:    logger,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *AIEngine) Generate(ctx context.Context, consumed []models.DailyFoodEntry) (recs []models.Recommendation) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recommendation generation panicked", zap.Any("panic", r))
			e.metrics.ObserveAI(metrics.OperationRecommend, metrics.OutcomeCallFailed, time.Since(start))
			recs = DefaultRecommendations()
		}
	}()

	if e.completer == nil {
		e.metrics.ObserveAI(metrics.OperationRecommend, metrics.OutcomeCallFailed, 0)
		return DefaultRecommendations()
	}

	callCtx, cancel := withOptionalTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.completer.Complete(callCtx, recommendationPrompt(consumed))
	if err != nil {
		e.logger.Warn("recommendation request failed, serving defaults", zap.Error(err))
		e.metrics.ObserveAI(metrics.OperationRecommend, metrics.OutcomeCallFailed, time.Since(start))
		return DefaultRecommendations()
	}

	suggestions, err := llm.Decode[[]aiSuggestion](text, '[')
	if err == nil && len(suggestions) == 0 {
		err = errEmptySuggestions
	}
	if err != nil {
		e.logger.Warn("could not parse recommendations, serving defaults",
			zap.Error(err),
			zap.String("raw_response", text),
		)
		e.metrics.ObserveAI(metrics.OperationRecommend, metrics.OutcomeParseError, time.Since(start))
		return DefaultRecommendations()
	}

	e.metrics.ObserveAI(metrics.OperationRecommend, metrics.OutcomeSuccess, time.Since(start))

	recs = make([]models.Recommendation, 0, len(suggestions))
	for _, s := range suggestions {
		recs = append(recs, models.Recommendation{
			ID:       aiIDPrefix + e.newID(),
			FoodName: s.FoodName,
			Reason:   s.Reason,
			Calories: s.Calories,
			Protein:  s.Protein,
			Carbs:    s.Carbs,
			Fat:      s.Fat,
			ImageURI: FoodImageURI(s.FoodName),
		})
	}
	return recs
}

// FoodImageURI is a stock photo lookup keyed by the food's name.
func FoodImageURI(name string) string {
	return "https://source.unsplash.com/featured/?" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20") + ",food"
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
