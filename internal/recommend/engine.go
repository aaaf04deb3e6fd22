// Package recommend suggests what to eat next and judges whether a set of
// picked items makes a complete meal.
//
// Two strategies implement Engine: RuleEngine works from the remaining daily
// nutrient gaps, AIEngine asks a completion service. Neither calls the other.
// Both always return a usable list; failures never leave this package.
package recommend

import (
	"context"
	"fmt"

	"food-log/internal/models"
)

type Engine interface {
	Generate(ctx context.Context, consumed []models.DailyFoodEntry) []models.Recommendation
}

const (
	StrategyAI    = "ai"
	StrategyRules = "rules"
)

// Select returns the engine for a configured strategy name.
func Select(strategy string, ai *AIEngine, rules *RuleEngine) (Engine, error) {
	switch strategy {
	case StrategyAI, "":
		return ai, nil
	case StrategyRules:
		return rules, nil
	default:
		return nil, fmt.Errorf("unknown recommendation strategy %q", strategy)
	}
}

func cloneRecommendations(recs []models.Recommendation) []models.Recommendation {
	return append([]models.Recommendation{}, recs...)
}
