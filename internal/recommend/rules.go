package recommend

import (
	"context"

	"food-log/internal/models"
	"food-log/internal/nutrition"
)

var (
	highProtein = models.Recommendation{
		ID:       "1",
		FoodName: "Grilled Chicken Breast",
		Reason:   "You need more protein today. This will help you reach your protein goal.",
		Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6,
		ImageURI: "https://images.unsplash.com/photo-1532550907401-a500c9a57435" + unsplashParams,
	}
	complexCarb = models.Recommendation{
		ID:       "2",
		FoodName: "Brown Rice Bowl",
		Reason:   "You need more complex carbohydrates. This will provide sustained energy.",
		Calories: 216, Protein: 5, Carbs: 45, Fat: 1.8,
		ImageURI: "https://images.unsplash.com/photo-1536304993881-ff6e9eefa2a6" + unsplashParams,
	}
	healthyFat = models.Recommendation{
		ID:       "3",
		FoodName: "Avocado Salad",
		Reason:   "You need more healthy fats. Avocados provide heart-healthy monounsaturated fats.",
		Calories: 234, Protein: 3, Carbs: 12, Fat: 21,
		ImageURI: "https://images.unsplash.com/photo-1512621776951-a57141f2eefd" + unsplashParams,
	}
	balancedMeal = models.Recommendation{
		ID:       "4",
		FoodName: "Balanced Meal Plate",
		Reason:   "You still need more calories today. This balanced meal will help you reach your goals.",
		Calories: 450, Protein: 25, Carbs: 45, Fat: 15,
		ImageURI: "https://images.unsplash.com/photo-1547592180-85f173990554" + unsplashParams,
	}
	lightFinish = models.Recommendation{
		ID:       "5",
		FoodName: "Fresh Fruit Salad",
		Reason:   "You've met most of your nutrient goals! This light option will complete your day.",
		Calories: 100, Protein: 1, Carbs: 25, Fat: 0,
		ImageURI: "https://images.unsplash.com/photo-1490474418585-ba9bad8fd0ea" + unsplashParams,
	}
	filler = models.Recommendation{
		ID:       "6",
		FoodName: "Vegetable Soup",
		Reason:   "A light, nutritious option that fits into most diet plans.",
		Calories: 120, Protein: 5, Carbs: 20, Fat: 2,
		ImageURI: "https://images.unsplash.com/photo-1547592166-23ac45744acd" + unsplashParams,
	}
)

type rule struct {
	applies func(remaining nutrition.Targets) bool
	rec     models.Recommendation
}

// Evaluated in this order; output keeps it.
var rules = []rule{
	{func(r nutrition.Targets) bool { return r.Protein > 30 }, highProtein},
	{func(r nutrition.Targets) bool { return r.Carbs > 50 }, complexCarb},
	{func(r nutrition.Targets) bool { return r.Fat > 20 }, healthyFat},
	{func(r nutrition.Targets) bool { return r.Calories > 500 }, balancedMeal},
	{func(r nutrition.Targets) bool {
		return r.Calories < 300 && r.Protein < 15 && r.Carbs < 30 && r.Fat < 10
	}, lightFinish},
}

// RuleEngine recommends from fixed thresholds on what is left of the daily targets.
type RuleEngine struct {
	Targets nutrition.Targets
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{Targets: nutrition.DefaultTargets}
}

func (e *RuleEngine) Generate(_ context.Context, consumed []models.DailyFoodEntry) []models.Recommendation {
	return e.ForRemaining(nutrition.Remaining(e.Targets, nutrition.Summarize(consumed)))
}

// ForRemaining applies the rules to precomputed gaps. Never returns an empty list.
func (e *RuleEngine) ForRemaining(remaining nutrition.Targets) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, r := range rules {
		if r.applies(remaining) {
			recs = append(recs, r.rec)
		}
	}
	if len(recs) == 0 {
		recs = append(recs, filler)
	}
	return recs
}
