// Package nutrition holds the pure derivations over foods and logs: calendar-day
// matching, the day join, summaries and remaining-gap computation. Nothing here
// touches a store.
package nutrition

import (
	"sort"
	"time"

	"food-log/internal/models"
)

// Targets are daily nutrient goals.
type Targets struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

var DefaultTargets = Targets{Calories: 2000, Protein: 100, Carbs: 250, Fat: 70}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayKey formats t's calendar day in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("2006-01-02")
}

// EntriesForDay joins the logs made on date's calendar day against foods, in log
// order. Logs whose food is missing are dropped.
func EntriesForDay(foods []models.Food, logs []models.FoodLog, date time.Time, loc *time.Location) []models.DailyFoodEntry {
	byID := make(map[string]models.Food, len(foods))
	for _, f := range foods {
		if _, seen := byID[f.ID]; !seen {
			byID[f.ID] = f
		}
	}

	entries := []models.DailyFoodEntry{}
	for _, log := range logs {
		if !SameDay(log.Date, date, loc) {
			continue
		}
		food, ok := byID[log.FoodID]
		if !ok {
			continue
		}
		entries = append(entries, models.DailyFoodEntry{
			LogID:    log.ID,
			Food:     food,
			Quantity: log.Quantity,
			MealType: log.MealType,
		})
	}
	return entries
}

// Summarize folds entries into totals, scaling each food by its quantity.
func Summarize(entries []models.DailyFoodEntry) models.NutritionSummary {
	var s models.NutritionSummary
	for _, e := range entries {
		q := e.Multiplier()
		s.TotalCalories += e.Food.Calories * q
		s.TotalProtein += e.Food.Protein * q
		s.TotalCarbs += e.Food.Carbs * q
		s.TotalFat += e.Food.Fat * q
	}
	return s
}

// SumItems totals meal plan items, one serving each.
func SumItems(items []models.MealPlanItem) models.NutritionSummary {
	var s models.NutritionSummary
	for _, it := range items {
		s.TotalCalories += it.Calories
		s.TotalProtein += it.Protein
		s.TotalCarbs += it.Carbs
		s.TotalFat += it.Fat
	}
	return s
}

// Remaining is target minus consumed per nutrient, floored at zero.
func Remaining(targets Targets, consumed models.NutritionSummary) Targets {
	return Targets{
		Calories: gap(targets.Calories, consumed.TotalCalories),
		Protein:  gap(targets.Protein, consumed.TotalProtein),
		Carbs:    gap(targets.Carbs, consumed.TotalCarbs),
		Fat:      gap(targets.Fat, consumed.TotalFat),
	}
}

func gap(target, consumed float64) float64 {
	if consumed >= target {
		return 0
	}
	return target - consumed
}

type MealSection struct {
	MealType models.MealType        `json:"mealType"`
	Title    string                 `json:"title"`
	Entries  []models.DailyFoodEntry `json:"entries"`
}

// GroupByMealType buckets entries by their log meal type. Sections come out in
// breakfast, lunch, dinner, snack order; empty sections are left out.
func GroupByMealType(entries []models.DailyFoodEntry) []MealSection {
	index := map[models.MealType]int{}
	var sections []MealSection
	for _, e := range entries {
		i, ok := index[e.MealType]
		if !ok {
			i = len(sections)
			index[e.MealType] = i
			sections = append(sections, MealSection{MealType: e.MealType, Title: e.MealType.Title()})
		}
		sections[i].Entries = append(sections[i].Entries, e)
	}
	sort.SliceStable(sections, func(a, b int) bool {
		return sections[a].MealType.Order() < sections[b].MealType.Order()
	})
	return sections
}
