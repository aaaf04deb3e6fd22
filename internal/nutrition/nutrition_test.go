package nutrition

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-log/internal/models"
)

var utc = time.UTC

func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, utc)
}

func TestSameDayUsesCalendarDay(t *testing.T) {
	assert.True(t, SameDay(at(5, 0), at(5, 23), utc))
	// Less than 24 hours apart but across midnight.
	assert.False(t, SameDay(at(5, 23), at(6, 1), utc))
	// Same instant, different zones give different calendar days.
	tokyo := time.FixedZone("JST", 9*3600)
	assert.True(t, SameDay(at(5, 20), at(6, 0).Add(-time.Hour), utc))
	assert.False(t, SameDay(at(5, 20), at(5, 10), tokyo))
}

func TestEntriesForDay(t *testing.T) {
	foods := []models.Food{
		{ID: "f1", Name: "Eggs", Calories: 150, MealType: models.Breakfast},
		{ID: "f2", Name: "Rice", Calories: 200, MealType: models.Lunch},
	}
	logs := []models.FoodLog{
		{ID: "l1", FoodID: "f1", Date: at(5, 8), MealType: models.Snack, Quantity: 2},
		{ID: "l2", FoodID: "missing", Date: at(5, 9), MealType: models.Lunch, Quantity: 1},
		{ID: "l3", FoodID: "f2", Date: at(6, 12), MealType: models.Lunch, Quantity: 1},
		{ID: "l4", FoodID: "f2", Date: at(5, 19), MealType: models.Dinner, Quantity: 0},
	}

	entries := EntriesForDay(foods, logs, at(5, 12), utc)

	require.Len(t, entries, 2)
	assert.Equal(t, "l1", entries[0].LogID)
	assert.Equal(t, "Eggs", entries[0].Food.Name)
	// The log's meal type wins over the food's own.
	assert.Equal(t, models.Snack, entries[0].MealType)
	assert.Equal(t, models.Breakfast, entries[0].Food.MealType)
	assert.Equal(t, 2.0, entries[0].Quantity)
	assert.Equal(t, "l4", entries[1].LogID)
	assert.Equal(t, models.Dinner, entries[1].MealType)
}

func TestEntriesForDayEmpty(t *testing.T) {
	entries := EntriesForDay(nil, nil, at(5, 0), utc)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSummarize(t *testing.T) {
	t.Run("NoEntries_AllZero", func(t *testing.T) {
		assert.Equal(t, models.NutritionSummary{}, Summarize(nil))
	})

	t.Run("QuantityMultiplies", func(t *testing.T) {
		entries := []models.DailyFoodEntry{{
			Food:     models.Food{Calories: 500, Protein: 30, Carbs: 40, Fat: 10},
			Quantity: 2,
		}}

		assert.Equal(t, models.NutritionSummary{
			TotalCalories: 1000, TotalProtein: 60, TotalCarbs: 80, TotalFat: 20,
		}, Summarize(entries))
	})

	t.Run("ZeroQuantityCountsOnce", func(t *testing.T) {
		entries := []models.DailyFoodEntry{{Food: models.Food{Calories: 120, Fat: 3.5}}}

		s := Summarize(entries)

		assert.Equal(t, 120.0, s.TotalCalories)
		assert.Equal(t, 3.5, s.TotalFat)
	})

	t.Run("FractionalPrecisionKept", func(t *testing.T) {
		entries := []models.DailyFoodEntry{{Food: models.Food{Protein: 3.25}, Quantity: 0.5}}
		assert.Equal(t, 1.625, Summarize(entries).TotalProtein)
	})

	t.Run("OrderIndependent", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		entries := make([]models.DailyFoodEntry, 40)
		var want models.NutritionSummary
		for i := range entries {
			q := float64(rng.Intn(4))
			f := models.Food{
				Calories: float64(rng.Intn(800)),
				Protein:  float64(rng.Intn(60)),
				Carbs:    float64(rng.Intn(90)),
				Fat:      float64(rng.Intn(40)),
			}
			entries[i] = models.DailyFoodEntry{Food: f, Quantity: q}
			m := q
			if m == 0 {
				m = 1
			}
			want.TotalCalories += f.Calories * m
			want.TotalProtein += f.Protein * m
			want.TotalCarbs += f.Carbs * m
			want.TotalFat += f.Fat * m
		}

		for i := 0; i < 10; i++ {
			rng.Shuffle(len(entries), func(a, b int) { entries[a], entries[b] = entries[b], entries[a] })
			assert.Equal(t, want, Summarize(entries))
		}
	})
}

func TestSumItems(t *testing.T) {
	items := []models.MealPlanItem{
		{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.5},
		{Calories: 216, Protein: 5, Carbs: 45, Fat: 1.5},
	}

	assert.Equal(t, models.NutritionSummary{
		TotalCalories: 381, TotalProtein: 36, TotalCarbs: 45, TotalFat: 5,
	}, SumItems(items))
	assert.Equal(t, models.NutritionSummary{}, SumItems(nil))
}

func TestRemaining(t *testing.T) {
	consumed := models.NutritionSummary{TotalCalories: 2500, TotalProtein: 40, TotalCarbs: 250, TotalFat: 69}

	r := Remaining(DefaultTargets, consumed)

	assert.Equal(t, Targets{Calories: 0, Protein: 60, Carbs: 0, Fat: 1}, r)
}

func TestGroupByMealType(t *testing.T) {
	entries := []models.DailyFoodEntry{
		{LogID: "1", MealType: models.Snack},
		{LogID: "2", MealType: models.Dinner},
		{LogID: "3", MealType: models.Breakfast},
		{LogID: "4", MealType: models.Snack},
	}

	sections := GroupByMealType(entries)

	require.Len(t, sections, 3)
	assert.Equal(t, "Breakfast", sections[0].Title)
	assert.Equal(t, models.Dinner, sections[1].MealType)
	assert.Equal(t, models.Snack, sections[2].MealType)
	require.Len(t, sections[2].Entries, 2)
	assert.Equal(t, "1", sections[2].Entries[0].LogID)
	assert.Equal(t, "4", sections[2].Entries[1].LogID)
}
