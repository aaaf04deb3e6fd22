package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ManualFoodInput {
	return ManualFoodInput{
		Name:     "Oatmeal",
		Calories: "150",
		Protein:  "5",
		Carbs:    "27",
		Fat:      "2.5",
		MealType: Breakfast,
	}
}

func TestManualFoodInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ManualFoodInput)
		field   string
		message string
	}{
		{"blank name", func(in *ManualFoodInput) { in.Name = "   " }, "name", "Please enter a food name"},
		{"missing calories", func(in *ManualFoodInput) { in.Calories = "" }, "calories", "Please enter a valid calorie amount"},
		{"non-numeric protein", func(in *ManualFoodInput) { in.Protein = "lots" }, "protein", "Please enter a valid protein amount"},
		{"negative carbs", func(in *ManualFoodInput) { in.Carbs = "-1" }, "carbs", "Please enter a valid carbs amount"},
		{"NaN fat", func(in *ManualFoodInput) { in.Fat = "NaN" }, "fat", "Please enter a valid fat amount"},
		{"unknown meal type", func(in *ManualFoodInput) { in.MealType = "brunch" }, "meal_type", "Please choose breakfast, lunch, dinner or snack"},
		{"first failing field wins", func(in *ManualFoodInput) { in.Calories = "x"; in.Fat = "x" }, "calories", "Please enter a valid calorie amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := in.Validate()

			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			ve := err.(*ValidationError)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.message, ve.Message)
		})
	}
}

func TestManualFoodInputFood(t *testing.T) {
	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.Local)
	in := validInput()
	in.Name = "  Oatmeal "
	in.Protein = "0"

	food, err := in.Food(at)

	require.NoError(t, err)
	assert.Equal(t, "Oatmeal", food.Name)
	assert.Equal(t, 150.0, food.Calories)
	assert.Equal(t, 0.0, food.Protein)
	assert.Equal(t, 2.5, food.Fat)
	assert.Equal(t, Breakfast, food.MealType)
	assert.Equal(t, at, food.Timestamp)
	assert.Empty(t, food.ID)
}

func TestMealTypeForTime(t *testing.T) {
	day := func(hour, min int) time.Time { return time.Date(2024, 3, 5, hour, min, 0, 0, time.Local) }

	assert.Equal(t, Snack, MealTypeForTime(day(4, 59)))
	assert.Equal(t, Breakfast, MealTypeForTime(day(5, 0)))
	assert.Equal(t, Breakfast, MealTypeForTime(day(10, 59)))
	assert.Equal(t, Lunch, MealTypeForTime(day(11, 0)))
	assert.Equal(t, Dinner, MealTypeForTime(day(15, 0)))
	assert.Equal(t, Dinner, MealTypeForTime(day(21, 59)))
	assert.Equal(t, Snack, MealTypeForTime(day(22, 0)))
}

func TestParseMealType(t *testing.T) {
	m, err := ParseMealType(" Dinner ")
	require.NoError(t, err)
	assert.Equal(t, Dinner, m)

	_, err = ParseMealType("elevenses")
	assert.True(t, IsValidationError(err))
}

func TestPhotoAnalysisFoodDefaults(t *testing.T) {
	at := time.Now()
	calories := 320.0

	food := PhotoAnalysis{Calories: &calories, ImageURI: "file:///tmp/meal.jpg"}.Food(Lunch, at)

	assert.Equal(t, UnknownFoodName, food.Name)
	assert.Equal(t, 320.0, food.Calories)
	assert.Zero(t, food.Protein)
	assert.Zero(t, food.Carbs)
	assert.Zero(t, food.Fat)
	assert.Equal(t, "file:///tmp/meal.jpg", food.ImageURI)
	assert.Equal(t, Lunch, food.MealType)
}

func TestSavedMealPlanDisplayImage(t *testing.T) {
	plan := SavedMealPlan{Items: []MealPlanItem{{ImageURI: "first.jpg"}, {ImageURI: "second.jpg"}}}
	assert.Equal(t, "first.jpg", plan.DisplayImage())

	plan.PhotoURI = "photo.jpg"
	assert.Equal(t, "photo.jpg", plan.DisplayImage())

	assert.Empty(t, SavedMealPlan{}.DisplayImage())
}

func TestDailyFoodEntryMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, DailyFoodEntry{}.Multiplier())
	assert.Equal(t, 2.5, DailyFoodEntry{Quantity: 2.5}.Multiplier())
}
