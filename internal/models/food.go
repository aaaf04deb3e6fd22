// internal/models/food.go
package models

import (
	"fmt"
	"strings"
	"time"
)

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes lists every meal type in diary order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// Title returns the meal type with its first letter upper-cased ("Breakfast").
func (m MealType) Title() string {
	if m == "" {
		return ""
	}
	s := string(m)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Order is the diary position of the meal type; unknown types sort last.
func (m MealType) Order() int {
	for i, t := range MealTypes {
		if t == m {
			return i
		}
	}
	return len(MealTypes)
}

func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &ValidationError{
			Field:   "meal_type",
			Message: fmt.Sprintf("Unknown meal type %q", s),
		}
	}
	return m, nil
}

// MealTypeForTime infers the meal being eaten at t from the local hour.
func MealTypeForTime(t time.Time) MealType {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 11:
		return Breakfast
	case hour >= 11 && hour < 15:
		return Lunch
	case hour >= 15 && hour < 22:
		return Dinner
	default:
		return Snack
	}
}

type Food struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	ImageURI  string    `json:"imageUri,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	MealType  MealType  `json:"mealType"`
}

type FoodLog struct {
	ID       string    `json:"id"`
	FoodID   string    `json:"foodId"`
	Date     time.Time `json:"date"`
	MealType MealType  `json:"mealType"`
	Quantity float64   `json:"quantity"`
}

// DailyFoodEntry is a Food joined with the log that consumed it. MealType and
// Quantity come from the log, not the food.
type DailyFoodEntry struct {
	LogID    string   `json:"logId"`
	Food     Food     `json:"food"`
	Quantity float64  `json:"quantity"`
	MealType MealType `json:"mealType"`
}

// Multiplier is the quantity applied to the food's nutrients. Zero counts as one serving.
func (e DailyFoodEntry) Multiplier() float64 {
	if e.Quantity == 0 {
		return 1
	}
	return e.Quantity
}

type NutritionSummary struct {
	TotalCalories float64 `json:"totalCalories"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalFat      float64 `json:"totalFat"`
}

// PhotoAnalysis is the partial food produced by the photo analyzer. Any field may be absent.
type PhotoAnalysis struct {
	Name     *string  `json:"name,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	ImageURI string   `json:"imageUri,omitempty"`
}

const UnknownFoodName = "Unknown Food"

// Food converts the analysis into a Food, defaulting absent macros to 0 and the
// name to UnknownFoodName.
func (p PhotoAnalysis) Food(mealType MealType, at time.Time) Food {
	food := Food{
		Name:      UnknownFoodName,
		ImageURI:  p.ImageURI,
		Timestamp: at,
		MealType:  mealType,
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		food.Name = *p.Name
	}
	if p.Calories != nil {
		food.Calories = *p.Calories
	}
	if p.Protein != nil {
		food.Protein = *p.Protein
	}
	if p.Carbs != nil {
		food.Carbs = *p.Carbs
	}
	if p.Fat != nil {
		food.Fat = *p.Fat
	}
	return food
}
