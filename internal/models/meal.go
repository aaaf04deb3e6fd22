// internal/models/meal.go
package models

import (
	"time"
)

type Recommendation struct {
	ID       string  `json:"id"`
	FoodName string  `json:"foodName"`
	Reason   string  `json:"reason"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	ImageURI string  `json:"imageUri,omitempty"`
}

// Item drops the reason, keeping the rest as a meal plan line.
func (r Recommendation) Item() MealPlanItem {
	return MealPlanItem{
		ID:       r.ID,
		FoodName: r.FoodName,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		ImageURI: r.ImageURI,
	}
}

type MealPlanItem struct {
	ID       string  `json:"id"`
	FoodName string  `json:"foodName"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	ImageURI string  `json:"imageUri,omitempty"`
}

type SavedMealPlan struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Date             time.Time        `json:"date"`
	MealType         MealType         `json:"mealType"`
	Items            []MealPlanItem   `json:"items"`
	PhotoURI         string           `json:"photoUri,omitempty"`
	Feedback         string           `json:"aiFeedback,omitempty"`
	NutritionSummary NutritionSummary `json:"nutritionSummary"`
}

// DisplayImage is the plan's photo, falling back to the first item's image.
func (p SavedMealPlan) DisplayImage() string {
	if p.PhotoURI != "" {
		return p.PhotoURI
	}
	if len(p.Items) > 0 {
		return p.Items[0].ImageURI
	}
	return ""
}

type CompletenessResult struct {
	IsComplete bool   `json:"isComplete"`
	Feedback   string `json:"feedback"`
}
