// internal/server/tools.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"

	"food-log/internal/models"
	"food-log/internal/tracker"
)

type tool struct {
	description string
	handle      func(ctx context.Context, req *protocol.CallToolRequest) (any, error)
}

// toolOrder fixes the /tools listing order.
var toolOrder = []string{
	"add_food",
	"log_food",
	"get_food",
	"get_diary",
	"get_nutrition_summary",
	"get_recommendations",
	"check_meal",
	"toggle_meal_item",
	"finalize_meal_plan",
	"analyze_photo",
	"save_meal_plan",
	"update_meal_plan_photo",
	"get_meal_plans",
	"get_meal_plan",
}

func (s *FoodLogServer) registerTools() map[string]tool {
	return map[string]tool{
		"add_food":               {"Add a food by hand and log one serving of it", s.handleAddFood},
		"log_food":               {"Log servings of an existing food", s.handleLogFood},
		"get_food":               {"Look up a food by id", s.handleGetFood},
		"get_diary":              {"Foods eaten on a day grouped by meal, with totals", s.handleGetDiary},
		"get_nutrition_summary":  {"Nutrition totals for a day", s.handleGetNutritionSummary},
		"get_recommendations":    {"Current food recommendations, optionally refreshed first", s.handleGetRecommendations},
		"check_meal":             {"Judge whether the given items make a complete meal", s.handleCheckMeal},
		"toggle_meal_item":       {"Add or remove an item in a meal-building session, re-checking completeness", s.handleToggleMealItem},
		"finalize_meal_plan":     {"Save a complete meal-building session as a plan", s.handleFinalizeMealPlan},
		"analyze_photo":          {"Estimate a food from a photo and optionally log it", s.handleAnalyzePhoto},
		"save_meal_plan":         {"Save a named meal plan", s.handleSaveMealPlan},
		"update_meal_plan_photo": {"Replace a saved meal plan's photo", s.handleUpdateMealPlanPhoto},
		"get_meal_plans":         {"Saved meal plans, newest first", s.handleGetMealPlans},
		"get_meal_plan":          {"Look up a saved meal plan by id", s.handleGetMealPlan},
	}
}

// macroValue accepts a JSON number or string and keeps the text for validation.
type macroValue string

func (m *macroValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = macroValue(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*m = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*m = macroValue(n.String())
	return nil
}

type AddFoodParams struct {
	Name     string     `json:"name" description:"Food name"`
	Calories macroValue `json:"calories" description:"Calories per serving"`
	Protein  macroValue `json:"protein" description:"Protein grams per serving"`
	Carbs    macroValue `json:"carbs" description:"Carbohydrate grams per serving"`
	Fat      macroValue `json:"fat" description:"Fat grams per serving"`
	MealType string     `json:"meal_type,omitempty" description:"breakfast, lunch, dinner or snack (defaults by time of day)"`
	ImageURI string     `json:"image_uri,omitempty" description:"Optional image reference"`
}

type LogFoodParams struct {
	FoodID   string   `json:"food_id" description:"Id of the food eaten"`
	MealType string   `json:"meal_type" description:"breakfast, lunch, dinner or snack"`
	Quantity *float64 `json:"quantity,omitempty" description:"Servings eaten (defaults to 1)"`
}

type FoodIDParams struct {
	FoodID string `json:"food_id" description:"Food id"`
}

type DateParams struct {
	Date string `json:"date,omitempty" description:"Day to report (YYYY-MM-DD, defaults to today)"`
}

type GetRecommendationsParams struct {
	Refresh bool `json:"refresh,omitempty" description:"Regenerate before returning"`
}

type CheckMealParams struct {
	Items []models.MealPlanItem `json:"items" description:"Candidate meal items"`
}

type ToggleMealItemParams struct {
	SelectionID string              `json:"selection_id,omitempty" description:"Session id (a new session starts when blank)"`
	Item        models.MealPlanItem `json:"item" description:"Item to add or remove, matched by id"`
}

type FinalizeMealPlanParams struct {
	SelectionID string `json:"selection_id" description:"Session id"`
	PhotoURI    string `json:"photo_uri,omitempty" description:"Optional photo reference"`
}

type AnalyzePhotoParams struct {
	ImageURI string `json:"image_uri" description:"Photo reference"`
	MealType string `json:"meal_type,omitempty" description:"Meal to log under when log is set"`
	Log      bool   `json:"log,omitempty" description:"Log the detected food as one serving"`
}

type SaveMealPlanParams struct {
	Name     string                `json:"name,omitempty" description:"Plan name (generated when blank)"`
	MealType string                `json:"meal_type" description:"breakfast, lunch, dinner or snack"`
	Items    []models.MealPlanItem `json:"items" description:"Plan items"`
	PhotoURI string                `json:"photo_uri,omitempty" description:"Optional photo reference"`
	Feedback string                `json:"feedback,omitempty" description:"Completeness feedback to keep with the plan"`
}

type UpdateMealPlanPhotoParams struct {
	PlanID   string `json:"plan_id" description:"Saved plan id"`
	PhotoURI string `json:"photo_uri" description:"New photo reference"`
}

type PlanIDParams struct {
	PlanID string `json:"plan_id" description:"Saved plan id"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target any) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal arguments: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", errInvalidParams, field)
	}
	return nil
}

func (s *FoodLogServer) mealTypeOrNow(value string) (models.MealType, error) {
	if strings.TrimSpace(value) == "" {
		return models.MealTypeForTime(s.now()), nil
	}
	return models.ParseMealType(value)
}

func (s *FoodLogServer) parseDate(value string) (time.Time, error) {
	if value == "" {
		return s.now(), nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", errInvalidParams)
	}
	return d, nil
}

func (s *FoodLogServer) handleAddFood(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params AddFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	mealType := models.MealTypeForTime(s.now())
	if strings.TrimSpace(params.MealType) != "" {
		mealType = models.MealType(strings.ToLower(strings.TrimSpace(params.MealType)))
	}

	food, err := s.tracker.AddManualFood(ctx, models.ManualFoodInput{
		Name:     params.Name,
		Calories: string(params.Calories),
		Protein:  string(params.Protein),
		Carbs:    string(params.Carbs),
		Fat:      string(params.Fat),
		MealType: mealType,
		ImageURI: params.ImageURI,
	})
	if err != nil {
		return nil, err
	}
	return food, nil
}

func (s *FoodLogServer) handleLogFood(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params LogFoodParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("food_id", params.FoodID); err != nil {
		return nil, err
	}

	mealType, err := s.mealTypeOrNow(params.MealType)
	if err != nil {
		return nil, err
	}
	quantity := 1.0
	if params.Quantity != nil {
		quantity = *params.Quantity
	}

	id, err := s.tracker.LogFood(ctx, params.FoodID, mealType, quantity)
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func (s *FoodLogServer) handleGetFood(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params FoodIDParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("food_id", params.FoodID); err != nil {
		return nil, err
	}
	return s.tracker.GetFood(ctx, params.FoodID)
}

func (s *FoodLogServer) handleGetDiary(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params DateParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	date, err := s.parseDate(params.Date)
	if err != nil {
		return nil, err
	}
	return s.tracker.Diary(ctx, date)
}

func (s *FoodLogServer) handleGetNutritionSummary(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params DateParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	date, err := s.parseDate(params.Date)
	if err != nil {
		return nil, err
	}
	return s.tracker.NutritionSummary(ctx, date)
}

type recommendationsResult struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Refreshing      bool                    `json:"refreshing"`
}

func (s *FoodLogServer) handleGetRecommendations(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params GetRecommendationsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if params.Refresh {
		recs, err := s.tracker.RefreshRecommendations(ctx)
		if err != nil {
			return nil, err
		}
		return recommendationsResult{Recommendations: recs, Refreshing: s.tracker.Refreshing()}, nil
	}
	return recommendationsResult{
		Recommendations: s.tracker.Recommendations(),
		Refreshing:      s.tracker.Refreshing(),
	}, nil
}

func (s *FoodLogServer) handleCheckMeal(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params CheckMealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	return s.tracker.CheckMeal(ctx, params.Items), nil
}

type selectionResult struct {
	SelectionID string                     `json:"selection_id"`
	Selected    bool                       `json:"selected"`
	Items       []models.MealPlanItem      `json:"items"`
	Result      *models.CompletenessResult `json:"result,omitempty"`
	CanFinalize bool                       `json:"can_finalize"`
}

func (s *FoodLogServer) selection(id string) (string, *tracker.MealSelection, error) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	if id == "" {
		id = uuid.NewString()
		s.selections[id] = s.tracker.NewSelection()
		return id, s.selections[id], nil
	}
	sel, ok := s.selections[id]
	if !ok {
		return "", nil, errSelectionNotFound
	}
	return id, sel, nil
}

func (s *FoodLogServer) handleToggleMealItem(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params ToggleMealItemParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("item.id", params.Item.ID); err != nil {
		return nil, err
	}

	id, sel, err := s.selection(params.SelectionID)
	if err != nil {
		return nil, err
	}

	result := selectionResult{
		SelectionID: id,
		Selected:    sel.Toggle(ctx, params.Item),
		Items:       sel.Items(),
		CanFinalize: sel.CanFinalize(),
	}
	if res, ok := sel.Result(); ok {
		result.Result = &res
	}
	return result, nil
}

func (s *FoodLogServer) handleFinalizeMealPlan(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params FinalizeMealPlanParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("selection_id", params.SelectionID); err != nil {
		return nil, err
	}

	_, sel, err := s.selection(params.SelectionID)
	if err != nil {
		return nil, err
	}

	planID, err := s.tracker.Finalize(ctx, sel, params.PhotoURI)
	if err != nil {
		return nil, err
	}

	s.selMu.Lock()
	delete(s.selections, params.SelectionID)
	s.selMu.Unlock()
	return map[string]string{"id": planID}, nil
}

type analyzePhotoResult struct {
	Analysis models.PhotoAnalysis `json:"analysis"`
	Food     *models.Food         `json:"food,omitempty"`
}

func (s *FoodLogServer) handleAnalyzePhoto(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params AnalyzePhotoParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("image_uri", params.ImageURI); err != nil {
		return nil, err
	}

	var mealType models.MealType
	if params.Log {
		mt, err := s.mealTypeOrNow(params.MealType)
		if err != nil {
			return nil, err
		}
		mealType = mt
	}

	analysis, err := s.tracker.AnalyzePhoto(ctx, params.ImageURI)
	if err != nil {
		return nil, err
	}

	result := analyzePhotoResult{Analysis: analysis}
	if params.Log {
		food, err := s.tracker.LogAnalyzedFood(ctx, analysis, mealType)
		if err != nil {
			return nil, err
		}
		result.Food = &food
	}
	return result, nil
}

func (s *FoodLogServer) handleSaveMealPlan(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params SaveMealPlanParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	mealType, err := s.mealTypeOrNow(params.MealType)
	if err != nil {
		return nil, err
	}

	id, err := s.tracker.SaveMealPlan(ctx, params.Name, mealType, params.Items, params.PhotoURI, params.Feedback)
	if err != nil {
		return nil, err
	}
	return map[string]string{"id": id}, nil
}

func (s *FoodLogServer) handleUpdateMealPlanPhoto(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params UpdateMealPlanPhotoParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("plan_id", params.PlanID); err != nil {
		return nil, err
	}

	if err := s.tracker.UpdateMealPlanPhoto(ctx, params.PlanID, params.PhotoURI); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type planView struct {
	models.SavedMealPlan
	DisplayImage string `json:"displayImage,omitempty"`
}

func viewOf(p models.SavedMealPlan) planView {
	return planView{SavedMealPlan: p, DisplayImage: p.DisplayImage()}
}

func (s *FoodLogServer) handleGetMealPlans(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	plans, err := s.tracker.MealPlans(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, viewOf(p))
	}
	return views, nil
}

func (s *FoodLogServer) handleGetMealPlan(ctx context.Context, req *protocol.CallToolRequest) (any, error) {
	var params PlanIDParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := required("plan_id", params.PlanID); err != nil {
		return nil, err
	}

	plan, err := s.tracker.MealPlan(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}
	return viewOf(plan), nil
}
