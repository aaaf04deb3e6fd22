package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"food-log/internal/metrics"
	"food-log/internal/models"
	"food-log/internal/recommend"
	"food-log/internal/storage"
	"food-log/internal/tracker"
	"food-log/internal/vision"
)

var dinnerTime = time.Date(2024, time.May, 10, 19, 0, 0, 0, time.Local)

type toolResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type ServerSuite struct {
	suite.Suite
	tracker *tracker.Tracker
	server  *FoodLogServer
	handler http.Handler
}

func (s *ServerSuite) SetupTest() {
	clock := func() time.Time { return dinnerTime }
	logger := zaptest.NewLogger(s.T())
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)

	store := storage.NewMemoryStore(storage.WithClock(clock))
	s.tracker = tracker.New(store, recommend.NewRuleEngine(),
		tracker.WithClock(clock),
		tracker.WithLogger(logger),
		tracker.WithMetrics(collector),
		tracker.WithAnalyzer(vision.NewMockAnalyzer(0, nil, logger)),
	)
	s.server = NewFoodLogServer(Config{Host: "127.0.0.1", Port: 0, Version: "test"}, s.tracker, reg, logger)
	s.server.now = clock
	s.handler = s.server.Handler()
}

func (s *ServerSuite) TearDownTest() {
	s.tracker.Close()
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

// call posts a tool request and returns the status plus the decoded JSON text
// (or the raw error body for non-200 answers).
func (s *ServerSuite) call(name string, args map[string]any) (int, []byte) {
	body, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		return rec.Code, rec.Body.Bytes()
	}

	var resp toolResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Content, 1)
	s.Equal("text", resp.Content[0].Type)
	return rec.Code, []byte(resp.Content[0].Text)
}

func (s *ServerSuite) mustCall(name string, args map[string]any, out any) {
	code, body := s.call(name, args)
	s.Require().Equal(http.StatusOK, code, string(body))
	if out != nil {
		s.Require().NoError(json.Unmarshal(body, out))
	}
}

func (s *ServerSuite) TestAddFoodAcceptsStringsAndNumbers() {
	var food models.Food
	s.mustCall("add_food", map[string]any{
		"name":      "Salmon",
		"calories":  "367",
		"protein":   40,
		"carbs":     0,
		"fat":       "22",
		"meal_type": "Dinner",
	}, &food)

	s.NotEmpty(food.ID)
	s.Equal(367.0, food.Calories)
	s.Equal(40.0, food.Protein)
	s.Equal(models.Dinner, food.MealType)

	var summary models.NutritionSummary
	s.mustCall("get_nutrition_summary", map[string]any{"date": "2024-05-10"}, &summary)
	s.Equal(models.NutritionSummary{TotalCalories: 367, TotalProtein: 40, TotalFat: 22}, summary)
}

func (s *ServerSuite) TestAddFoodValidationError() {
	code, body := s.call("add_food", map[string]any{
		"name": "", "calories": "100", "protein": "1", "carbs": "1", "fat": "1", "meal_type": "lunch",
	})
	s.Equal(http.StatusBadRequest, code)

	var e errorBody
	s.Require().NoError(json.Unmarshal(body, &e))
	s.Equal("name", e.Field)
	s.Equal("Please enter a food name", e.Error)
}

func (s *ServerSuite) TestLogFoodAndDiary() {
	var food models.Food
	s.mustCall("add_food", map[string]any{
		"name": "Yogurt", "calories": 150, "protein": 15, "carbs": 20, "fat": 0.5, "meal_type": "breakfast",
	}, &food)

	var logged map[string]string
	s.mustCall("log_food", map[string]any{"food_id": food.ID, "meal_type": "snack", "quantity": 2}, &logged)
	s.NotEmpty(logged["id"])

	var diary tracker.Diary
	s.mustCall("get_diary", nil, &diary)
	s.Equal("2024-05-10", diary.Date)
	s.Require().Len(diary.Sections, 2)
	s.Equal(models.Breakfast, diary.Sections[0].MealType)
	s.Equal(models.Snack, diary.Sections[1].MealType)
	s.Equal(450.0, diary.Summary.TotalCalories)

	var empty tracker.Diary
	s.mustCall("get_diary", map[string]any{"date": "2024-05-09"}, &empty)
	s.Empty(empty.Sections)
}

func (s *ServerSuite) TestLogFoodRejectsBadInput() {
	code, _ := s.call("log_food", map[string]any{"food_id": "x", "meal_type": "brunch"})
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call("log_food", map[string]any{"food_id": "x", "quantity": -1})
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call("log_food", map[string]any{"meal_type": "lunch"})
	s.Equal(http.StatusBadRequest, code)
}

func (s *ServerSuite) TestGetFoodNotFound() {
	code, _ := s.call("get_food", map[string]any{"food_id": "missing"})
	s.Equal(http.StatusNotFound, code)
}

func (s *ServerSuite) TestBadDate() {
	code, _ := s.call("get_nutrition_summary", map[string]any{"date": "10/05/2024"})
	s.Equal(http.StatusBadRequest, code)
}

func (s *ServerSuite) TestGetRecommendations() {
	var res recommendationsResult
	s.mustCall("get_recommendations", nil, &res)
	s.Empty(res.Recommendations)

	s.mustCall("get_recommendations", map[string]any{"refresh": true}, &res)
	s.Require().NotEmpty(res.Recommendations)
	var names []string
	for _, r := range res.Recommendations {
		names = append(names, r.FoodName)
	}
	s.Contains(names, "Balanced Meal Plate")
}

func (s *ServerSuite) TestCheckMeal() {
	var res models.CompletenessResult
	s.mustCall("check_meal", map[string]any{"items": []models.MealPlanItem{}}, &res)
	s.False(res.IsComplete)
	s.Equal(recommend.NoItemsFeedback, res.Feedback)

	s.mustCall("check_meal", map[string]any{"items": []models.MealPlanItem{
		{ID: "1", FoodName: "Chicken", Calories: 300, Protein: 15, Carbs: 5, Fat: 8},
		{ID: "2", FoodName: "Rice", Calories: 200, Protein: 5, Carbs: 35, Fat: 4},
		{ID: "3", FoodName: "Avocado", Calories: 100, Protein: 5, Carbs: 5, Fat: 4},
	}}, &res)
	s.True(res.IsComplete)
	s.Equal(recommend.BalancedFeedback, res.Feedback)
}

func (s *ServerSuite) TestAnalyzePhoto() {
	var res analyzePhotoResult
	s.mustCall("analyze_photo", map[string]any{"image_uri": "file:///plate.jpg"}, &res)
	s.Nil(res.Food)
	s.Require().NotNil(res.Analysis.Name)
	s.Equal(vision.DetectedFoodName, *res.Analysis.Name)

	s.mustCall("analyze_photo", map[string]any{"image_uri": "file:///plate.jpg", "log": true}, &res)
	s.Require().NotNil(res.Food)
	s.Equal(models.Dinner, res.Food.MealType)

	var diary tracker.Diary
	s.mustCall("get_diary", nil, &diary)
	s.Require().Len(diary.Sections, 1)

	code, _ := s.call("analyze_photo", map[string]any{})
	s.Equal(http.StatusBadRequest, code)
}

func (s *ServerSuite) TestMealPlanTools() {
	items := []models.MealPlanItem{
		{ID: "a", FoodName: "Salmon", Calories: 367, Protein: 40, Fat: 22, ImageURI: "salmon.jpg"},
		{ID: "b", FoodName: "Rice", Calories: 216, Protein: 5, Carbs: 45, Fat: 1.8},
	}

	var saved map[string]string
	s.mustCall("save_meal_plan", map[string]any{"meal_type": "dinner", "items": items, "feedback": "Nice"}, &saved)
	id := saved["id"]
	s.Require().NotEmpty(id)

	var plan planView
	s.mustCall("get_meal_plan", map[string]any{"plan_id": id}, &plan)
	s.Equal("Dinner - May 10 7:00 PM", plan.Name)
	s.Equal("salmon.jpg", plan.DisplayImage)
	s.InDelta(583.0, plan.NutritionSummary.TotalCalories, 1e-9)
	s.Equal("Nice", plan.Feedback)

	s.mustCall("update_meal_plan_photo", map[string]any{"plan_id": id, "photo_uri": "plate.jpg"}, nil)
	s.mustCall("update_meal_plan_photo", map[string]any{"plan_id": "unknown", "photo_uri": "plate.jpg"}, nil)

	var plans []planView
	s.mustCall("get_meal_plans", nil, &plans)
	s.Require().Len(plans, 1)
	s.Equal("plate.jpg", plans[0].DisplayImage)

	code, _ := s.call("get_meal_plan", map[string]any{"plan_id": "unknown"})
	s.Equal(http.StatusNotFound, code)

	code, _ = s.call("save_meal_plan", map[string]any{"meal_type": "dinner"})
	s.Equal(http.StatusBadRequest, code)
}

func (s *ServerSuite) TestMealSelectionTools() {
	salmon := models.MealPlanItem{ID: "a", FoodName: "Salmon", Calories: 367, Protein: 40, Fat: 22}
	rice := models.MealPlanItem{ID: "b", FoodName: "Rice", Calories: 216, Protein: 5, Carbs: 45, Fat: 1.8}

	var sel selectionResult
	s.mustCall("toggle_meal_item", map[string]any{"item": salmon}, &sel)
	s.Require().NotEmpty(sel.SelectionID)
	s.True(sel.Selected)
	s.Nil(sel.Result)
	s.False(sel.CanFinalize)
	id := sel.SelectionID

	code, _ := s.call("finalize_meal_plan", map[string]any{"selection_id": id})
	s.Equal(http.StatusConflict, code)

	s.mustCall("toggle_meal_item", map[string]any{"selection_id": id, "item": rice}, &sel)
	s.Equal(id, sel.SelectionID)
	s.Len(sel.Items, 2)
	s.Require().NotNil(sel.Result)
	s.Equal(recommend.BalancedFeedback, sel.Result.Feedback)
	s.True(sel.CanFinalize)

	var saved map[string]string
	s.mustCall("finalize_meal_plan", map[string]any{"selection_id": id, "photo_uri": "plate.jpg"}, &saved)

	var plan planView
	s.mustCall("get_meal_plan", map[string]any{"plan_id": saved["id"]}, &plan)
	s.Equal("Dinner - May 10 7:00 PM", plan.Name)
	s.Equal(models.Dinner, plan.MealType)
	s.Equal(recommend.BalancedFeedback, plan.Feedback)
	s.Equal("plate.jpg", plan.DisplayImage)
	s.Len(plan.Items, 2)

	code, _ = s.call("finalize_meal_plan", map[string]any{"selection_id": id})
	s.Equal(http.StatusNotFound, code)
	code, _ = s.call("toggle_meal_item", map[string]any{"selection_id": "missing", "item": rice})
	s.Equal(http.StatusNotFound, code)
	code, _ = s.call("toggle_meal_item", map[string]any{"item": map[string]any{"foodName": "No id"}})
	s.Equal(http.StatusBadRequest, code)
}

func (s *ServerSuite) TestUnknownToolAndBadJSON() {
	code, _ := s.call("order_pizza", nil)
	s.Equal(http.StatusNotFound, code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *ServerSuite) TestHealthMetricsAndTools() {
	s.mustCall("add_food", map[string]any{
		"name": "Toast", "calories": 80, "protein": 3, "carbs": 15, "fat": 1, "meal_type": "breakfast",
	}, nil)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `foodlog_foods_logged_total{meal_type="breakfast"} 1`)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))
	s.Equal(http.StatusOK, rec.Code)
	var listing struct {
		Server struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"server"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Equal("food-log", listing.Server.Name)
	s.Len(listing.Tools, len(toolOrder))
}

func TestMacroValue(t *testing.T) {
	var v struct {
		A macroValue `json:"a"`
		B macroValue `json:"b"`
		C macroValue `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "abc", "c": null}`), &v))
	assert.Equal(t, macroValue("12.5"), v.A)
	assert.Equal(t, macroValue("abc"), v.B)
	assert.Equal(t, macroValue(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}
