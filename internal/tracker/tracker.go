// Package tracker is the single owned state object behind every user action:
// it validates input, writes to the store, and keeps the current
// recommendation list fresh.
package tracker

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"food-log/internal/metrics"
	"food-log/internal/models"
	"food-log/internal/nutrition"
	"food-log/internal/recommend"
	"food-log/internal/storage"
	"food-log/internal/vision"
)

// CompletenessChecker judges a set of picked items. recommend.Checker is the
// production implementation.
type CompletenessChecker interface {
	Check(ctx context.Context, items []models.MealPlanItem) models.CompletenessResult
}

type Tracker struct {
	store    storage.Store
	engine   recommend.Engine
	checker  CompletenessChecker
	analyzer vision.Analyzer
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
	targets  nutrition.Targets

	recMu      sync.RWMutex
	recs       []models.Recommendation
	started    uint64
	applied    uint64
	refreshing int

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

type Option func(*Tracker)

func WithChecker(c CompletenessChecker) Option {
	return func(t *Tracker) { t.checker = c }
}

func WithAnalyzer(a vision.Analyzer) Option {
	return func(t *Tracker) { t.analyzer = a }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(t *Tracker) { t.metrics = c }
}

// WithClock replaces time.Now for "today", plan names and inferred meal types.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New wires the tracker. It does not fetch recommendations; call
// RefreshRecommendations once at startup.
func New(store storage.Store, engine recommend.Engine, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		engine:  engine,
		now:     time.Now,
		targets: nutrition.DefaultTargets,
		recs:    []models.Recommendation{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.checker == nil {
		t.checker = recommend.NewChecker(nil, t.logger, t.metrics, 0)
	}
	if t.analyzer == nil {
		t.analyzer = vision.NewMockAnalyzer(0, nil, t.logger)
	}
	t.bgCtx, t.bgCancel = context.WithCancel(context.Background())
	return t
}

// Close cancels in-flight background refreshes and waits for them.
func (t *Tracker) Close() {
	t.bgCancel()
	t.bg.Wait()
}

// AddFood stores a catalog food without logging it.
func (t *Tracker) AddFood(ctx context.Context, food models.Food) (string, error) {
	if err := checkFood(food); err != nil {
		return "", err
	}
	if strings.TrimSpace(food.Name) == "" {
		food.Name = models.UnknownFoodName
	}
	if food.Timestamp.IsZero() {
		food.Timestamp = t.now()
	}

	id, err := t.store.AddFood(ctx, food)
	if err != nil {
		return "", fmt.Errorf("failed to add food: %w", err)
	}
	return id, nil
}

// LogFood records a serving and starts a recommendation refresh in the background.
func (t *Tracker) LogFood(ctx context.Context, foodID string, mealType models.MealType, quantity float64) (string, error) {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return "", &models.ValidationError{Field: "quantity", Message: "Quantity must be a finite number"}
	}
	if quantity < 0 {
		return "", &models.ValidationError{Field: "quantity", Message: "Quantity cannot be negative"}
	}
	if !mealType.Valid() {
		return "", &models.ValidationError{Field: "meal_type", Message: fmt.Sprintf("Unknown meal type %q", mealType)}
	}

	id, err := t.store.LogFood(ctx, foodID, mealType, quantity)
	if err != nil {
		return "", fmt.Errorf("failed to log food: %w", err)
	}
	t.metrics.FoodLogged(string(mealType))
	t.logger.Info("food logged",
		zap.String("food_id", foodID),
		zap.String("meal_type", string(mealType)),
		zap.Float64("quantity", quantity),
	)

	t.RefreshAsync()
	return id, nil
}

// AddManualFood validates a hand-typed entry, then adds and logs it as one serving.
// Nothing is written when validation fails.
func (t *Tracker) AddManualFood(ctx context.Context, in models.ManualFoodInput) (models.Food, error) {
	food, err := in.Food(t.now())
	if err != nil {
		return models.Food{}, err
	}
	return t.addAndLog(ctx, food)
}

func (t *Tracker) AnalyzePhoto(ctx context.Context, imageURI string) (models.PhotoAnalysis, error) {
	analysis, err := t.analyzer.Analyze(ctx, imageURI)
	if err != nil {
		return models.PhotoAnalysis{}, fmt.Errorf("failed to analyze photo: %w", err)
	}
	return analysis, nil
}

// LogAnalyzedFood turns a photo analysis into a food and logs one serving of it.
func (t *Tracker) LogAnalyzedFood(ctx context.Context, analysis models.PhotoAnalysis, mealType models.MealType) (models.Food, error) {
	if mealType == "" {
		mealType = models.MealTypeForTime(t.now())
	}
	if !mealType.Valid() {
		return models.Food{}, &models.ValidationError{Field: "meal_type", Message: fmt.Sprintf("Unknown meal type %q", mealType)}
	}
	return t.addAndLog(ctx, analysis.Food(mealType, t.now()))
}

func (t *Tracker) addAndLog(ctx context.Context, food models.Food) (models.Food, error) {
	id, err := t.AddFood(ctx, food)
	if err != nil {
		return models.Food{}, err
	}
	if _, err := t.LogFood(ctx, id, food.MealType, 1); err != nil {
		return models.Food{}, err
	}
	food.ID = id
	return food, nil
}

func (t *Tracker) GetFood(ctx context.Context, id string) (models.Food, error) {
	food, ok, err := t.store.GetFoodByID(ctx, id)
	if err != nil {
		return models.Food{}, fmt.Errorf("failed to get food: %w", err)
	}
	if !ok {
		return models.Food{}, models.ErrFoodNotFound
	}
	return food, nil
}

type Diary struct {
	Date      string                  `json:"date"`
	Sections  []nutrition.MealSection `json:"sections"`
	Summary   models.NutritionSummary `json:"summary"`
	Remaining nutrition.Targets       `json:"remaining"`
}

// Diary groups one day's logged foods by meal and totals them from the same read.
func (t *Tracker) Diary(ctx context.Context, date time.Time) (Diary, error) {
	entries, err := t.store.GetFoodsByDate(ctx, date)
	if err != nil {
		return Diary{}, fmt.Errorf("failed to get foods for date: %w", err)
	}
	summary := nutrition.Summarize(entries)
	sections := nutrition.GroupByMealType(entries)
	if sections == nil {
		sections = []nutrition.MealSection{}
	}
	return Diary{
		Date:      date.Format("2006-01-02"),
		Sections:  sections,
		Summary:   summary,
		Remaining: nutrition.Remaining(t.targets, summary),
	}, nil
}

func (t *Tracker) NutritionSummary(ctx context.Context, date time.Time) (models.NutritionSummary, error) {
	summary, err := t.store.GetNutritionSummary(ctx, date)
	if err != nil {
		return models.NutritionSummary{}, fmt.Errorf("failed to get nutrition summary: %w", err)
	}
	return summary, nil
}

// CheckMeal asks the checker about an arbitrary set of items. Never fails.
func (t *Tracker) CheckMeal(ctx context.Context, items []models.MealPlanItem) models.CompletenessResult {
	return t.checker.Check(ctx, items)
}

// PlanName is the default meal plan name: "Lunch - Mar 4 12:30 PM".
func PlanName(mealType models.MealType, at time.Time) string {
	return fmt.Sprintf("%s - %s", mealType.Title(), at.Format("Jan 2 3:04 PM"))
}

// SaveMealPlan stores a plan. A blank name gets PlanName.
func (t *Tracker) SaveMealPlan(ctx context.Context, name string, mealType models.MealType, items []models.MealPlanItem, photoURI, feedback string) (string, error) {
	if !mealType.Valid() {
		return "", &models.ValidationError{Field: "meal_type", Message: fmt.Sprintf("Unknown meal type %q", mealType)}
	}
	if len(items) == 0 {
		return "", &models.ValidationError{Field: "items", Message: "Select at least one item"}
	}
	if strings.TrimSpace(name) == "" {
		name = PlanName(mealType, t.now())
	}

	id, err := t.store.SaveMealPlan(ctx, name, mealType, items, photoURI, feedback)
	if err != nil {
		return "", fmt.Errorf("failed to save meal plan: %w", err)
	}
	t.metrics.MealPlanSaved()
	t.logger.Info("meal plan saved",
		zap.String("plan_id", id),
		zap.String("name", name),
		zap.Int("items", len(items)),
	)
	return id, nil
}

// UpdateMealPlanPhoto replaces a plan's photo; unknown ids are ignored.
func (t *Tracker) UpdateMealPlanPhoto(ctx context.Context, planID, photoURI string) error {
	if err := t.store.UpdateMealPlanPhoto(ctx, planID, photoURI); err != nil {
		return fmt.Errorf("failed to update meal plan photo: %w", err)
	}
	return nil
}

func (t *Tracker) MealPlans(ctx context.Context) ([]models.SavedMealPlan, error) {
	plans, err := t.store.MealPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	return plans, nil
}

func (t *Tracker) MealPlan(ctx context.Context, id string) (models.SavedMealPlan, error) {
	plan, ok, err := t.store.GetMealPlanByID(ctx, id)
	if err != nil {
		return models.SavedMealPlan{}, fmt.Errorf("failed to get meal plan: %w", err)
	}
	if !ok {
		return models.SavedMealPlan{}, models.ErrMealPlanNotFound
	}
	return plan, nil
}

func checkFood(f models.Food) error {
	macros := []struct {
		field string
		value float64
	}{
		{"calories", f.Calories},
		{"protein", f.Protein},
		{"carbs", f.Carbs},
		{"fat", f.Fat},
	}
	for _, m := range macros {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return &models.ValidationError{Field: m.field, Message: fmt.Sprintf("%s must be a finite number", m.field)}
		}
		if m.value < 0 {
			return &models.ValidationError{Field: m.field, Message: fmt.Sprintf("%s cannot be negative", m.field)}
		}
	}
	if !f.MealType.Valid() {
		return &models.ValidationError{Field: "meal_type", Message: fmt.Sprintf("Unknown meal type %q", f.MealType)}
	}
	return nil
}
