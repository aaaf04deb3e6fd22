package storage

import (
	"context"
	"sync"
	"time"

	"food-log/internal/models"
	"food-log/internal/nutrition"
)

// MemoryStore keeps every collection in slices behind one RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	foods []models.Food
	logs  []models.FoodLog
	plans []models.SavedMealPlan // newest first
	opts  options
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: buildOptions(opts)}
}

func (s *MemoryStore) AddFood(ctx context.Context, food models.Food) (string, error) {
	food.ID = s.opts.newID()
	if food.Timestamp.IsZero() {
		food.Timestamp = s.opts.now()
	}

	s.mu.Lock()
	s.foods = append(s.foods, food)
	s.mu.Unlock()
	return food.ID, nil
}

func (s *MemoryStore) LogFood(ctx context.Context, foodID string, mealType models.MealType, quantity float64) (string, error) {
	log := models.FoodLog{
		ID:       s.opts.newID(),
		FoodID:   foodID,
		Date:     s.opts.now(),
		MealType: mealType,
		Quantity: quantity,
	}

	s.mu.Lock()
	s.logs = append(s.logs, log)
	s.mu.Unlock()
	return log.ID, nil
}

func (s *MemoryStore) GetFoodByID(ctx context.Context, id string) (models.Food, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.foods {
		if f.ID == id {
			return f, true, nil
		}
	}
	return models.Food{}, false, nil
}

func (s *MemoryStore) Foods(ctx context.Context) ([]models.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Food{}, s.foods...), nil
}

func (s *MemoryStore) FoodLogs(ctx context.Context) ([]models.FoodLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FoodLog{}, s.logs...), nil
}

func (s *MemoryStore) GetFoodsByDate(ctx context.Context, date time.Time) ([]models.DailyFoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nutrition.EntriesForDay(s.foods, s.logs, date, s.opts.location), nil
}

func (s *MemoryStore) GetNutritionSummary(ctx context.Context, date time.Time) (models.NutritionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nutrition.Summarize(nutrition.EntriesForDay(s.foods, s.logs, date, s.opts.location)), nil
}

func (s *MemoryStore) SaveMealPlan(ctx context.Context, name string, mealType models.MealType, items []models.MealPlanItem, photoURI, feedback string) (string, error) {
	plan := models.SavedMealPlan{
		ID:               s.opts.newID(),
		Name:             name,
		Date:             s.opts.now(),
		MealType:         mealType,
		Items:            append([]models.MealPlanItem{}, items...),
		PhotoURI:         photoURI,
		Feedback:         feedback,
		NutritionSummary: nutrition.SumItems(items),
	}

	s.mu.Lock()
	s.plans = append([]models.SavedMealPlan{plan}, s.plans...)
	s.mu.Unlock()
	return plan.ID, nil
}

func (s *MemoryStore) UpdateMealPlanPhoto(ctx context.Context, planID, photoURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.plans {
		if s.plans[i].ID == planID {
			s.plans[i].PhotoURI = photoURI
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) GetMealPlanByID(ctx context.Context, id string) (models.SavedMealPlan, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plans {
		if p.ID == id {
			return clonePlan(p), true, nil
		}
	}
	return models.SavedMealPlan{}, false, nil
}

func (s *MemoryStore) MealPlans(ctx context.Context) ([]models.SavedMealPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]models.SavedMealPlan, len(s.plans))
	for i, p := range s.plans {
		plans[i] = clonePlan(p)
	}
	return plans, nil
}

func (s *MemoryStore) Close() error { return nil }

func clonePlan(p models.SavedMealPlan) models.SavedMealPlan {
	p.Items = append([]models.MealPlanItem{}, p.Items...)
	return p
}
