package tracker

import (
	"context"
	"errors"
	"sync"

	"food-log/internal/models"
)

// The checker only runs once this many items are picked.
const minCheckedItems = 2

var ErrSelectionIncomplete = errors.New("meal selection is not complete")

// MealSelection is one meal-building session. Each toggle re-checks the
// selection; CanFinalize follows the latest result and drops back when an
// item removal makes the meal incomplete.
type MealSelection struct {
	checker CompletenessChecker

	mu          sync.Mutex
	items       []models.MealPlanItem
	version     uint64
	result      *models.CompletenessResult
	canFinalize bool
}

func (t *Tracker) NewSelection() *MealSelection {
	return &MealSelection{checker: t.checker}
}

// Toggle adds the item when absent, removes it when present (matched by ID),
// and reports whether it is now selected. The check runs without holding the
// selection lock; its result is dropped if another toggle landed meanwhile.
func (s *MealSelection) Toggle(ctx context.Context, item models.MealPlanItem) bool {
	s.mu.Lock()
	selected := true
	for i, it := range s.items {
		if it.ID == item.ID {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			selected = false
			break
		}
	}
	if selected {
		s.items = append(s.items, item)
	}
	s.version++
	version := s.version
	s.result = nil
	s.canFinalize = false
	if len(s.items) < minCheckedItems {
		s.mu.Unlock()
		return selected
	}
	items := append([]models.MealPlanItem{}, s.items...)
	s.mu.Unlock()

	res := s.checker.Check(ctx, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if version == s.version {
		s.result = &res
		s.canFinalize = res.IsComplete
	}
	return selected
}

func (s *MealSelection) Items() []models.MealPlanItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MealPlanItem{}, s.items...)
}

func (s *MealSelection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return true
		}
	}
	return false
}

// Result is the latest check, if one has run for the current selection.
func (s *MealSelection) Result() (models.CompletenessResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return models.CompletenessResult{}, false
	}
	return *s.result, true
}

func (s *MealSelection) CanFinalize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canFinalize
}

// Finalize saves a complete selection as a plan named after the current meal
// and time, carrying the checker's feedback.
func (t *Tracker) Finalize(ctx context.Context, s *MealSelection, photoURI string) (string, error) {
	s.mu.Lock()
	if !s.canFinalize || s.result == nil {
		s.mu.Unlock()
		return "", ErrSelectionIncomplete
	}
	items := append([]models.MealPlanItem{}, s.items...)
	feedback := s.result.Feedback
	s.mu.Unlock()

	now := t.now()
	mealType := models.MealTypeForTime(now)
	return t.SaveMealPlan(ctx, PlanName(mealType, now), mealType, items, photoURI, feedback)
}
