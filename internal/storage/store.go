// internal/storage/store.go
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"food-log/internal/models"
)

// Store is the in-process entity store. Mutations and reads are atomic with
// respect to each other; nothing outlives the process.
type Store interface {
	// AddFood stores food under a freshly generated id and returns it. food.ID is ignored.
	AddFood(ctx context.Context, food models.Food) (string, error)
	// LogFood records that foodID was eaten now. foodID is not checked.
	LogFood(ctx context.Context, foodID string, mealType models.MealType, quantity float64) (string, error)
	GetFoodByID(ctx context.Context, id string) (models.Food, bool, error)
	Foods(ctx context.Context) ([]models.Food, error)
	FoodLogs(ctx context.Context) ([]models.FoodLog, error)

	GetFoodsByDate(ctx context.Context, date time.Time) ([]models.DailyFoodEntry, error)
	GetNutritionSummary(ctx context.Context, date time.Time) (models.NutritionSummary, error)

	// SaveMealPlan snapshots the items' nutrition and puts the plan first in MealPlans.
	SaveMealPlan(ctx context.Context, name string, mealType models.MealType, items []models.MealPlanItem, photoURI, feedback string) (string, error)
	// UpdateMealPlanPhoto is a no-op for unknown ids.
	UpdateMealPlanPhoto(ctx context.Context, planID, photoURI string) error
	GetMealPlanByID(ctx context.Context, id string) (models.SavedMealPlan, bool, error)
	MealPlans(ctx context.Context) ([]models.SavedMealPlan, error)

	Close() error
}

type options struct {
	now      func() time.Time
	location *time.Location
	newID    func() string
}

type Option func(*options)

// WithClock replaces time.Now for log dates, food timestamps and plan dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the zone whose calendar days group logs. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		location: time.Local,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New opens the store for the given driver: "memory" or "sqlite".
func New(driver string, opts ...Option) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(opts...), nil
	case "sqlite":
		return NewSQLiteStorage(opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
