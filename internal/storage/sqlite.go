// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"food-log/internal/models"
	"food-log/internal/nutrition"
)

// SQLiteStorage keeps the store in a private in-memory SQLite database. The
// database is never backed by a file and disappears with the process.
type SQLiteStorage struct {
	db   *sql.DB
	opts options
}

func NewSQLiteStorage(opts ...Option) (*SQLiteStorage, error) {
	dsn := fmt.Sprintf("file:foodlog-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the in-memory database alive and serializes access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	storage := &SQLiteStorage{db: db, opts: buildOptions(opts)}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        calories REAL NOT NULL,
        protein REAL NOT NULL,
        carbs REAL NOT NULL,
        fat REAL NOT NULL,
        image_uri TEXT NOT NULL,
        timestamp TEXT NOT NULL,
        meal_type TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS food_logs (
        id TEXT PRIMARY KEY,
        food_id TEXT NOT NULL,
        date TEXT NOT NULL,
        day TEXT NOT NULL,
        meal_type TEXT NOT NULL,
        quantity REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_plans (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        date TEXT NOT NULL,
        meal_type TEXT NOT NULL,
        photo_uri TEXT NOT NULL,
        feedback TEXT NOT NULL,
        total_calories REAL NOT NULL,
        total_protein REAL NOT NULL,
        total_carbs REAL NOT NULL,
        total_fat REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_plan_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        plan_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        item_id TEXT NOT NULL,
        food_name TEXT NOT NULL,
        calories REAL NOT NULL,
        protein REAL NOT NULL,
        carbs REAL NOT NULL,
        fat REAL NOT NULL,
        image_uri TEXT NOT NULL,
        FOREIGN KEY (plan_id) REFERENCES meal_plans(id)
    );

    CREATE INDEX IF NOT EXISTS idx_food_logs_day ON food_logs(day);
    CREATE INDEX IF NOT EXISTS idx_meal_plan_items_plan_id ON meal_plan_items(plan_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) AddFood(ctx context.Context, food models.Food) (string, error) {
	food.ID = s.opts.newID()
	if food.Timestamp.IsZero() {
		food.Timestamp = s.opts.now()
	}

	query := `
        INSERT INTO foods (id, name, calories, protein, carbs, fat, image_uri, timestamp, meal_type)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		food.ID, food.Name, food.Calories, food.Protein, food.Carbs, food.Fat,
		food.ImageURI, formatTime(food.Timestamp), string(food.MealType))
	if err != nil {
		return "", fmt.Errorf("failed to insert food: %w", err)
	}

	return food.ID, nil
}

func (s *SQLiteStorage) LogFood(ctx context.Context, foodID string, mealType models.MealType, quantity float64) (string, error) {
	id := s.opts.newID()
	now := s.opts.now()

	query := `
        INSERT INTO food_logs (id, food_id, date, day, meal_type, quantity)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		id, foodID, formatTime(now), nutrition.DayKey(now, s.opts.location), string(mealType), quantity)
	if err != nil {
		return "", fmt.Errorf("failed to insert food log: %w", err)
	}

	return id, nil
}

const foodColumns = `f.id, f.name, f.calories, f.protein, f.carbs, f.fat, f.image_uri, f.timestamp, f.meal_type`

type scanner interface {
	Scan(dest ...any) error
}

func scanFood(row scanner, extra ...any) (models.Food, error) {
	var food models.Food
	var timestampStr, mealTypeStr string

	dest := append([]any{
		&food.ID, &food.Name, &food.Calories, &food.Protein, &food.Carbs, &food.Fat,
		&food.ImageURI, &timestampStr, &mealTypeStr,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return food, err
	}

	ts, err := parseTime(timestampStr)
	if err != nil {
		return food, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	food.Timestamp = ts
	food.MealType = models.MealType(mealTypeStr)
	return food, nil
}

func (s *SQLiteStorage) GetFoodByID(ctx context.Context, id string) (models.Food, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods f WHERE f.id = ?`, id)
	food, err := scanFood(row)
	if err == sql.ErrNoRows {
		return models.Food{}, false, nil
	}
	if err != nil {
		return models.Food{}, false, fmt.Errorf("failed to get food %s: %w", id, err)
	}
	return food, true, nil
}

func (s *SQLiteStorage) Foods(ctx context.Context) ([]models.Food, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+foodColumns+` FROM foods f ORDER BY f.rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	foods := []models.Food{}
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}
	return foods, rows.Err()
}

func (s *SQLiteStorage) FoodLogs(ctx context.Context) ([]models.FoodLog, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, food_id, date, meal_type, quantity
        FROM food_logs
        ORDER BY rowid
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query food logs: %w", err)
	}
	defer rows.Close()

	logs := []models.FoodLog{}
	for rows.Next() {
		var log models.FoodLog
		var dateStr, mealTypeStr string
		if err := rows.Scan(&log.ID, &log.FoodID, &dateStr, &mealTypeStr, &log.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		if log.Date, err = parseTime(dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		log.MealType = models.MealType(mealTypeStr)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *SQLiteStorage) GetFoodsByDate(ctx context.Context, date time.Time) ([]models.DailyFoodEntry, error) {
	// The inner join drops logs whose food does not exist.
	query := `
        SELECT ` + foodColumns + `, l.id, l.quantity, l.meal_type
        FROM food_logs l
        JOIN foods f ON f.id = l.food_id
        WHERE l.day = ?
        ORDER BY l.rowid
    `
	rows, err := s.db.QueryContext(ctx, query, nutrition.DayKey(date, s.opts.location))
	if err != nil {
		return nil, fmt.Errorf("failed to query foods by date: %w", err)
	}
	defer rows.Close()

	entries := []models.DailyFoodEntry{}
	for rows.Next() {
		var entry models.DailyFoodEntry
		var mealTypeStr string
		food, err := scanFood(rows, &entry.LogID, &entry.Quantity, &mealTypeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Food = food
		entry.MealType = models.MealType(mealTypeStr)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) GetNutritionSummary(ctx context.Context, date time.Time) (models.NutritionSummary, error) {
	entries, err := s.GetFoodsByDate(ctx, date)
	if err != nil {
		return models.NutritionSummary{}, err
	}
	return nutrition.Summarize(entries), nil
}

func (s *SQLiteStorage) SaveMealPlan(ctx context.Context, name string, mealType models.MealType, items []models.MealPlanItem, photoURI, feedback string) (string, error) {
	id := s.opts.newID()
	summary := nutrition.SumItems(items)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	planQuery := `
        INSERT INTO meal_plans (id, name, date, meal_type, photo_uri, feedback,
            total_calories, total_protein, total_carbs, total_fat)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = tx.ExecContext(ctx, planQuery,
		id, name, formatTime(s.opts.now()), string(mealType), photoURI, feedback,
		summary.TotalCalories, summary.TotalProtein, summary.TotalCarbs, summary.TotalFat)
	if err != nil {
		return "", fmt.Errorf("failed to insert meal plan: %w", err)
	}

	itemQuery := `
        INSERT INTO meal_plan_items (plan_id, position, item_id, food_name, calories, protein, carbs, fat, image_uri)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	for i, item := range items {
		_, err = tx.ExecContext(ctx, itemQuery,
			id, i, item.ID, item.FoodName, item.Calories, item.Protein, item.Carbs, item.Fat, item.ImageURI)
		if err != nil {
			return "", fmt.Errorf("failed to insert meal plan item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit meal plan: %w", err)
	}
	return id, nil
}

func (s *SQLiteStorage) UpdateMealPlanPhoto(ctx context.Context, planID, photoURI string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE meal_plans SET photo_uri = ? WHERE id = ?`, photoURI, planID); err != nil {
		return fmt.Errorf("failed to update meal plan photo: %w", err)
	}
	return nil
}

const planColumns = `id, name, date, meal_type, photo_uri, feedback,
        total_calories, total_protein, total_carbs, total_fat`

func scanPlan(row scanner) (models.SavedMealPlan, error) {
	var plan models.SavedMealPlan
	var dateStr, mealTypeStr string
	err := row.Scan(&plan.ID, &plan.Name, &dateStr, &mealTypeStr, &plan.PhotoURI, &plan.Feedback,
		&plan.NutritionSummary.TotalCalories, &plan.NutritionSummary.TotalProtein,
		&plan.NutritionSummary.TotalCarbs, &plan.NutritionSummary.TotalFat)
	if err != nil {
		return plan, err
	}
	if plan.Date, err = parseTime(dateStr); err != nil {
		return plan, fmt.Errorf("failed to parse date: %w", err)
	}
	plan.MealType = models.MealType(mealTypeStr)
	return plan, nil
}

func (s *SQLiteStorage) GetMealPlanByID(ctx context.Context, id string) (models.SavedMealPlan, bool, error) {
	plan, err := scanPlan(s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM meal_plans WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return models.SavedMealPlan{}, false, nil
	}
	if err != nil {
		return models.SavedMealPlan{}, false, fmt.Errorf("failed to get meal plan %s: %w", id, err)
	}
	if err := s.loadItemsForPlan(ctx, &plan); err != nil {
		return models.SavedMealPlan{}, false, fmt.Errorf("failed to load items for meal plan %s: %w", id, err)
	}
	return plan, true, nil
}

func (s *SQLiteStorage) MealPlans(ctx context.Context) ([]models.SavedMealPlan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+planColumns+` FROM meal_plans ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal plans: %w", err)
	}

	plans := []models.SavedMealPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Release the single connection before loading items.
	rows.Close()

	for i := range plans {
		if err := s.loadItemsForPlan(ctx, &plans[i]); err != nil {
			return nil, fmt.Errorf("failed to load items for meal plan %s: %w", plans[i].ID, err)
		}
	}
	return plans, nil
}

func (s *SQLiteStorage) loadItemsForPlan(ctx context.Context, plan *models.SavedMealPlan) error {
	query := `
        SELECT item_id, food_name, calories, protein, carbs, fat, image_uri
        FROM meal_plan_items
        WHERE plan_id = ?
        ORDER BY position
    `

	rows, err := s.db.QueryContext(ctx, query, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []models.MealPlanItem{}
	for rows.Next() {
		var item models.MealPlanItem
		err := rows.Scan(&item.ID, &item.FoodName, &item.Calories, &item.Protein,
			&item.Carbs, &item.Fat, &item.ImageURI)
		if err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	plan.Items = items
	return rows.Err()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
