package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ManualFoodInput is a food typed in by hand. Macro fields stay strings until
// validated so non-numeric input can be reported per field.
type ManualFoodInput struct {
	Name     string   `json:"name" validate:"notblank"`
	Calories string   `json:"calories" validate:"macro"`
	Protein  string   `json:"protein" validate:"macro"`
	Carbs    string   `json:"carbs" validate:"macro"`
	Fat      string   `json:"fat" validate:"macro"`
	MealType MealType `json:"meal_type" validate:"mealtype"`
	ImageURI string   `json:"image_uri,omitempty"`
}

var fieldMessages = map[string]struct {
	field   string
	message string
}{
	"Name":     {"name", "Please enter a food name"},
	"Calories": {"calories", "Please enter a valid calorie amount"},
	"Protein":  {"protein", "Please enter a valid protein amount"},
	"Carbs":    {"carbs", "Please enter a valid carbs amount"},
	"Fat":      {"fat", "Please enter a valid fat amount"},
	"MealType": {"meal_type", "Please choose breakfast, lunch, dinner or snack"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterValidation("macro", func(fl validator.FieldLevel) bool {
		_, ok := parseMacro(fl.Field().String())
		return ok
	})
	v.RegisterValidation("mealtype", func(fl validator.FieldLevel) bool {
		return MealType(fl.Field().String()).Valid()
	})
	return v
}

func parseMacro(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return n, true
}

// Validate checks fields in form order and reports the first failure.
func (in ManualFoodInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		if m, ok := fieldMessages[errs[0].StructField()]; ok {
			return &ValidationError{Field: m.field, Message: m.message}
		}
		return &ValidationError{Field: errs[0].Field(), Message: errs[0].Error()}
	}
	return err
}

// Food validates the input and converts it into a Food created at the given time.
func (in ManualFoodInput) Food(at time.Time) (Food, error) {
	if err := in.Validate(); err != nil {
		return Food{}, err
	}
	calories, _ := parseMacro(in.Calories)
	protein, _ := parseMacro(in.Protein)
	carbs, _ := parseMacro(in.Carbs)
	fat, _ := parseMacro(in.Fat)
	return Food{
		Name:      strings.TrimSpace(in.Name),
		Calories:  calories,
		Protein:   protein,
		Carbs:     carbs,
		Fat:       fat,
		ImageURI:  in.ImageURI,
		Timestamp: at,
		MealType:  in.MealType,
	}, nil
}
