package recommend

import (
	"fmt"
	"strings"

	"food-log/internal/models"
)

func recommendationPrompt(consumed []models.DailyFoodEntry) string {
	var b strings.Builder
	b.WriteString("I need food recommendations based on what I've eaten today. Here's what I've had so far:\n\n")

	if len(consumed) == 0 {
		b.WriteString("I haven't eaten anything yet today.\n\n")
	} else {
		for _, e := range consumed {
			fmt.Fprintf(&b, "- %s: %s calories, %sg protein, %sg carbs, %sg fat (%s)\n",
				e.Food.Name, num(e.Food.Calories), num(e.Food.Protein), num(e.Food.Carbs), num(e.Food.Fat), e.MealType)
		}
		b.WriteString("\n")
	}

	b.WriteString("Please recommend 5 healthy food items that would complement what I've eaten today and help me meet my nutritional goals. ")
	b.WriteString("For each recommendation, include the food name, calories, protein (g), carbs (g), fat (g), and a brief reason why it's recommended.\n\n")
	b.WriteString("Format your response as a JSON array with objects containing: foodName, calories, protein, carbs, fat, reason.")
	return b.String()
}

func completenessPrompt(items []models.MealPlanItem) string {
	var b strings.Builder
	b.WriteString("I'm planning a meal with the following items:\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %s calories, %sg protein, %sg carbs, %sg fat\n",
			it.FoodName, num(it.Calories), num(it.Protein), num(it.Carbs), num(it.Fat))
	}
	b.WriteString("\nIs this a nutritionally complete and balanced meal? ")
	b.WriteString("Consider the balance of macronutrients, total calories, and variety of food groups.\n\n")
	b.WriteString("Respond with a JSON object containing: isComplete (boolean) and feedback (a short explanation with suggestions if incomplete).")
	return b.String()
}

// num prints 31 as "31" and 3.6 as "3.6".
func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
