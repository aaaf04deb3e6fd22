package recommend

import "food-log/internal/models"

const unsplashParams = "?ixlib=rb-1.2.1&auto=format&fit=crop&w=500&q=60"

var defaultRecommendations = []models.Recommendation{
	{
		ID:       "1",
		FoodName: "Grilled Chicken Breast",
		Reason:   "High in protein and low in fat, perfect for muscle recovery.",
		Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6,
		ImageURI: "https://images.unsplash.com/photo-1532550907401-a500c9a57435" + unsplashParams,
	},
	{
		ID:       "2",
		FoodName: "Brown Rice Bowl",
		Reason:   "Complex carbohydrates provide sustained energy throughout the day.",
		Calories: 216, Protein: 5, Carbs: 45, Fat: 1.8,
		ImageURI: "https://images.unsplash.com/photo-1536304993881-ff6e9eefa2a6" + unsplashParams,
	},
	{
		ID:       "3",
		FoodName: "Avocado Salad",
		Reason:   "Rich in healthy fats and fiber to keep you feeling full longer.",
		Calories: 234, Protein: 3, Carbs: 12, Fat: 21,
		ImageURI: "https://images.unsplash.com/photo-1512621776951-a57141f2eefd" + unsplashParams,
	},
	{
		ID:       "4",
		FoodName: "Salmon Fillet",
		Reason:   "Excellent source of omega-3 fatty acids and high-quality protein.",
		Calories: 367, Protein: 40, Carbs: 0, Fat: 22,
		ImageURI: "https://images.unsplash.com/photo-1519708227418-c8fd9a32b7a2" + unsplashParams,
	},
	{
		ID:       "5",
		FoodName: "Greek Yogurt with Berries",
		Reason:   "Probiotics for gut health plus antioxidants from the berries.",
		Calories: 150, Protein: 15, Carbs: 20, Fat: 0.5,
		ImageURI: "https://images.unsplash.com/photo-1488477181946-6428a0291777" + unsplashParams,
	},
}

// DefaultRecommendations is the fixed list served whenever the completion
// service cannot produce one. Callers get their own copy.
func DefaultRecommendations() []models.Recommendation {
	return cloneRecommendations(defaultRecommendations)
}
