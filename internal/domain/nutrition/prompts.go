package nutrition

import (
	"fmt"
	"strconv"
)

// Generation settings for every model call.
const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens           = 1000
)

const advisorInstruction = `You are a friendly nutrition doctor. Respond in a well-organized format using bullet points.
Use appropriate emojis to make the conversation engaging. Keep responses medium length and conversational.
Focus on providing practical nutrition advice and wellness tips.
If the question is not about food, nutrition or wellness, gently steer back to those topics.`

func foodPrompt(name string) string {
	return fmt.Sprintf(`For the given food item, provide accurate nutritional information per 100g in JSON format:
%s

Respond only with a JSON object in this format:
{
  "calories": number,
  "protein": number,
  "carbs": number,
  "fat": number,
  "fiber": number
}
Calories are kcal, the other values are grams. Use 0 for nutrients the food does not contain.`, strconv.Quote(name))
}

func visionPrompt(weightGrams float64) string {
	return fmt.Sprintf(`Analyze this image and identify the food items present.
The whole meal weighs about %s grams. Estimate the nutrition for that total weight.

Respond only with a JSON object in this format:
{
  "identified_foods": ["food name", ...],
  "nutrition": {
    "calories": number,
    "protein": number,
    "carbs": number,
    "fat": number,
    "fiber": number
  }
}
Calories are kcal, the other values are grams. Use short generic food names.`, strconv.FormatFloat(weightGrams, 'f', -1, 64))
}
