package nutrition

import (
	"context"
	"strings"

	"github.com/apex/log"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/llm"
)

// UnidentifiedFoods is the identified_foods value of the vision fallback.
const UnidentifiedFoods = "Unable to identify specific foods"

// DefaultMealEstimate is the nutrition of the vision fallback.
var DefaultMealEstimate = NutrientProfile{Calories: 250, Protein: 10, Carbs: 30, Fat: 8, Fiber: 4}

// VisionEstimator sends a meal photo to a vision-capable model. Its calls
// are never retried.
type VisionEstimator struct {
	llm   llm.LLMProvider
	model string
	opts  Options
}

// NewVisionEstimator builds a VisionEstimator; model overrides the
// provider default when non-empty.
func NewVisionEstimator(provider llm.LLMProvider, model string, opts Options) *VisionEstimator {
	return &VisionEstimator{llm: provider, model: model, opts: opts.withDefaults()}
}

// Analyze returns the identified foods and the nutrition for the whole meal
// weight. On failure it returns the fixed fallback with SourceDefault.
func (v *VisionEstimator) Analyze(ctx context.Context, q ImageQuery) (ImageAnalysis, Source) {
	weight := NormalizeWeight(q.WeightGrams)
	text, err := v.opts.complete(ctx, v.llm, "estimate.image", llm.ChatRequest{
		Model: v.model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: visionPrompt(weight),
			Images:  []llm.Image{{MIMEType: q.MIMEType, Data: q.Data}},
		}},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		JSON:        true,
	}, false)
	if err != nil {
		v.opts.logFailure(err, log.Fields{"bytes": len(q.Data)})
		return FallbackAnalysis(), SourceDefault
	}

	a, err := parseAnalysis(text)
	if err != nil {
		v.opts.logFailure(NewError(KindMalformedResponse, "estimate.image", err), nil)
		return FallbackAnalysis(), SourceDefault
	}
	return a, SourceVision
}

// FallbackAnalysis returns a fresh copy of the vision fallback.
func FallbackAnalysis() ImageAnalysis {
	return ImageAnalysis{
		IdentifiedFoods: []string{UnidentifiedFoods},
		Nutrition:       DefaultMealEstimate,
	}
}

// parseAnalysis extracts identified foods and nutrition. Foods may be
// strings or objects with a "name" field; the nutrition object is required,
// and objects without one are skipped.
func parseAnalysis(text string) (ImageAnalysis, error) {
	raw, err := extractObject(text, func(m map[string]any) bool {
		_, ok := mealNutrition(m)
		return ok
	})
	if err != nil {
		return ImageAnalysis{}, err
	}
	p, _ := mealNutrition(raw)

	foods := []string{}
	items, _ := firstValue(raw, "identified_foods", "foods", "items").([]any)
	for _, item := range items {
		var name string
		switch it := item.(type) {
		case string:
			name = it
		case map[string]any:
			name, _ = it["name"].(string)
		}
		if name = cleanFoodName(name); name != "" {
			foods = append(foods, name)
		}
	}
	return ImageAnalysis{IdentifiedFoods: foods, Nutrition: p}, nil
}

func mealNutrition(m map[string]any) (NutrientProfile, bool) {
	nm, ok := firstObject(m, "nutrition", "total_nutrition", "totals")
	if !ok {
		return NutrientProfile{}, false
	}
	return profileFromMap(nm)
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := lookupKey(m, k); ok {
			return v
		}
	}
	return nil
}

func firstObject(m map[string]any, keys ...string) (map[string]any, bool) {
	obj, ok := firstValue(m, keys...).(map[string]any)
	return obj, ok
}

// resolvableFoods drops the "unable to identify" marker so only real food
// names reach the lookup fan-out.
func resolvableFoods(foods []string) []string {
	out := make([]string, 0, len(foods))
	for _, f := range foods {
		if !strings.EqualFold(f, UnidentifiedFoods) {
			out = append(out, f)
		}
	}
	return out
}
