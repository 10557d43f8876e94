package nutrition

import (
	"context"
	"strings"

	"github.com/apex/log"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/llm"
)

// DefaultEstimate is returned per 100 g when a text estimate cannot be obtained.
var DefaultEstimate = NutrientProfile{Calories: 100, Protein: 5, Carbs: 15, Fat: 3, Fiber: 2}

// TextEstimator asks a generative model for the per-100 g profile of a food name.
type TextEstimator struct {
	llm  llm.LLMProvider
	opts Options
}

func NewTextEstimator(provider llm.LLMProvider, opts Options) *TextEstimator {
	return &TextEstimator{llm: provider, opts: opts.withDefaults()}
}

// Estimate never fails: on any upstream or parse failure it returns
// DefaultEstimate with SourceDefault.
func (e *TextEstimator) Estimate(ctx context.Context, food string) (NutrientProfile, Source) {
	text, err := e.opts.complete(ctx, e.llm, "estimate.food", llm.ChatRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: foodPrompt(food)}},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		JSON:        true,
	}, true)
	if err != nil {
		e.opts.logFailure(err, log.Fields{"food": food})
		return DefaultEstimate, SourceDefault
	}

	p, err := parseProfile(text)
	if err != nil {
		e.opts.logFailure(NewError(KindMalformedResponse, "estimate.food", err), log.Fields{"food": food})
		return DefaultEstimate, SourceDefault
	}
	return p, SourceEstimate
}

// parseProfile extracts a profile from model output. The object may be the
// profile itself or wrap it under "nutrition"; objects with neither are skipped.
func parseProfile(text string) (NutrientProfile, error) {
	m, err := extractObject(text, func(m map[string]any) bool {
		_, ok := profileOf(m)
		return ok
	})
	if err != nil {
		return NutrientProfile{}, err
	}
	p, _ := profileOf(m)
	return p, nil
}

func profileOf(m map[string]any) (NutrientProfile, bool) {
	if p, ok := profileFromMap(m); ok {
		return p, true
	}
	if inner, ok := m["nutrition"].(map[string]any); ok {
		return profileFromMap(inner)
	}
	return NutrientProfile{}, false
}

// cleanFoodName trims whitespace and surrounding quotes from a food name.
func cleanFoodName(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
