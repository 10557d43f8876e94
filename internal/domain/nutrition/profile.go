// Package nutrition resolves foods, meal photos and free-text questions into
// nutrient data. Structured lookups are preferred, generative estimates are
// the fallback, and every numeric result passes through one scaling and
// rounding discipline before it leaves the package.
package nutrition

import (
	"math"
	"strconv"
	"strings"
)

// ReferenceGrams is the mass every unscaled profile refers to.
const ReferenceGrams = 100.0

// NutrientProfile holds the five tracked nutrients. Calories are kcal, the
// rest are grams. Unless scaled, values are per ReferenceGrams.
type NutrientProfile struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Sanitize replaces negative, NaN and infinite values with 0.
func (p NutrientProfile) Sanitize() NutrientProfile {
	return NutrientProfile{
		Calories: nonNegative(p.Calories),
		Protein:  nonNegative(p.Protein),
		Carbs:    nonNegative(p.Carbs),
		Fat:      nonNegative(p.Fat),
		Fiber:    nonNegative(p.Fiber),
	}
}

// Round rounds every field to one decimal place.
func (p NutrientProfile) Round() NutrientProfile {
	return NutrientProfile{
		Calories: round1(p.Calories),
		Protein:  round1(p.Protein),
		Carbs:    round1(p.Carbs),
		Fat:      round1(p.Fat),
		Fiber:    round1(p.Fiber),
	}
}

// Scale converts a per-100 g profile to weightGrams, sanitized and rounded
// to one decimal. Invalid weights fall back to 100 g.
func (p NutrientProfile) Scale(weightGrams float64) NutrientProfile {
	f := NormalizeWeight(weightGrams) / ReferenceGrams
	s := p.Sanitize()
	return NutrientProfile{
		Calories: round1(s.Calories * f),
		Protein:  round1(s.Protein * f),
		Carbs:    round1(s.Carbs * f),
		Fat:      round1(s.Fat * f),
		Fiber:    round1(s.Fiber * f),
	}.Sanitize()
}

// Add returns the field-wise sum.
func (p NutrientProfile) Add(o NutrientProfile) NutrientProfile {
	return NutrientProfile{
		Calories: p.Calories + o.Calories,
		Protein:  p.Protein + o.Protein,
		Carbs:    p.Carbs + o.Carbs,
		Fat:      p.Fat + o.Fat,
		Fiber:    p.Fiber + o.Fiber,
	}
}

// Sum adds sanitized profiles.
func Sum(ps ...NutrientProfile) NutrientProfile {
	var total NutrientProfile
	for _, p := range ps {
		total = total.Add(p.Sanitize())
	}
	return total
}

// ProfileDelta is a signed, field-wise difference between two profiles.
type ProfileDelta struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Diff returns p minus o, rounded to one decimal.
func (p NutrientProfile) Diff(o NutrientProfile) ProfileDelta {
	return ProfileDelta{
		Calories: round1(p.Calories - o.Calories),
		Protein:  round1(p.Protein - o.Protein),
		Carbs:    round1(p.Carbs - o.Carbs),
		Fat:      round1(p.Fat - o.Fat),
		Fiber:    round1(p.Fiber - o.Fiber),
	}
}

// NormalizeWeight returns w when it is a positive finite number and
// ReferenceGrams otherwise.
func NormalizeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return ReferenceGrams
	}
	return w
}

// ParseWeight parses a gram amount as sent by clients ("200", " 150.5 ").
// Empty or non-numeric input yields ReferenceGrams.
func ParseWeight(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return ReferenceGrams
	}
	return NormalizeWeight(v)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
