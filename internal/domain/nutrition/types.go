package nutrition

import "context"

// Source names the step that produced a resolution.
type Source string

const (
	SourceLookup       Source = "lookup"
	SourceEstimate     Source = "estimate"
	SourceVision       Source = "vision"
	SourceVisionLookup Source = "vision+lookup"
	SourceModel        Source = "model"
	SourceDefault      Source = "default"
)

// LookupResult is a composition-database match, per 100 g. Missing names the
// nutrients the record did not carry.
type LookupResult struct {
	Description string
	Profile     NutrientProfile
	Missing     []string
}

// Complete reports whether every nutrient was present.
func (r *LookupResult) Complete() bool {
	return r != nil && len(r.Missing) == 0
}

// CompositionSource is a structured nutrient database. Lookup returns
// (nil, nil) when nothing matches; errors are transport or upstream failures.
type CompositionSource interface {
	Lookup(ctx context.Context, food string) (*LookupResult, error)
	Name() string
}

// FoodQuery asks for one named food at a weight in grams.
type FoodQuery struct {
	Name        string
	WeightGrams float64
}

// FoodResolution is the scaled profile for a FoodQuery.
type FoodResolution struct {
	Nutrition NutrientProfile
	Source    Source
	// Matched is the composition record description when Source is lookup.
	Matched string
}

// ImageQuery asks for the foods and nutrition in a meal photo.
type ImageQuery struct {
	Data        []byte
	MIMEType    string
	WeightGrams float64
}

// ImageAnalysis is the wire shape of an image result.
type ImageAnalysis struct {
	IdentifiedFoods []string        `json:"identified_foods"`
	Nutrition       NutrientProfile `json:"nutrition"`
}

// ImageResolution is an ImageAnalysis plus the step that produced it.
type ImageResolution struct {
	ImageAnalysis
	Source Source
}

// ChatQuery is the latest user message of a conversation.
type ChatQuery struct {
	Message string
}

// ChatReply is the advisor's answer.
type ChatReply struct {
	Text   string
	Source Source
}

// ComparedFood is one side of a Comparison.
type ComparedFood struct {
	Name      string          `json:"name"`
	Nutrition NutrientProfile `json:"nutrition"`
	Source    Source          `json:"-"`
}

// Comparison holds two resolved foods and first minus second.
type Comparison struct {
	First      ComparedFood `json:"first"`
	Second     ComparedFood `json:"second"`
	Difference ProfileDelta `json:"difference"`
}
