// Package mcptools exposes the nutrition operations as Model Context Protocol
// tools so that agents can call them without going through the REST surface.
package mcptools

import (
	"context"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

const serverName = "nutrisense"

// Service is the subset of nutrition.Resolver the tools need.
type Service interface {
	ResolveFood(ctx context.Context, q nutrition.FoodQuery) (nutrition.FoodResolution, error)
	AnalyzeImage(ctx context.Context, q nutrition.ImageQuery) (nutrition.ImageResolution, error)
	Chat(ctx context.Context, q nutrition.ChatQuery) (nutrition.ChatReply, error)
	Compare(ctx context.Context, first, second string, weightGrams float64) (nutrition.Comparison, error)
}

type LookupFoodInput struct {
	Food        string  `json:"food" jsonschema:"the food to look up, e.g. apple or grilled chicken"`
	WeightGrams float64 `json:"weight_grams,omitempty" jsonschema:"portion weight in grams; defaults to 100"`
}

type LookupFoodOutput struct {
	Food        string                    `json:"food"`
	WeightGrams float64                   `json:"weight_grams"`
	Source      string                    `json:"source"`
	Matched     string                    `json:"matched,omitempty"`
	Nutrition   nutrition.NutrientProfile `json:"nutrition"`
}

type AnalyzeMealImageInput struct {
	Image       string  `json:"image" jsonschema:"the meal photo as a base64 string or data URI"`
	WeightGrams float64 `json:"weight_grams,omitempty" jsonschema:"total meal weight in grams; defaults to 100"`
}

type AnalyzeMealImageOutput struct {
	IdentifiedFoods []string                  `json:"identified_foods"`
	Nutrition       nutrition.NutrientProfile `json:"nutrition"`
	Source          string                    `json:"source"`
}

type NutritionChatInput struct {
	Message string `json:"message" jsonschema:"the user's latest message to the nutrition advisor"`
}

type NutritionChatOutput struct {
	Reply  string `json:"reply"`
	Source string `json:"source"`
}

type CompareFoodsInput struct {
	First       string  `json:"first" jsonschema:"the first food"`
	Second      string  `json:"second" jsonschema:"the second food"`
	WeightGrams float64 `json:"weight_grams,omitempty" jsonschema:"portion weight in grams applied to both foods; defaults to 100"`
}

type ComputeBMIInput struct {
	WeightKg float64 `json:"weight_kg" jsonschema:"body weight in kilograms"`
	HeightCm float64 `json:"height_cm" jsonschema:"height in centimetres"`
}

// NewServer registers the nutrition tools on a new MCP server.
func NewServer(svc Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	t := &tools{svc: svc}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_food",
		Description: "Nutrition facts (calories, protein, carbs, fat, fiber) for a food at a given weight.",
	}, t.lookupFood)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_meal_image",
		Description: "Identify the foods in a meal photo and estimate its total nutrition.",
	}, t.analyzeMealImage)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "nutrition_chat",
		Description: "Ask the nutrition advisor a question.",
	}, t.nutritionChat)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare_foods",
		Description: "Compare the nutrition of two foods at the same weight.",
	}, t.compareFoods)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compute_bmi",
		Description: "Body mass index and WHO category for a weight and height.",
	}, t.computeBMI)

	return server
}

// NewHandler serves server over the streamable HTTP transport.
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

type tools struct {
	svc Service
}

func (t *tools) lookupFood(ctx context.Context, _ *mcp.CallToolRequest, in LookupFoodInput) (*mcp.CallToolResult, LookupFoodOutput, error) {
	weight := nutrition.NormalizeWeight(in.WeightGrams)
	res, err := t.svc.ResolveFood(ctx, nutrition.FoodQuery{Name: in.Food, WeightGrams: weight})
	if err != nil {
		return nil, LookupFoodOutput{}, err
	}
	return nil, LookupFoodOutput{
		Food:        strings.TrimSpace(in.Food),
		WeightGrams: weight,
		Source:      string(res.Source),
		Matched:     res.Matched,
		Nutrition:   res.Nutrition,
	}, nil
}

func (t *tools) analyzeMealImage(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeMealImageInput) (*mcp.CallToolResult, AnalyzeMealImageOutput, error) {
	data, mimeType, err := nutrition.DecodeImage(in.Image)
	if err != nil {
		return nil, AnalyzeMealImageOutput{}, err
	}
	res, err := t.svc.AnalyzeImage(ctx, nutrition.ImageQuery{
		Data:        data,
		MIMEType:    mimeType,
		WeightGrams: nutrition.NormalizeWeight(in.WeightGrams),
	})
	if err != nil {
		return nil, AnalyzeMealImageOutput{}, err
	}
	foods := res.IdentifiedFoods
	if foods == nil {
		foods = []string{}
	}
	return nil, AnalyzeMealImageOutput{
		IdentifiedFoods: foods,
		Nutrition:       res.Nutrition,
		Source:          string(res.Source),
	}, nil
}

func (t *tools) nutritionChat(ctx context.Context, _ *mcp.CallToolRequest, in NutritionChatInput) (*mcp.CallToolResult, NutritionChatOutput, error) {
	reply, err := t.svc.Chat(ctx, nutrition.ChatQuery{Message: in.Message})
	if err != nil {
		return nil, NutritionChatOutput{}, err
	}
	return nil, NutritionChatOutput{Reply: reply.Text, Source: string(reply.Source)}, nil
}

func (t *tools) compareFoods(ctx context.Context, _ *mcp.CallToolRequest, in CompareFoodsInput) (*mcp.CallToolResult, nutrition.Comparison, error) {
	cmp, err := t.svc.Compare(ctx, in.First, in.Second, nutrition.NormalizeWeight(in.WeightGrams))
	if err != nil {
		return nil, nutrition.Comparison{}, err
	}
	return nil, cmp, nil
}

func (t *tools) computeBMI(_ context.Context, _ *mcp.CallToolRequest, in ComputeBMIInput) (*mcp.CallToolResult, nutrition.BMIResult, error) {
	res, err := nutrition.ComputeBMI(in.WeightKg, in.HeightCm)
	if err != nil {
		return nil, nutrition.BMIResult{}, err
	}
	return nil, res, nil
}
