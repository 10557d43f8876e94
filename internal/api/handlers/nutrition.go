package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

// Request types accepted by the nutrition endpoint.
const (
	requestTypeFood  = "food"
	requestTypeImage = "image"
	requestTypeChat  = "chat"
)

// NutritionService resolves the three request types of the nutrition endpoint.
type NutritionService interface {
	ResolveFood(ctx context.Context, q nutrition.FoodQuery) (nutrition.FoodResolution, error)
	AnalyzeImage(ctx context.Context, q nutrition.ImageQuery) (nutrition.ImageResolution, error)
	Chat(ctx context.Context, q nutrition.ChatQuery) (nutrition.ChatReply, error)
}

type NutritionHandler struct {
	service      NutritionService
	maxBodyBytes int64
}

// NewNutritionHandler builds the handler. maxBodyBytes <= 0 disables the
// body size cap.
func NewNutritionHandler(service NutritionService, maxBodyBytes int64) *NutritionHandler {
	return &NutritionHandler{service: service, maxBodyBytes: maxBodyBytes}
}

type nutritionRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Weight  Weight `json:"weight"`
}

// nutritionInput is the validated form of a nutritionRequest; exactly one
// query is set.
type nutritionInput struct {
	food  *nutrition.FoodQuery
	image *nutrition.ImageQuery
	chat  *nutrition.ChatQuery
}

// Resolve handles POST /api/v1/nutrition.
func (h *NutritionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	in, err := h.buildNutritionInput(w, r)
	if err != nil {
		writeRequestError(w, err, "nutrition request failed")
		return
	}

	ctx := r.Context()
	switch {
	case in.food != nil:
		res, err := h.service.ResolveFood(ctx, *in.food)
		if err != nil {
			writeRequestError(w, err, "nutrition request failed")
			return
		}
		setSource(w, res.Source)
		writeJSON(w, http.StatusOK, res.Nutrition)
	case in.image != nil:
		res, err := h.service.AnalyzeImage(ctx, *in.image)
		if err != nil {
			writeRequestError(w, err, "nutrition request failed")
			return
		}
		setSource(w, res.Source)
		writeJSON(w, http.StatusOK, res.ImageAnalysis)
	default:
		reply, err := h.service.Chat(ctx, *in.chat)
		if err != nil {
			writeRequestError(w, err, "nutrition request failed")
			return
		}
		setSource(w, reply.Source)
		writeJSON(w, http.StatusOK, reply.Text)
	}
}

// buildNutritionInput validates the type before the message so that an
// unknown type is reported even when the message is also missing.
func (h *NutritionHandler) buildNutritionInput(w http.ResponseWriter, r *http.Request) (nutritionInput, error) {
	var req nutritionRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		return nutritionInput{}, err
	}

	switch req.Type {
	case requestTypeFood, requestTypeImage, requestTypeChat:
	default:
		return nutritionInput{}, badRequest("unsupported request type: " + req.Type)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nutritionInput{}, badRequest("message is required")
	}

	switch req.Type {
	case requestTypeFood:
		return nutritionInput{food: &nutrition.FoodQuery{
			Name:        strings.TrimSpace(req.Message),
			WeightGrams: req.Weight.Grams(),
		}}, nil
	case requestTypeImage:
		data, mimeType, err := nutrition.DecodeImage(req.Message)
		if err != nil {
			return nutritionInput{}, badRequest("invalid image payload")
		}
		return nutritionInput{image: &nutrition.ImageQuery{
			Data:        data,
			MIMEType:    mimeType,
			WeightGrams: req.Weight.Grams(),
		}}, nil
	default:
		return nutritionInput{chat: &nutrition.ChatQuery{Message: req.Message}}, nil
	}
}
