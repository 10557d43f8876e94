package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type nutritionServiceStub struct {
	mu    sync.Mutex
	calls int
	food  nutrition.FoodQuery
	image nutrition.ImageQuery
	chat  nutrition.ChatQuery
	err   error
}

func (s *nutritionServiceStub) record() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *nutritionServiceStub) ResolveFood(_ context.Context, q nutrition.FoodQuery) (nutrition.FoodResolution, error) {
	s.record()
	s.food = q
	if s.err != nil {
		return nutrition.FoodResolution{}, s.err
	}
	base := nutrition.NutrientProfile{Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2, Fiber: 2.4}
	return nutrition.FoodResolution{Nutrition: base.Scale(q.WeightGrams), Source: nutrition.SourceLookup}, nil
}

func (s *nutritionServiceStub) AnalyzeImage(_ context.Context, q nutrition.ImageQuery) (nutrition.ImageResolution, error) {
	s.record()
	s.image = q
	if s.err != nil {
		return nutrition.ImageResolution{}, s.err
	}
	return nutrition.ImageResolution{
		ImageAnalysis: nutrition.ImageAnalysis{
			IdentifiedFoods: []string{"rice", "chicken"},
			Nutrition:       nutrition.NutrientProfile{Calories: 420, Protein: 30, Carbs: 45, Fat: 9, Fiber: 2},
		},
		Source: nutrition.SourceVision,
	}, nil
}

func (s *nutritionServiceStub) Chat(_ context.Context, q nutrition.ChatQuery) (nutrition.ChatReply, error) {
	s.record()
	s.chat = q
	if s.err != nil {
		return nutrition.ChatReply{}, s.err
	}
	return nutrition.ChatReply{Text: "Eat more greens 🥦", Source: nutrition.SourceModel}, nil
}

func (s *nutritionServiceStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func postNutrition(t *testing.T, h *NutritionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nutrition", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Resolve(rr, req)
	return rr
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%q)", err, rr.Body.String())
	}
	return body["error"]
}

// ===== food =====

func TestNutritionHandler_Resolve_FoodApple200g(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{}
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"food","message":"Apple","weight":"200"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var got nutrition.NutrientProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := nutrition.NutrientProfile{Calories: 104, Protein: 0.6, Carbs: 28, Fat: 0.4, Fiber: 4.8}
	if got != want {
		t.Fatalf("profile = %+v; want %+v", got, want)
	}
	if src := rr.Header().Get(HeaderSource); src != "lookup" {
		t.Fatalf("expected source header lookup, got %q", src)
	}
	if svc.food.Name != "Apple" || svc.food.WeightGrams != 200 {
		t.Fatalf("unexpected query %+v", svc.food)
	}
}

func TestNutritionHandler_Resolve_FoodNumericWeight(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{}
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"food","message":"apple","weight":150.5}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if svc.food.WeightGrams != 150.5 {
		t.Fatalf("expected weight 150.5, got %v", svc.food.WeightGrams)
	}
}

func TestNutritionHandler_Resolve_FoodWeightDefaults(t *testing.T) {
	t.Parallel()

	for _, weight := range []string{``, `,"weight":null`, `,"weight":""`, `,"weight":"abc"`, `,"weight":-5`, `,"weight":0`, `,"weight":true`} {
		svc := &nutritionServiceStub{}
		rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"food","message":"apple"`+weight+`}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("weight %q: expected 200, got %d", weight, rr.Code)
		}
		if svc.food.WeightGrams != nutrition.ReferenceGrams {
			t.Fatalf("weight %q: expected default 100, got %v", weight, svc.food.WeightGrams)
		}
	}
}

// ===== validation =====

func TestNutritionHandler_Resolve_UnsupportedTypeMakesNoUpstreamCall(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{}
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"banana-split"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if msg := decodeErrorBody(t, rr); msg != "unsupported request type: banana-split" {
		t.Fatalf("unexpected error %q", msg)
	}
	if svc.Calls() != 0 {
		t.Fatalf("expected no service calls, got %d", svc.Calls())
	}
}

func TestNutritionHandler_Resolve_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"invalid json", `{"type":`, http.StatusBadRequest, "invalid request body"},
		{"missing type", `{"message":"apple"}`, http.StatusBadRequest, "unsupported request type: "},
		{"missing message", `{"type":"food"}`, http.StatusBadRequest, "message is required"},
		{"blank message", `{"type":"chat","message":"   "}`, http.StatusBadRequest, "message is required"},
		{"bad image", `{"type":"image","message":"not an image"}`, http.StatusBadRequest, "invalid image payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &nutritionServiceStub{}
			rr := postNutrition(t, NewNutritionHandler(svc, 0), tc.body)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if msg := decodeErrorBody(t, rr); msg != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, msg)
			}
			if svc.Calls() != 0 {
				t.Fatalf("expected no service calls, got %d", svc.Calls())
			}
		})
	}
}

func TestNutritionHandler_Resolve_BodyTooLarge(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{}
	body := `{"type":"chat","message":"` + strings.Repeat("a", 256) + `"}`
	rr := postNutrition(t, NewNutritionHandler(svc, 64), body)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if msg := decodeErrorBody(t, rr); msg != "request body too large" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestNutritionHandler_Resolve_DomainInvalidRequestIs400(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{err: nutrition.NewError(nutrition.KindInvalidRequest, "resolve.food", errors.New("food name is required"))}
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"food","message":"x"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if msg := decodeErrorBody(t, rr); msg != "food name is required" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestNutritionHandler_Resolve_UnexpectedErrorIs500Envelope(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{err: errors.New("boom")}
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"chat","message":"hi"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if msg := decodeErrorBody(t, rr); msg != "nutrition request failed" {
		t.Fatalf("unexpected error %q", msg)
	}
}

// ===== image + chat =====

func TestNutritionHandler_Resolve_ImageDataURI(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{}
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"image","message":"`+payload+`","weight":"350"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var got nutrition.ImageAnalysis
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.IdentifiedFoods) != 2 || got.Nutrition.Calories != 420 {
		t.Fatalf("unexpected analysis %+v", got)
	}
	if !strings.Contains(rr.Body.String(), `"identified_foods"`) {
		t.Fatalf("expected identified_foods key, got %s", rr.Body.String())
	}
	if svc.image.MIMEType != "image/png" || svc.image.WeightGrams != 350 {
		t.Fatalf("unexpected query mime=%q weight=%v", svc.image.MIMEType, svc.image.WeightGrams)
	}
	if src := rr.Header().Get(HeaderSource); src != "vision" {
		t.Fatalf("expected source header vision, got %q", src)
	}
}

func TestNutritionHandler_Resolve_ChatReturnsJSONString(t *testing.T) {
	t.Parallel()

	svc := &nutritionServiceStub{}
	rr := postNutrition(t, NewNutritionHandler(svc, 0), `{"type":"chat","message":"what about greens?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var text string
	if err := json.Unmarshal(rr.Body.Bytes(), &text); err != nil {
		t.Fatalf("chat body is not a JSON string: %v", err)
	}
	if text != "Eat more greens 🥦" {
		t.Fatalf("unexpected reply %q", text)
	}
	if svc.chat.Message != "what about greens?" {
		t.Fatalf("unexpected chat query %+v", svc.chat)
	}
}
