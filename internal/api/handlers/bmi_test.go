package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

func TestBMIHandler_Query_OK(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewBMIHandler(0).Query(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bmi?weight_kg=70&height_cm=175", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var got nutrition.BMIResult
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BMI != 22.9 || got.Category != nutrition.BMINormal {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestBMIHandler_Compute_OK(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bmi", strings.NewReader(`{"weight_kg":95,"height_cm":170}`))
	NewBMIHandler(0).Compute(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got nutrition.BMIResult
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != nutrition.BMIObese {
		t.Fatalf("expected obese, got %+v", got)
	}
}

func TestBMIHandler_InvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("missing query", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewBMIHandler(0).Query(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bmi?weight_kg=abc", nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("negative body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bmi", strings.NewReader(`{"weight_kg":-1,"height_cm":170}`))
		NewBMIHandler(0).Compute(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		if msg := decodeErrorBody(t, rr); !strings.Contains(msg, "weight_kg") {
			t.Fatalf("unexpected error %q", msg)
		}
	})

	t.Run("underflowing height", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewBMIHandler(0).Query(rr, httptest.NewRequest(http.MethodGet, "/api/v1/bmi?weight_kg=70&height_cm=1e-200", nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
		}
		if msg := decodeErrorBody(t, rr); !strings.Contains(msg, "out of range") {
			t.Fatalf("unexpected error %q", msg)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		NewBMIHandler(0).Compute(rr, httptest.NewRequest(http.MethodPost, "/api/v1/bmi", strings.NewReader(`{`)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}
