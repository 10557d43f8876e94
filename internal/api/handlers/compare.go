package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

type CompareService interface {
	Compare(ctx context.Context, first, second string, weightGrams float64) (nutrition.Comparison, error)
}

type CompareHandler struct {
	service      CompareService
	maxBodyBytes int64
}

func NewCompareHandler(service CompareService, maxBodyBytes int64) *CompareHandler {
	return &CompareHandler{service: service, maxBodyBytes: maxBodyBytes}
}

type compareRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
	Weight Weight `json:"weight"`
}

// Compare handles POST /api/v1/compare.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeRequestError(w, err, "compare failed")
		return
	}
	first, second := strings.TrimSpace(req.First), strings.TrimSpace(req.Second)
	if first == "" || second == "" {
		writeError(w, http.StatusBadRequest, "first and second are required")
		return
	}

	cmp, err := h.service.Compare(r.Context(), first, second, req.Weight.Grams())
	if err != nil {
		writeRequestError(w, err, "compare failed")
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
