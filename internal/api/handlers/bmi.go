package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
)

type BMIHandler struct {
	maxBodyBytes int64
}

func NewBMIHandler(maxBodyBytes int64) *BMIHandler {
	return &BMIHandler{maxBodyBytes: maxBodyBytes}
}

type bmiRequest struct {
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
}

// Query handles GET /api/v1/bmi?weight_kg=&height_cm=.
func (h *BMIHandler) Query(w http.ResponseWriter, r *http.Request) {
	h.write(w, bmiRequest{
		WeightKg: queryFloat(r, "weight_kg"),
		HeightCm: queryFloat(r, "height_cm"),
	})
}

// Compute handles POST /api/v1/bmi.
func (h *BMIHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req bmiRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeRequestError(w, err, "bmi failed")
		return
	}
	h.write(w, req)
}

func (h *BMIHandler) write(w http.ResponseWriter, req bmiRequest) {
	res, err := nutrition.ComputeBMI(req.WeightKg, req.HeightCm)
	if err != nil {
		writeRequestError(w, err, "bmi failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
