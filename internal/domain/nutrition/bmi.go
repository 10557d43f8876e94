package nutrition

import "math"

// BMI categories (WHO adult cut-offs).
const (
	BMIUnderweight = "underweight"
	BMINormal      = "normal"
	BMIOverweight  = "overweight"
	BMIObese       = "obese"
)

// BMIResult is a body mass index rounded to one decimal and its category.
type BMIResult struct {
	BMI      float64 `json:"bmi"`
	Category string  `json:"category"`
}

// ComputeBMI returns weight / height² for weight in kg and height in cm.
func ComputeBMI(weightKg, heightCm float64) (BMIResult, error) {
	if !positiveFinite(weightKg) || !positiveFinite(heightCm) {
		return BMIResult{}, invalidRequest("bmi", "weight_kg and height_cm must be positive numbers")
	}
	m := heightCm / 100
	bmi := round1(weightKg / (m * m))
	if !positiveFinite(bmi) {
		return BMIResult{}, invalidRequest("bmi", "weight_kg and height_cm are out of range")
	}
	return BMIResult{BMI: bmi, Category: bmiCategory(bmi)}, nil
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
