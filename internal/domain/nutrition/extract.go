package nutrition

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxCandidates bounds how many balanced objects ExtractJSON tries after
// the strict parse fails.
const maxCandidates = 4

// ExtractJSON decodes model output into v. It first parses the whole
// (trimmed) text strictly, then each balanced {...} object found in it, in
// order, up to maxCandidates. It returns ErrExtractionFailed when none decodes.
func ExtractJSON(text string, v any) error {
	return extract(text, func(raw []byte) bool {
		return json.Unmarshal(raw, v) == nil
	})
}

// extractObject walks the same candidates as ExtractJSON but only stops at
// an object accept agrees with, so a leading object without the wanted keys
// does not hide the one that has them.
func extractObject(text string, accept func(map[string]any) bool) (map[string]any, error) {
	var out map[string]any
	err := extract(text, func(raw []byte) bool {
		var m map[string]any
		if json.Unmarshal(raw, &m) != nil || m == nil || !accept(m) {
			return false
		}
		out = m
		return true
	})
	return out, err
}

func extract(text string, try func([]byte) bool) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrExtractionFailed
	}
	if try([]byte(trimmed)) {
		return nil
	}

	rest := trimmed
	for i := 0; i < maxCandidates; i++ {
		obj, next, ok := balancedObject(rest)
		if !ok {
			break
		}
		if try([]byte(obj)) {
			return nil
		}
		rest = next
	}
	return ErrExtractionFailed
}

// balancedObject returns the first brace-balanced object in s and the text
// after it. Braces inside JSON strings are ignored.
func balancedObject(s string) (obj, rest string, ok bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], s[i+1:], true
			}
		}
	}
	// Unbalanced: skip this opening brace and let the caller look further.
	return balancedObject(s[start+1:])
}

// nutrientKeys lists the accepted spellings per field, canonical first.
var nutrientKeys = struct {
	calories, protein, carbs, fat, fiber []string
}{
	calories: []string{"calories", "energy", "kcal"},
	protein:  []string{"protein", "proteins"},
	carbs:    []string{"carbs", "carbohydrates", "carbohydrate"},
	fat:      []string{"fat", "fats", "total_fat"},
	fiber:    []string{"fiber", "fibre", "dietary_fiber"},
}

// profileFromMap coerces a decoded JSON object into a sanitized profile.
// ok is false when none of the five nutrients is present.
func profileFromMap(m map[string]any) (NutrientProfile, bool) {
	found := 0
	pick := func(keys []string) float64 {
		for _, k := range keys {
			if raw, present := lookupKey(m, k); present {
				found++
				return coerceNumber(raw)
			}
		}
		return 0
	}
	p := NutrientProfile{
		Calories: pick(nutrientKeys.calories),
		Protein:  pick(nutrientKeys.protein),
		Carbs:    pick(nutrientKeys.carbs),
		Fat:      pick(nutrientKeys.fat),
		Fiber:    pick(nutrientKeys.fiber),
	}
	return p.Sanitize(), found > 0
}

// lookupKey matches keys case-insensitively.
func lookupKey(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// coerceNumber turns decoded JSON numbers and numeric strings ("52", "52 kcal",
// "0.3g") into float64. Anything else is 0.
func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return leadingNumber(n)
	default:
		return 0
	}
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || (end == 0 && s[end] == '-')) {
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}
