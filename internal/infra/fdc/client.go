// Package fdc is a client for the USDA FoodData Central search API, used as
// the remote composition database. Only the five tracked nutrients are read.
package fdc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/retry"
)

// DefaultBaseURL is the public FoodData Central endpoint.
const DefaultBaseURL = "https://api.nal.usda.gov"

// dataTypes restricts search to generic foods; branded products carry
// per-serving labels and often omit fiber.
const dataTypes = "Foundation,SR Legacy,Survey (FNDDS)"

// Client implements nutrition.CompositionSource against FoodData Central.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client with a 30s client timeout. Per-call deadlines
// come from the caller's context.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Name() string { return "fdc" }

// ─── internal FDC JSON types ─────────────────────────────────────────────────

type searchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []food `json:"foods"`
}

type food struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	FoodNutrients []foodNutrient `json:"foodNutrients"`
}

type foodNutrient struct {
	NutrientID     int      `json:"nutrientId"`
	NutrientName   string   `json:"nutrientName"`
	NutrientNumber string   `json:"nutrientNumber"`
	UnitName       string   `json:"unitName"`
	Value          *float64 `json:"value"`
}

// ─── CompositionSource implementation ───────────────────────────────────────

// Lookup searches for the best match of name. It returns (nil, nil) when
// the search has no hits. Non-2xx answers are errors; client errors other
// than 429 are marked permanent so they are not retried.
func (c *Client) Lookup(ctx context.Context, name string) (*nutrition.LookupResult, error) {
	q := url.Values{}
	q.Set("query", name)
	q.Set("pageSize", "1")
	q.Set("dataType", dataTypes)
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fdc/v1/foods/search?"+q.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("fdc search: build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fdc search: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("fdc search: status %d", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("fdc search: decode: %w", err)
	}
	if len(out.Foods) == 0 {
		return nil, nil
	}

	f := out.Foods[0]
	profile, missing := extractProfile(f.FoodNutrients)
	return &nutrition.LookupResult{
		Description: f.Description,
		Profile:     profile,
		Missing:     missing,
	}, nil
}

// ─── nutrient mapping ────────────────────────────────────────────────────────

// trackedNutrient identifies one tracked nutrient. IDs are ordered by
// preference; energy prefers the classic 1008 over the Atwater variants.
type trackedNutrient struct {
	field   string
	ids     []int
	numbers []string
	unit    string // required unit when non-empty
}

var trackedNutrients = []trackedNutrient{
	{field: "calories", ids: []int{1008, 2047, 2048}, numbers: []string{"208", "957", "958"}, unit: "KCAL"},
	{field: "protein", ids: []int{1003}, numbers: []string{"203"}},
	{field: "carbs", ids: []int{1005}, numbers: []string{"205"}},
	{field: "fat", ids: []int{1004}, numbers: []string{"204"}},
	{field: "fiber", ids: []int{1079}, numbers: []string{"291"}},
}

// extractProfile reads the tracked nutrients, returning the names of those
// the record does not carry.
func extractProfile(nutrients []foodNutrient) (nutrition.NutrientProfile, []string) {
	values := make(map[string]float64, len(trackedNutrients))
	var missing []string
	for _, tn := range trackedNutrients {
		v, ok := tn.find(nutrients)
		if !ok {
			missing = append(missing, tn.field)
			continue
		}
		values[tn.field] = v
	}
	return nutrition.NutrientProfile{
		Calories: values["calories"],
		Protein:  values["protein"],
		Carbs:    values["carbs"],
		Fat:      values["fat"],
		Fiber:    values["fiber"],
	}.Sanitize(), missing
}

// find returns the value of the most preferred matching entry.
func (s trackedNutrient) find(nutrients []foodNutrient) (float64, bool) {
	best := -1
	var value float64
	for _, n := range nutrients {
		if n.Value == nil {
			continue
		}
		if s.unit != "" && !strings.EqualFold(n.UnitName, s.unit) {
			continue
		}
		rank := s.rank(n)
		if rank < 0 {
			continue
		}
		if best < 0 || rank < best {
			best, value = rank, *n.Value
		}
	}
	return value, best >= 0
}

// rank is the preference index of n for this nutrient, or -1.
func (s trackedNutrient) rank(n foodNutrient) int {
	for i, id := range s.ids {
		if n.NutrientID == id {
			return i
		}
	}
	for i, num := range s.numbers {
		if n.NutrientNumber == num {
			return i
		}
	}
	return -1
}
