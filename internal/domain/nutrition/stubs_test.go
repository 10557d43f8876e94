package nutrition

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/llm"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/logging"
)

var errUnreachable = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

// stubLLM records calls and answers through respond. A nil respond behaves
// like an unreachable model; hang makes every call wait for its context.
type stubLLM struct {
	mu      sync.Mutex
	calls   int
	reqs    []llm.ChatRequest
	respond func(call int, req llm.ChatRequest) (*llm.ChatResponse, error)
	hang    bool
}

func (s *stubLLM) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.hang {
		return nil, waitForDeadline(ctx)
	}
	if s.respond == nil {
		return nil, errUnreachable
	}
	return s.respond(n, req)
}

func (s *stubLLM) ModelInfo() llm.ModelMeta            { return llm.ModelMeta{ID: "stub", Provider: "stub"} }
func (s *stubLLM) HealthCheck(_ context.Context) error { return nil }

func (s *stubLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func reply(text string) func(int, llm.ChatRequest) (*llm.ChatResponse, error) {
	return func(int, llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: text}, nil
	}
}

// stubComposition serves a fixed table; err, when set, fails every call
// and hang makes every call wait for its context.
type stubComposition struct {
	mu    sync.Mutex
	calls int
	table map[string]*LookupResult
	err   error
	hang  bool
}

func (s *stubComposition) Name() string { return "stub" }

func (s *stubComposition) Lookup(ctx context.Context, food string) (*LookupResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.hang {
		return nil, waitForDeadline(ctx)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.table[strings.ToLower(food)], nil
}

func (s *stubComposition) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// countingRecorder counts resolutions per pipeline/source.
type countingRecorder struct {
	mu          sync.Mutex
	resolutions map[string]int
	upstream    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{resolutions: map[string]int{}, upstream: map[string]int{}}
}

func (c *countingRecorder) ObserveUpstream(upstream, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upstream[upstream+"/"+outcome]++
}

func (c *countingRecorder) ObserveResolution(pipeline, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolutions[pipeline+"/"+source]++
}

var appleRecord = &LookupResult{
	Description: "Apples, raw, with skin",
	Profile:     NutrientProfile{Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2, Fiber: 2.4},
}

// hangLimit caps how long a hanging stub waits when no deadline arrives.
const hangLimit = 5 * time.Second

func waitForDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(hangLimit):
		return errors.New("stub: no deadline reached the upstream call")
	}
}

func testOptions() Options {
	return Options{Timeout: time.Second, RetryBackoff: time.Millisecond, Logger: logging.Discard()}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func assertProfile(t *testing.T, got, want NutrientProfile) {
	t.Helper()
	const tol = 1e-9
	if !approxEqual(got.Calories, want.Calories, tol) ||
		!approxEqual(got.Protein, want.Protein, tol) ||
		!approxEqual(got.Carbs, want.Carbs, tol) ||
		!approxEqual(got.Fat, want.Fat, tol) ||
		!approxEqual(got.Fiber, want.Fiber, tol) {
		t.Fatalf("profile = %+v; want %+v", got, want)
	}
}

func assertNonNegative(t *testing.T, p NutrientProfile) {
	t.Helper()
	for _, v := range []float64{p.Calories, p.Protein, p.Carbs, p.Fat, p.Fiber} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("profile has invalid field: %+v", p)
		}
	}
}
