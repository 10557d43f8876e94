package nutrition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/matiasleandrokruk/nutrisense/internal/infra/retry"
)

// VisionStrategy selects how image totals are produced.
type VisionStrategy string

const (
	// StrategyDirect uses the vision model's totals.
	StrategyDirect VisionStrategy = "direct"
	// StrategyResolve re-resolves every identified food through the food pipeline.
	StrategyResolve VisionStrategy = "resolve"
)

// ParseVisionStrategy accepts "direct" and "resolve" (case-insensitive).
func ParseVisionStrategy(s string) (VisionStrategy, error) {
	switch VisionStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyDirect, "":
		return StrategyDirect, nil
	case StrategyResolve:
		return StrategyResolve, nil
	default:
		return "", NewError(KindConfiguration, "vision strategy", fmt.Errorf("unknown strategy %q", s))
	}
}

// maxFanOut caps concurrent per-food resolutions of one request.
const maxFanOut = 4

// Pipeline labels reported to the Recorder.
const (
	pipelineFood  = "food"
	pipelineImage = "image"
	pipelineChat  = "chat"
)

// Resolver reconciles composition lookups, model estimates and vision
// results into scaled profiles. It is safe for concurrent use.
type Resolver struct {
	composition CompositionSource
	estimator   *TextEstimator
	vision      *VisionEstimator
	advisor     *Advisor
	strategy    VisionStrategy
	opts        Options
}

// ResolverConfig wires a Resolver. Composition may be nil, in which case
// every food is estimated.
type ResolverConfig struct {
	Composition CompositionSource
	Estimator   *TextEstimator
	Vision      *VisionEstimator
	Advisor     *Advisor
	Strategy    VisionStrategy
	Options     Options
}

func NewResolver(cfg ResolverConfig) *Resolver {
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = StrategyDirect
	}
	return &Resolver{
		composition: cfg.Composition,
		estimator:   cfg.Estimator,
		vision:      cfg.Vision,
		advisor:     cfg.Advisor,
		strategy:    strategy,
		opts:        cfg.Options.withDefaults(),
	}
}

// ResolveFood returns the profile of q.Name scaled to q.WeightGrams. Only an
// empty name is an error.
func (r *Resolver) ResolveFood(ctx context.Context, q FoodQuery) (FoodResolution, error) {
	name := cleanFoodName(q.Name)
	if name == "" {
		return FoodResolution{}, invalidRequest("resolve.food", "food name is required")
	}

	base, src, matched := r.resolveBase(ctx, name)
	r.opts.Recorder.ObserveResolution(pipelineFood, string(src))
	return FoodResolution{Nutrition: base.Scale(q.WeightGrams), Source: src, Matched: matched}, nil
}

// resolveBase returns the unscaled per-100 g profile: lookup first,
// estimation only when the lookup yields nothing complete.
func (r *Resolver) resolveBase(ctx context.Context, name string) (NutrientProfile, Source, string) {
	if res := r.lookup(ctx, name); res != nil {
		return res.Profile.Sanitize(), SourceLookup, res.Description
	}
	p, src := r.estimator.Estimate(ctx, name)
	return p.Sanitize(), src, ""
}

// lookup queries the composition source with a single retry. Failures,
// misses and records with missing nutrients all return nil.
func (r *Resolver) lookup(ctx context.Context, name string) *LookupResult {
	if r.composition == nil {
		return nil
	}

	var res *LookupResult
	start := time.Now()
	err := retry.Do(ctx, retry.Once(r.opts.RetryBackoff), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()

		var err error
		res, err = r.composition.Lookup(callCtx, name)
		return err
	})

	upstream := "composition:" + r.composition.Name()
	fields := log.Fields{"food": name, "source": r.composition.Name()}
	switch {
	case err != nil:
		r.opts.Recorder.ObserveUpstream(upstream, outcomeOf(err), time.Since(start))
		r.opts.logFailure(NewError(KindUpstreamUnavailable, "lookup", err), fields)
		return nil
	case res == nil:
		r.opts.Recorder.ObserveUpstream(upstream, outcomeNoMatch, time.Since(start))
		r.opts.Logger.WithFields(fields).Debug("no composition match")
		return nil
	case !res.Complete():
		r.opts.Recorder.ObserveUpstream(upstream, outcomeOK, time.Since(start))
		fields["missing"] = strings.Join(res.Missing, ",")
		r.opts.Logger.WithFields(fields).Info("composition record incomplete, estimating")
		return nil
	}
	r.opts.Recorder.ObserveUpstream(upstream, outcomeOK, time.Since(start))
	return res
}

// AnalyzeImage identifies the foods in a meal photo and returns the
// nutrition for the whole weight. Empty image data is an error.
func (r *Resolver) AnalyzeImage(ctx context.Context, q ImageQuery) (ImageResolution, error) {
	if len(q.Data) == 0 {
		return ImageResolution{}, invalidRequest("resolve.image", "image data is required")
	}

	analysis, src := r.vision.Analyze(ctx, q)
	foods := resolvableFoods(analysis.IdentifiedFoods)
	if src == SourceDefault || r.strategy != StrategyResolve || len(foods) == 0 {
		analysis.Nutrition = analysis.Nutrition.Sanitize().Round()
		r.opts.Recorder.ObserveResolution(pipelineImage, string(src))
		return ImageResolution{ImageAnalysis: analysis, Source: src}, nil
	}

	total := r.resolveMeal(ctx, foods, q.WeightGrams)
	r.opts.Recorder.ObserveResolution(pipelineImage, string(SourceVisionLookup))
	return ImageResolution{
		ImageAnalysis: ImageAnalysis{IdentifiedFoods: foods, Nutrition: total},
		Source:        SourceVisionLookup,
	}, nil
}

// resolveMeal resolves every food concurrently, sums the per-100 g
// profiles and scales the sum so the meal weight is split evenly. foods
// must be non-empty and free of the unidentified marker.
func (r *Resolver) resolveMeal(ctx context.Context, foods []string, weightGrams float64) NutrientProfile {
	bases := make([]NutrientProfile, len(foods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanOut)
	for i, food := range foods {
		g.Go(func() error {
			bases[i], _, _ = r.resolveBase(gctx, food)
			return nil
		})
	}
	_ = g.Wait() // branches never fail; each degrades on its own

	share := NormalizeWeight(weightGrams) / float64(len(foods))
	return Sum(bases...).Scale(share)
}

// Chat returns the advisor's reply to the latest user message.
func (r *Resolver) Chat(ctx context.Context, q ChatQuery) (ChatReply, error) {
	msg := strings.TrimSpace(q.Message)
	if msg == "" {
		return ChatReply{}, invalidRequest("chat", "message is required")
	}
	text, src := r.advisor.Reply(ctx, msg)
	r.opts.Recorder.ObserveResolution(pipelineChat, string(src))
	return ChatReply{Text: text, Source: src}, nil
}

// Compare resolves two foods concurrently at the same weight.
func (r *Resolver) Compare(ctx context.Context, first, second string, weightGrams float64) (Comparison, error) {
	names := [2]string{cleanFoodName(first), cleanFoodName(second)}
	if names[0] == "" || names[1] == "" {
		return Comparison{}, invalidRequest("compare", "two food names are required")
	}

	var out [2]FoodResolution
	g, gctx := errgroup.WithContext(ctx)
	for i := range names {
		g.Go(func() error {
			res, err := r.ResolveFood(gctx, FoodQuery{Name: names[i], WeightGrams: weightGrams})
			out[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	return Comparison{
		First:      ComparedFood{Name: names[0], Nutrition: out[0].Nutrition, Source: out[0].Source},
		Second:     ComparedFood{Name: names[1], Nutrition: out[1].Nutrition, Source: out[1].Source},
		Difference: out[0].Nutrition.Diff(out[1].Nutrition),
	}, nil
}
