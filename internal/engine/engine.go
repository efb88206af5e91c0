// Package engine implements the top-level plan(criteria, pool) orchestration
// (§5): it wires the Selection Scorer (C4), the Harmonic Ordering Engine
// (C5), the Beat & Segment Analyzer (C3, invoked lazily and cached), the
// Transition Planner (C6), and the Mix Recipe Emitter (C7) into one call.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/cache"
	"github.com/vividhyeok/mixplan/internal/config"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/obslog"
	"github.com/vividhyeok/mixplan/internal/ordering"
	"github.com/vividhyeok/mixplan/internal/recipe"
	"github.com/vividhyeok/mixplan/internal/selector"
	"github.com/vividhyeok/mixplan/internal/transition"
)

// Error kinds from §7. InvalidKey has no engine-level sentinel: it is
// handled locally inside camelot (neutral score 50) and never surfaces
// here.
var (
	ErrInsufficientPool = errors.New("engine: fewer than one track passed the selection floor")
	ErrCancelRequested  = errors.New("engine: plan cancelled")
)

// AnalyzeFunc resolves a track's AnalysisReport, decoding and running C3
// as needed. The engine calls this lazily, once per ordered track, and
// never in parallel with C4/C5/C6 (§5: those are sequential).
type AnalyzeFunc func(ctx context.Context, t selector.Candidate) (analysis.AnalysisReport, error)

// CachedAnalyzer wraps an AnalyzeFunc with a cache.Store lookup, keyed by
// (track id, analyzerVersion), so repeated plan calls over the same pool
// skip re-analysis of tracks already seen.
func CachedAnalyzer(store *cache.Store, analyzerVersion string, fallback AnalyzeFunc) AnalyzeFunc {
	return func(ctx context.Context, c selector.Candidate) (analysis.AnalysisReport, error) {
		if store != nil {
			if report, ok := store.Get(c.Track.ID, analyzerVersion); ok {
				obslog.Logf(obslog.StageCacheHit, "%s", c.Track.ID)
				return report, nil
			}
		}
		report, err := fallback(ctx, c)
		if err != nil {
			return report, err
		}
		if store != nil {
			if err := store.Put(c.Track.ID, analyzerVersion, report); err != nil {
				obslog.Warnf(obslog.StagePlanning, "cache put failed for %s: %v", c.Track.ID, err)
			}
		}
		return report, nil
	}
}

// Options configures one Plan call. Analyze may be nil, in which case
// tracks are planned from their catalog metadata alone (degraded
// transitions: no beat-snapped cues, no mix points beyond track bounds).
// Weights is nil unless the caller loaded an operator override via
// config.Load; a nil Weights plans with config.DefaultWeights().
type Options struct {
	Analyze       AnalyzeFunc
	Reporter      *obslog.Reporter
	RecentHistory map[string]bool
	Weights       *config.Weights
}

func (o Options) weights() config.Weights {
	if o.Weights != nil {
		return *o.Weights
	}
	return config.DefaultWeights()
}

// MixPlan is the engine's output: the ordered tracks, their transitions,
// and the renderer spec ready for C7 serialization.
type MixPlan struct {
	Tracks      []ordering.Item
	Transitions []transition.Transition
	Spec        recipe.RendererSpec
}

// Plan runs one full plan(criteria, pool) call (§2, §5). It validates
// criteria first (ConstraintInconsistent), runs C4 selection
// (InsufficientPool if nothing clears the floor), C5 ordering, lazy C3
// analysis per ordered track (AnalysisFailed is a per-track warning, never
// fatal), C6 transition planning, and C7 recipe assembly. ctx is checked
// at each component boundary (CancelRequested); partial results are
// discarded on cancellation.
func Plan(ctx context.Context, crit criteria.MixCriteria, pool []selector.Candidate, opts Options) (*MixPlan, error) {
	if err := criteria.Validate(crit); err != nil {
		opts.Reporter.Capture(obslog.StagePlanning, obslog.SeverityError, err)
		return nil, err
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	best, err := bestOfScenarios(ctx, crit, pool, opts)
	if err != nil {
		if errors.Is(err, ErrInsufficientPool) {
			opts.Reporter.Capture(obslog.StagePlanning, obslog.SeverityError, err)
		}
		return nil, err
	}
	return best, nil
}

// bestOfScenarios runs the deterministic pipeline EffectiveScenarios()
// times (supplemented feature: randomized-scenario search generalizing
// the teacher's simulate loop), varying only the jitter seed, and returns
// the plan with the lowest aggregate transition friction (lower harmonic-
// score deficit and BPM delta is better). One scenario (the default)
// always reproduces the plain §4.5 greedy pass.
func bestOfScenarios(ctx context.Context, crit criteria.MixCriteria, pool []selector.Candidate, opts Options) (*MixPlan, error) {
	scenarios := crit.EffectiveScenarios()
	var best *MixPlan
	bestCost := 0.0

	for i := 0; i < scenarios; i++ {
		scenarioCrit := crit
		scenarioCrit.Seed = crit.Seed + int64(i)

		plan, err := planOnce(ctx, scenarioCrit, pool, opts)
		if err != nil {
			return nil, err
		}
		cost := planCost(plan)
		if best == nil || cost < bestCost {
			best = plan
			bestCost = cost
		}
	}
	return best, nil
}

// planCost scores a finished plan by its transitions: every 10 points of
// missed harmonic compatibility (against a perfect 100) and every BPM of
// delta count as one unit of friction. Lower is better.
func planCost(p *MixPlan) float64 {
	cost := 0.0
	for _, t := range p.Transitions {
		cost += float64(100-t.HarmonicScore) / 10.0
		cost += t.BPMDelta
	}
	return cost
}

func planOnce(ctx context.Context, crit criteria.MixCriteria, pool []selector.Candidate, opts Options) (*MixPlan, error) {
	w := opts.weights()

	obslog.Logf(obslog.StageSelecting, "scoring %d candidates for a %d-track plan", len(pool), crit.TargetTrackCount)
	selected := selector.Select(pool, crit, opts.RecentHistory, w)
	if len(selected) == 0 {
		return nil, ErrInsufficientPool
	}
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	items := make([]ordering.Item, len(selected))
	byID := make(map[string]selector.Candidate, len(selected))
	for i, c := range selected {
		items[i] = ordering.Item{Track: c.Track, Analysis: c.Analysis}
		byID[c.Track.ID] = c
	}

	obslog.Logf(obslog.StageOrdering, "ordering %d tracks on curve %q", len(items), crit.EnergyCurveTag)
	ordered := ordering.Order(items, crit.EnergyCurveTag, w)
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	ordered = resolveAnalysis(ctx, ordered, byID, opts)
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	transitions := planTransitions(ordered, w)
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	spec := buildRecipe(ordered, transitions)
	return &MixPlan{Tracks: ordered, Transitions: transitions, Spec: spec}, nil
}

// resolveAnalysis fills in each ordered item's AnalysisReport via
// opts.Analyze, in ordering position (not pool order), matching the data
// flow: C3 runs after C5 has fixed the sequence. A failed analysis is
// AnalysisFailed: it is logged and reported as a warning, and the item
// proceeds with no analysis, same as the ordering stage already treats a
// missing report (§7: "treats a missing AnalysisReport as if all its
// optional fields were absent").
func resolveAnalysis(ctx context.Context, ordered []ordering.Item, byID map[string]selector.Candidate, opts Options) []ordering.Item {
	if opts.Analyze == nil {
		return ordered
	}
	out := make([]ordering.Item, len(ordered))
	for i, it := range ordered {
		out[i] = it
		if it.Analysis != nil {
			continue
		}
		c := byID[it.Track.ID]
		report, err := opts.Analyze(ctx, c)
		if err != nil {
			obslog.Warnf(obslog.StageAnalyzing, "analysis failed for %s: %v", it.Track.ID, err)
			opts.Reporter.Capture(obslog.StageAnalyzing, obslog.SeverityWarning, err)
			continue
		}
		out[i].Analysis = &report
	}
	return out
}

// planTransitions runs C6 over every adjacent pair in the ordered plan
// (§4.6, invariant 2: exactly N-1 transitions for an N-track plan).
func planTransitions(ordered []ordering.Item, w config.Weights) []transition.Transition {
	if len(ordered) < 2 {
		return nil
	}
	pairs := make([]transition.Pair, len(ordered))
	for i, it := range ordered {
		pairs[i] = pairFromItem(it)
	}
	out := make([]transition.Transition, 0, len(ordered)-1)
	for i := 0; i < len(ordered)-1; i++ {
		t := transition.Plan(i, i+1, pairs[i], pairs[i+1], w)
		t.EnergyDelta = itemEnergy(ordered[i+1]) - itemEnergy(ordered[i])
		out = append(out, t)
	}
	return out
}

// itemEnergy resolves a track's energy for the EnergyDelta the transition
// planner leaves to its caller (Plan only knows cue points and tempo).
func itemEnergy(it ordering.Item) float64 {
	e := it.Track.EffectiveEnergy(0)
	if e >= 0 {
		return e
	}
	if it.Analysis != nil && len(it.Analysis.EnergyCurve) > 0 {
		sum := 0.0
		for _, v := range it.Analysis.EnergyCurve {
			sum += v
		}
		return sum / float64(len(it.Analysis.EnergyCurve))
	}
	return 0.5
}

// pairFromItem builds a transition.Pair from whatever is known about a
// track: the analyzer's beat-aligned mix points when present, or the
// track's catalog-only bounds (whole-track fallback) when it analyzed as
// degraded or was never analyzed at all.
func pairFromItem(it ordering.Item) transition.Pair {
	t := it.Track
	duration := t.DurationSeconds()
	p := transition.Pair{
		Key:         t.CamelotKey,
		BPM:         t.BPM,
		MixOutPoint: duration,
		Duration:    duration,
		IntroEnd:    0,
		MixInPoint:  0,
	}
	a := it.Analysis
	if a == nil {
		return p
	}
	if p.Key == "" {
		p.Key = a.CamelotKey
	}
	if p.BPM <= 0 {
		p.BPM = a.BPM
	}
	if len(a.BeatTimes) > 0 {
		p.MixOutPoint = a.MixPoints.MixOutPoint
		p.IntroEnd = a.MixPoints.IntroEnd
		p.MixInPoint = a.MixPoints.MixInPoint
	}
	p.Hints = a.Hints
	p.Segments = a.Segments
	p.BeatTimes = a.BeatTimes
	return p
}

// buildRecipe assembles the C7 renderer spec from the ordered tracks and
// their planned transitions, including the supplemented per-track gain
// note and the plan's aggregate energy arc.
func buildRecipe(ordered []ordering.Item, transitions []transition.Transition) recipe.RendererSpec {
	tracks := make([]recipe.RecipeTrack, len(ordered))
	energyArc := make([]float64, len(ordered))
	total := 0.0
	for i, it := range ordered {
		t := it.Track
		rt := recipe.RecipeTrack{
			ID:          t.ID,
			URI:         t.SourceURI,
			Title:       t.Title,
			Artist:      t.PrimaryArtist(),
			DurationSec: t.DurationSeconds(),
			CamelotKey:  t.CamelotKey,
			BPM:         t.BPM,
		}
		energy := t.EffectiveEnergy(0)
		if it.Analysis != nil {
			rt.GainDb = recipe.GainDb(it.Analysis.LoudnessDB)
			if rt.CamelotKey == "" {
				rt.CamelotKey = it.Analysis.CamelotKey
			}
			if rt.BPM <= 0 {
				rt.BPM = it.Analysis.BPM
			}
		}
		if energy < 0 {
			energy = 0.5
		}
		energyArc[i] = energy

		if i < len(transitions) {
			rt.MixOutSec = transitions[i].FromCueSec
		}
		if i > 0 {
			rt.MixInSec = transitions[i-1].ToCueSec
		}
		tracks[i] = rt
		total += t.DurationSeconds()
	}
	for _, tr := range transitions {
		total -= tr.DurationSec
	}
	return recipe.Build(tracks, transitions, energyArc, total)
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelRequested, ctx.Err())
	default:
		return nil
	}
}
