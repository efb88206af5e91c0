// Package transition implements the Transition Planner (C6): for each
// adjacent pair in an ordered plan, it picks a transition style, snaps cue
// points to phrase boundaries, and emits a deterministic transition spec.
package transition

import (
	"fmt"
	"math"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/camelot"
	"github.com/vividhyeok/mixplan/internal/config"
)

// Style is one of the transition styles the planner can select.
type Style string

const (
	StyleQuickCut           Style = "quick_cut"
	StyleLinearBlend        Style = "linear_blend"
	StyleExponentialBlend   Style = "exponential_blend"
	StyleEQSwap             Style = "eq_swap"
	StyleFilterSweep        Style = "filter_sweep"
	StyleEchoOut            Style = "echo_out"
)

// Difficulty classifies how forgiving a transition (or a whole plan) is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Pair is the minimal per-track view the planner needs about each side of
// a transition.
type Pair struct {
	Key          string
	BPM          float64
	MixOutPoint  float64 // "from" side only
	Duration     float64 // "from" side only
	IntroEnd     float64 // "to" side only
	MixInPoint   float64 // "to" side only
	Hints        analysis.TransitionHints
	Segments     []analysis.Segment
	BeatTimes    []float64
}

// Transition is the §3/§6 Transition record.
type Transition struct {
	FromIdx       int
	ToIdx         int
	Style         Style
	FromCueSec    float64
	ToCueSec      float64
	DurationSec   float64
	HarmonicScore int
	BPMDelta      float64
	EnergyDelta   float64
	Notes         []string
}

func segmentKindAt(segs []analysis.Segment, t float64) analysis.SegmentKind {
	for _, s := range segs {
		if t >= s.StartSec && t < s.EndSec {
			return s.Kind
		}
	}
	return analysis.KindUnknown
}

// avoidVocalCue nudges a cue point off a heavy-vocal segment (supplemented
// feature: the teacher's pickSegment skips vocal-heavy regions). If t
// lands in a segment whose VocalEnergy exceeds threshold, it moves to
// that segment's nearer boundary; segments with no vocal data (zero
// value) are left alone.
func avoidVocalCue(t float64, segs []analysis.Segment, threshold float64) float64 {
	for _, s := range segs {
		if t < s.StartSec || t >= s.EndSec || s.VocalEnergy <= threshold {
			continue
		}
		if t-s.StartSec <= s.EndSec-t {
			return s.StartSec
		}
		return s.EndSec
	}
	return t
}

// selectStyle picks a style per the §4.6 decision table, evaluated in
// order (first match wins). The eq_swap branch needs "from has a clean
// outro and to's intro ends cleanly"; to.Hints carries no direct intro-
// cleanliness field, so it reuses to.Hints.PreferredInType == "eq_swap",
// the default that mixpoints.deriveTransitionHints only overrides to
// "filter_sweep" when to's first post-intro segment is a buildup.
func selectStyle(from, to Pair, harmonic int) Style {
	fromOutroKind := segmentKindAt(from.Segments, from.MixOutPoint)
	toIntroKind := segmentKindAt(to.Segments, to.MixInPoint)

	switch {
	case fromOutroKind == analysis.KindDrop && toIntroKind == analysis.KindDrop:
		return StyleQuickCut
	case from.Hints.HasCleanOutro && to.Hints.PreferredInType == "eq_swap":
		return StyleEQSwap
	case toIntroKind == analysis.KindBuildup || to.Hints.PreferredInType == "filter_sweep":
		return StyleFilterSweep
	case harmonic >= 85 && from.BPM > 0 && to.BPM > 0 && math.Abs(from.BPM-to.BPM) <= 6:
		return StyleExponentialBlend
	default:
		return StyleLinearBlend
	}
}

// crossfadeBars picks the starting bar count for a style, before the
// quick_cut/exponential_blend adjustments.
func crossfadeBars(style Style, idealBars int) int {
	switch style {
	case StyleQuickCut:
		return idealBars // shortened to a time cap below, not a bar cap
	case StyleExponentialBlend:
		if idealBars < 32 {
			return 32
		}
		return idealBars
	default:
		return idealBars
	}
}

func barsToSeconds(bars int, bpm float64) float64 {
	if bpm <= 0 {
		bpm = 120
	}
	return float64(bars) * 4 * 60 / bpm
}

func snapToNearestBeat(t float64, beats []float64, tolerance float64) float64 {
	if len(beats) == 0 {
		return t
	}
	best := beats[0]
	bestDist := math.Abs(t - best)
	for _, b := range beats[1:] {
		d := math.Abs(t - b)
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	if bestDist <= tolerance {
		return best
	}
	return t
}

// Plan builds the Transition record for one adjacent pair, index fromIdx
// -> toIdx in the ordered plan. w supplies the operator-tunable phrase-snap
// tolerance and vocal-cue-avoidance threshold (config.DefaultWeights() if
// the caller has none).
func Plan(fromIdx, toIdx int, from, to Pair, w config.Weights) Transition {
	harmonic := camelot.CompatibilityScore(from.Key, to.Key)
	if from.Key == "" || to.Key == "" {
		harmonic = camelot.NeutralScore
	}
	bpmDelta := math.Abs(from.BPM - to.BPM)

	style := selectStyle(from, to, harmonic)

	bars := crossfadeBars(style, from.Hints.IdealCrossfadeBars)
	durationSec := barsToSeconds(bars, from.BPM)
	if style == StyleQuickCut && durationSec > 2 {
		durationSec = 2
	}

	fromCue := avoidVocalCue(from.MixOutPoint, from.Segments, w.VocalEnergyDisqualifyThresh)
	toCue := avoidVocalCue(to.MixInPoint, to.Segments, w.VocalEnergyDisqualifyThresh)

	var notes []string

	snappedFrom := snapToNearestBeat(fromCue, from.BeatTimes, w.PhraseSnapToleranceSec)
	snappedTo := snapToNearestBeat(toCue, to.BeatTimes, w.PhraseSnapToleranceSec)

	beatPeriod := 60.0 / 120.0
	if from.BPM > 0 {
		beatPeriod = 60.0 / from.BPM
	}
	adjustedDuration := durationSec + (snappedTo - toCue) - (snappedFrom - fromCue)
	if math.Abs(adjustedDuration-durationSec) > beatPeriod {
		notes = append(notes, fmt.Sprintf("duration adjusted from %.2fs to %.2fs to preserve snapped cues", durationSec, adjustedDuration))
		durationSec = adjustedDuration
	}
	fromCue, toCue = snappedFrom, snappedTo

	if bpmDelta > 6 {
		notes = append(notes, fmt.Sprintf("tempo-adjust directive: ramp to.bpm factor %.3f -> 1.0 over crossfade, then free-run; pitch-shift side effects expected", to.BPM/from.BPM))
	}

	energyDelta := 0.0 // populated by the caller, which knows both tracks' energy curves

	return Transition{
		FromIdx:       fromIdx,
		ToIdx:         toIdx,
		Style:         style,
		FromCueSec:    fromCue,
		ToCueSec:      toCue,
		DurationSec:   durationSec,
		HarmonicScore: harmonic,
		BPMDelta:      bpmDelta,
		EnergyDelta:   energyDelta,
		Notes:         notes,
	}
}

// OverallDifficulty classifies a single transition per §4.6.
func OverallDifficulty(t Transition) Difficulty {
	switch {
	case t.HarmonicScore >= 80 && t.BPMDelta <= 3:
		return DifficultyEasy
	case t.HarmonicScore < 60 || t.BPMDelta > 8:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// PlanDifficulty aggregates per-transition difficulty into the plan's
// overall difficulty by majority class; ties favor whichever class is
// checked first in easy/medium/hard order.
func PlanDifficulty(transitions []Transition) Difficulty {
	counts := map[Difficulty]int{}
	for _, t := range transitions {
		counts[OverallDifficulty(t)]++
	}
	best := DifficultyMedium
	bestCount := -1
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if counts[d] > bestCount {
			bestCount = counts[d]
			best = d
		}
	}
	return best
}
