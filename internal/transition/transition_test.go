package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/config"
)

// S6: from.hasCleanOutro=true, to.intro -> buildup, compatibilityScore=90,
// |Δbpm|=2 -> style = filter_sweep (buildup rule dominates), duration
// computed from 32 bars at from.bpm.
func TestPlanScenarioS6(t *testing.T) {
	from := Pair{
		Key:         "8A",
		BPM:         124,
		MixOutPoint: 280,
		Duration:    300,
		Hints:       analysis.TransitionHints{HasCleanOutro: true, IdealCrossfadeBars: 32},
		Segments:    []analysis.Segment{{Kind: analysis.KindOutro, StartSec: 270, EndSec: 300}},
		BeatTimes:   []float64{280},
	}
	to := Pair{
		Key:        "8B",
		BPM:        126,
		IntroEnd:   10,
		MixInPoint: 12,
		Segments:   []analysis.Segment{{Kind: analysis.KindBuildup, StartSec: 0, EndSec: 20}},
		BeatTimes:  []float64{12},
	}

	tr := Plan(0, 1, from, to, config.DefaultWeights())
	assert.Equal(t, StyleFilterSweep, tr.Style)
	assert.Equal(t, 90, tr.HarmonicScore)
	assert.InDelta(t, 2.0, tr.BPMDelta, 1e-9)
	assert.InDelta(t, 32*4*60.0/124.0, tr.DurationSec, 0.01)
}

// eq_swap requires from.hasCleanOutro and to's intro to end cleanly; the
// latter is read off to.Hints.PreferredInType == "eq_swap" (the default,
// absent a buildup right after to's intro), not to.Hints.HasCleanOutro,
// which describes to's own outro and is irrelevant here.
func TestPlanScenarioEQSwap(t *testing.T) {
	from := Pair{
		Key: "8A", BPM: 124, MixOutPoint: 280, Duration: 300,
		Hints:     analysis.TransitionHints{HasCleanOutro: true, IdealCrossfadeBars: 32},
		Segments:  []analysis.Segment{{Kind: analysis.KindOutro, StartSec: 270, EndSec: 300}},
		BeatTimes: []float64{280},
	}
	to := Pair{
		Key: "8B", BPM: 124, IntroEnd: 10, MixInPoint: 12,
		Hints:     analysis.TransitionHints{PreferredInType: "eq_swap", HasCleanOutro: false},
		Segments:  []analysis.Segment{{Kind: analysis.KindVerse, StartSec: 0, EndSec: 20}},
		BeatTimes: []float64{12},
	}

	tr := Plan(0, 1, from, to, config.DefaultWeights())
	assert.Equal(t, StyleEQSwap, tr.Style)
}

// Even with from.hasCleanOutro, a to-track whose own outro happens to be
// clean (HasCleanOutro: true) but whose intro is followed by a buildup
// (PreferredInType flipped to filter_sweep) must NOT select eq_swap.
func TestPlanEQSwapRequiresToIntroNotToOutro(t *testing.T) {
	from := Pair{
		Key: "8A", BPM: 124, MixOutPoint: 280, Duration: 300,
		Hints:     analysis.TransitionHints{HasCleanOutro: true, IdealCrossfadeBars: 32},
		Segments:  []analysis.Segment{{Kind: analysis.KindOutro, StartSec: 270, EndSec: 300}},
		BeatTimes: []float64{280},
	}
	to := Pair{
		Key: "8B", BPM: 124, IntroEnd: 10, MixInPoint: 12,
		Hints:     analysis.TransitionHints{PreferredInType: "filter_sweep", HasCleanOutro: true},
		Segments:  []analysis.Segment{{Kind: analysis.KindVerse, StartSec: 0, EndSec: 20}},
		BeatTimes: []float64{12},
	}

	tr := Plan(0, 1, from, to, config.DefaultWeights())
	assert.NotEqual(t, StyleEQSwap, tr.Style)
}

func TestPlanQuickCutCapsDuration(t *testing.T) {
	from := Pair{
		Key: "8A", BPM: 124, MixOutPoint: 99,
		Hints:     analysis.TransitionHints{IdealCrossfadeBars: 32},
		Segments:  []analysis.Segment{{Kind: analysis.KindDrop, StartSec: 90, EndSec: 100}},
		BeatTimes: []float64{99},
	}
	to := Pair{
		Key: "8A", BPM: 124, MixInPoint: 5,
		Segments:  []analysis.Segment{{Kind: analysis.KindDrop, StartSec: 0, EndSec: 20}},
		BeatTimes: []float64{5},
	}
	tr := Plan(0, 1, from, to, config.DefaultWeights())
	assert.Equal(t, StyleQuickCut, tr.Style)
	assert.LessOrEqual(t, tr.DurationSec, 2.0)
}

func TestPlanEmitsBridgingNoteOnLargeBPMDelta(t *testing.T) {
	from := Pair{Key: "8A", BPM: 124, MixOutPoint: 100, BeatTimes: []float64{100}}
	to := Pair{Key: "9A", BPM: 140, MixInPoint: 5, BeatTimes: []float64{5}}
	tr := Plan(0, 1, from, to, config.DefaultWeights())
	assert.NotEmpty(t, tr.Notes)
}

func TestPlanAvoidsHeavyVocalCue(t *testing.T) {
	from := Pair{
		Key: "8A", BPM: 124, MixOutPoint: 95,
		Segments:  []analysis.Segment{{Kind: analysis.KindVerse, StartSec: 90, EndSec: 100, VocalEnergy: 0.8}},
		BeatTimes: []float64{},
	}
	to := Pair{Key: "8A", BPM: 124, MixInPoint: 5, BeatTimes: []float64{}}

	tr := Plan(0, 1, from, to, config.DefaultWeights())
	assert.Equal(t, 90.0, tr.FromCueSec)
}

func TestOverallDifficultyBands(t *testing.T) {
	assert.Equal(t, DifficultyEasy, OverallDifficulty(Transition{HarmonicScore: 90, BPMDelta: 1}))
	assert.Equal(t, DifficultyHard, OverallDifficulty(Transition{HarmonicScore: 40, BPMDelta: 1}))
	assert.Equal(t, DifficultyHard, OverallDifficulty(Transition{HarmonicScore: 90, BPMDelta: 9}))
	assert.Equal(t, DifficultyMedium, OverallDifficulty(Transition{HarmonicScore: 70, BPMDelta: 5}))
}
