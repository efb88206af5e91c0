// Package recipe implements the Mix Recipe Emitter (C7): it serializes an
// ordered plan and its transitions into the renderer wire format and into
// human-readable cue sheets.
package recipe

import (
	"fmt"
	"math"
	"strings"

	"github.com/vividhyeok/mixplan/internal/transition"
)

// LoudnessTargets are the fixed EBU R128 settings the renderer spec always
// carries (§4.7, GLOSSARY).
type LoudnessTargets struct {
	TargetLUFS float64 `json:"targetLufs"`
	TruePeakDb float64 `json:"truePeakDb"`
	LRA        float64 `json:"lra"`
}

// DefaultLoudnessTargets are the engine's fixed mastering targets.
func DefaultLoudnessTargets() LoudnessTargets {
	return LoudnessTargets{TargetLUFS: -14, TruePeakDb: -1, LRA: 11}
}

// RecipeTrack is one track entry in the renderer spec.
type RecipeTrack struct {
	ID          string  `json:"id"`
	URI         string  `json:"uri"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	DurationSec float64 `json:"durationSec"`
	MixInSec    float64 `json:"mixInSec"`
	MixOutSec   float64 `json:"mixOutSec"`
	CamelotKey  string  `json:"camelotKey,omitempty"`
	BPM         float64 `json:"bpm,omitempty"`
	// GainDb is a supplemented field: the loudness-normalization gain the
	// renderer should apply before mixing, derived from the track's
	// measured loudness against DefaultLoudnessTargets, clamped to ±10 dB.
	GainDb float64 `json:"gainDb"`
}

// RecipeTransition is one transition entry in the renderer spec.
type RecipeTransition struct {
	FromIdx       int                 `json:"fromIdx"`
	ToIdx         int                 `json:"toIdx"`
	Style         transition.Style    `json:"style"`
	FromCueSec    float64             `json:"fromCueSec"`
	ToCueSec      float64             `json:"toCueSec"`
	DurationSec   float64             `json:"durationSec"`
	HarmonicScore int                 `json:"harmonicScore"`
	BPMDelta      float64             `json:"bpmDelta"`
	EnergyDelta   float64             `json:"energyDelta"`
	Notes         []string            `json:"notes,omitempty"`
	Difficulty    transition.Difficulty `json:"difficulty"`
}

// RendererSpec is the full wire format C7 emits for the "FilterGraphExecutor".
type RendererSpec struct {
	Tracks        []RecipeTrack      `json:"tracks"`
	Transitions   []RecipeTransition `json:"transitions"`
	EnergyArc     []float64          `json:"energyArc"`
	TotalDuration float64            `json:"totalDuration"`
	Loudness      LoudnessTargets    `json:"loudness"`
	Difficulty    transition.Difficulty `json:"difficulty"`
}

const gainClampDb = 10

func clampGain(db float64) float64 {
	if db > gainClampDb {
		return gainClampDb
	}
	if db < -gainClampDb {
		return -gainClampDb
	}
	return db
}

// GainDb computes a track's loudness-normalization gain note (supplemented
// feature: the renderer's target minus the track's measured loudness),
// clamped to ±10 dB.
func GainDb(measuredLoudnessDb float64) float64 {
	return clampGain(DefaultLoudnessTargets().TargetLUFS - measuredLoudnessDb)
}

// Build assembles the renderer spec from the ordered tracks, their
// transitions, and the plan's aggregate energy arc.
func Build(tracks []RecipeTrack, transitions []transition.Transition, energyArc []float64, totalDuration float64) RendererSpec {
	rt := make([]RecipeTransition, len(transitions))
	for i, t := range transitions {
		rt[i] = RecipeTransition{
			FromIdx:       t.FromIdx,
			ToIdx:         t.ToIdx,
			Style:         t.Style,
			FromCueSec:    t.FromCueSec,
			ToCueSec:      t.ToCueSec,
			DurationSec:   t.DurationSec,
			HarmonicScore: t.HarmonicScore,
			BPMDelta:      t.BPMDelta,
			EnergyDelta:   t.EnergyDelta,
			Notes:         t.Notes,
			Difficulty:    transition.OverallDifficulty(t),
		}
	}
	return RendererSpec{
		Tracks:        tracks,
		Transitions:   rt,
		EnergyArc:     energyArc,
		TotalDuration: totalDuration,
		Loudness:      DefaultLoudnessTargets(),
		Difficulty:    transition.PlanDifficulty(transitions),
	}
}

// CueSheet renders the human-readable long-form text output (§4.7): a
// per-track header followed by the transition into the next track.
func CueSheet(spec RendererSpec) string {
	var b strings.Builder
	for i, t := range spec.Tracks {
		fmt.Fprintf(&b, "%2d. %-28s - %-20s  key %-4s  %5.1f BPM\n", i+1, t.Artist, t.Title, t.CamelotKey, t.BPM)
		if i < len(spec.Transitions) {
			tr := spec.Transitions[i]
			fmt.Fprintf(&b, "    -> %s at %s (duration %.1fs, harmonic %d, Δbpm %.1f)\n",
				tr.Style, formatClock(tr.FromCueSec), tr.DurationSec, tr.HarmonicScore, tr.BPMDelta)
			for _, note := range tr.Notes {
				fmt.Fprintf(&b, "       note: %s\n", note)
			}
		}
	}
	fmt.Fprintf(&b, "\ntotal: %s  difficulty: %s  loudness target: %.0f LUFS\n",
		formatClock(spec.TotalDuration), spec.Difficulty, spec.Loudness.TargetLUFS)
	return b.String()
}

func formatClock(sec float64) string {
	m := int(sec) / 60
	s := sec - float64(m*60)
	return fmt.Sprintf("%d:%05.2f", m, s)
}

// Timeline is a supplemented output mode: a karaoke-style LRC timestamp
// listing, one line per track, computed from the plan's cumulative
// offsets (each track's start time minus the overlap consumed by the
// crossfade into it).
func Timeline(spec RendererSpec) string {
	var b strings.Builder
	offset := 0.0
	for i, t := range spec.Tracks {
		fmt.Fprintf(&b, "[%s] %s - %s\n", formatLRCTimestamp(offset), t.Artist, t.Title)
		trackSpan := t.DurationSec
		if i < len(spec.Transitions) {
			trackSpan -= spec.Transitions[i].DurationSec
		}
		offset += math.Max(trackSpan, 0)
	}
	return b.String()
}

func formatLRCTimestamp(sec float64) string {
	m := int(sec) / 60
	s := sec - float64(m*60)
	return fmt.Sprintf("%02d:%05.2f", m, s)
}
