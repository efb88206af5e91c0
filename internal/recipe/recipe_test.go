package recipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vividhyeok/mixplan/internal/transition"
)

func sampleSpec() RendererSpec {
	tracks := []RecipeTrack{
		{ID: "1", Title: "One", Artist: "Alpha", DurationSec: 200, CamelotKey: "8A", BPM: 124, GainDb: GainDb(-16)},
		{ID: "2", Title: "Two", Artist: "Beta", DurationSec: 220, CamelotKey: "9A", BPM: 126, GainDb: GainDb(-12)},
	}
	transitions := []transition.Transition{
		{FromIdx: 0, ToIdx: 1, Style: transition.StyleLinearBlend, FromCueSec: 180, ToCueSec: 10, DurationSec: 20, HarmonicScore: 85, BPMDelta: 2},
	}
	return Build(tracks, transitions, []float64{0.3, 0.9}, 400)
}

func TestGainDbClampsToRange(t *testing.T) {
	assert.Equal(t, 10.0, GainDb(-100))
	assert.Equal(t, -10.0, GainDb(10))
	assert.InDelta(t, 2.0, GainDb(-16), 1e-9)
}

func TestBuildComputesDifficulty(t *testing.T) {
	spec := sampleSpec()
	assert.Equal(t, transition.DifficultyEasy, spec.Difficulty)
	assert.Equal(t, DefaultLoudnessTargets(), spec.Loudness)
}

func TestCueSheetContainsTracksAndTransitions(t *testing.T) {
	sheet := CueSheet(sampleSpec())
	assert.Contains(t, sheet, "Alpha")
	assert.Contains(t, sheet, "Beta")
	assert.Contains(t, sheet, "linear_blend")
	assert.Contains(t, sheet, "difficulty")
}

func TestTimelineProducesOneLinePerTrack(t *testing.T) {
	tl := Timeline(sampleSpec())
	lines := strings.Split(strings.TrimSpace(tl), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[00:00.00]")
	assert.Contains(t, lines[0], "Alpha")
}
