package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/mixplan/internal/camelot"
	"github.com/vividhyeok/mixplan/internal/config"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/track"
)

func mkItem(id, key string, bpm, energy float64) Item {
	return Item{Track: track.Track{ID: id, CamelotKey: key, BPM: bpm, Energy: energy}}
}

// S5: two tracks in 8A at 124 BPM and two in an adjacent key (9A) at 128
// BPM, energy-curve build, opener energy 0.35 -> low-energy 8A first,
// then the other 8A, then a key change; transition 1 harmonic = 100,
// transition 2 >= 75 (9A is an adjacent-number Camelot neighbor of 8A).
func TestOrderScenarioS5(t *testing.T) {
	items := []Item{
		mkItem("8a-1-low", "8A", 124, 0.35),
		mkItem("8a-2-high", "8A", 124, 0.55),
		mkItem("9a-3-one", "9A", 128, 0.7),
		mkItem("9a-4-two", "9A", 128, 0.8),
	}
	ordered := Order(items, criteria.CurveBuild, config.DefaultWeights())
	require.Len(t, ordered, 4)
	assert.Equal(t, "8a-1-low", ordered[0].Track.ID)
	assert.Equal(t, "8a-2-high", ordered[1].Track.ID)

	score1 := camelot.CompatibilityScore(ordered[0].key(), ordered[1].key())
	score2 := camelot.CompatibilityScore(ordered[1].key(), ordered[2].key())
	assert.Equal(t, 100, score1)
	assert.GreaterOrEqual(t, score2, 75)
}

func TestOrderIdempotent(t *testing.T) {
	items := []Item{
		mkItem("a", "8A", 124, 0.4),
		mkItem("b", "9A", 126, 0.5),
		mkItem("c", "5A", 128, 0.6),
		mkItem("d", "4A", 130, 0.3),
	}
	first := Order(items, criteria.CurveSteady, config.DefaultWeights())
	second := Order(first, criteria.CurveSteady, config.DefaultWeights())
	assert.Equal(t, sortedIDs(first), sortedIDs(second))
	for i := range first {
		assert.Equal(t, first[i].Track.ID, second[i].Track.ID)
	}
}

func TestOrderDeterministic(t *testing.T) {
	items := []Item{
		mkItem("a", "8A", 124, 0.4),
		mkItem("b", "9A", 126, 0.5),
		mkItem("c", "5A", 128, 0.6),
	}
	a := Order(items, criteria.CurveWave, config.DefaultWeights())
	b := Order(items, criteria.CurveWave, config.DefaultWeights())
	assert.Equal(t, a, b)
}

func TestCurveTargetShapes(t *testing.T) {
	assert.InDelta(t, 0.3, CurveTarget(criteria.CurveBuild, 0), 1e-9)
	assert.InDelta(t, 0.9, CurveTarget(criteria.CurveBuild, 1), 1e-9)
	assert.InDelta(t, 0.9, CurveTarget(criteria.CurveDrop, 0), 1e-9)
	assert.InDelta(t, 0.3, CurveTarget(criteria.CurveDrop, 1), 1e-9)
	assert.InDelta(t, 0.6, CurveTarget(criteria.CurveSteady, 0.5), 1e-9)
	assert.InDelta(t, 0.9, CurveTarget(criteria.CurvePeakMiddle, 0.5), 1e-9)
}
