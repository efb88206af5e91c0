package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/selector"
	"github.com/vividhyeok/mixplan/internal/track"
)

func mkTrack(id, key string, bpm, energy float64) track.Track {
	return track.Track{
		ID:             id,
		Title:          "Track " + id,
		Artists:        []string{"Artist " + id},
		DurationMillis: 240000,
		BPM:            bpm,
		CamelotKey:     key,
		Energy:         energy,
		Popularity:     50,
		PlayCount:      1,
	}
}

func buildPool(n int) []selector.Candidate {
	keys := []string{"8A", "9A", "8B", "7A"}
	pool := make([]selector.Candidate, n)
	for i := 0; i < n; i++ {
		t := mkTrack(
			itoa(i),
			keys[i%len(keys)],
			120+float64(i%10),
			0.3+0.05*float64(i%10),
		)
		pool[i] = selector.Candidate{Track: t, ArtistFamily: "house"}
	}
	return pool
}

func itoa(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return string(b)
}

func baseCriteria(n int) criteria.MixCriteria {
	return criteria.MixCriteria{
		TargetTrackCount: n,
		GenreFamilies:    []string{"house"},
		EnergyCurveTag:   criteria.CurveBuild,
		Seed:             0,
	}
}

func TestPlanProducesOneFewerTransitionThanTracks(t *testing.T) {
	pool := buildPool(30)
	crit := baseCriteria(10)

	plan, err := Plan(context.Background(), crit, pool, Options{})
	require.NoError(t, err)
	assert.Len(t, plan.Transitions, len(plan.Tracks)-1)
}

func TestPlanInsufficientPool(t *testing.T) {
	crit := baseCriteria(5)
	_, err := Plan(context.Background(), crit, nil, Options{})
	assert.ErrorIs(t, err, ErrInsufficientPool)
}

func TestPlanConstraintInconsistent(t *testing.T) {
	crit := baseCriteria(5)
	crit.BPMRange = &criteria.BPMRange{Min: 140, Max: 120}
	_, err := Plan(context.Background(), crit, buildPool(10), Options{})
	assert.ErrorIs(t, err, criteria.ErrConstraintInconsistent)
}

func TestPlanCancelRequested(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	crit := baseCriteria(5)
	_, err := Plan(ctx, crit, buildPool(10), Options{})
	assert.ErrorIs(t, err, ErrCancelRequested)
}

func TestPlanDeterministic(t *testing.T) {
	pool := buildPool(30)
	crit := baseCriteria(10)

	p1, err := Plan(context.Background(), crit, pool, Options{})
	require.NoError(t, err)
	p2, err := Plan(context.Background(), crit, pool, Options{})
	require.NoError(t, err)

	require.Equal(t, len(p1.Tracks), len(p2.Tracks))
	for i := range p1.Tracks {
		assert.Equal(t, p1.Tracks[i].Track.ID, p2.Tracks[i].Track.ID)
	}
}

func TestPlanAnalysisFailureIsNonFatal(t *testing.T) {
	pool := buildPool(15)
	crit := baseCriteria(8)

	failing := func(ctx context.Context, c selector.Candidate) (analysis.AnalysisReport, error) {
		return analysis.AnalysisReport{}, assert.AnError
	}

	plan, err := Plan(context.Background(), crit, pool, Options{Analyze: failing})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Tracks)
	for _, item := range plan.Tracks {
		assert.Nil(t, item.Analysis)
	}
}

func TestPlanScenarioSearchPicksLowerCostPlan(t *testing.T) {
	pool := buildPool(30)
	crit := baseCriteria(10)
	crit.Scenarios = 3

	plan, err := Plan(context.Background(), crit, pool, Options{})
	require.NoError(t, err)
	assert.Len(t, plan.Transitions, len(plan.Tracks)-1)

	// Each scenario i runs with seed crit.Seed+i; the chosen plan must cost
	// no more than any single-scenario plan at those seeds.
	for i := 0; i < crit.Scenarios; i++ {
		single := baseCriteria(10)
		single.Seed = crit.Seed + int64(i)
		p, err := Plan(context.Background(), single, pool, Options{})
		require.NoError(t, err)
		assert.LessOrEqual(t, planCost(plan), planCost(p))
	}
}
