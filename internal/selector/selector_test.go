package selector

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/mixplan/internal/config"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/track"
)

func mkCandidate(id, artist string, popularity float64) Candidate {
	return Candidate{
		Track: track.Track{
			ID:         id,
			Title:      id + "-title",
			Artists:    []string{artist},
			Popularity: popularity,
			Energy:     track.UnknownEnergy,
		},
	}
}

// buildPool mirrors S3: artist A and B each contribute 50 tracks, and 50
// other artists contribute 2 tracks each (100 total).
func buildPool() []Candidate {
	var pool []Candidate
	for i := 0; i < 50; i++ {
		pool = append(pool, mkCandidate(fmt.Sprintf("A-%d", i), "Artist A", 50))
	}
	for i := 0; i < 50; i++ {
		pool = append(pool, mkCandidate(fmt.Sprintf("B-%d", i), "Artist B", 50))
	}
	for a := 0; a < 50; a++ {
		for i := 0; i < 2; i++ {
			pool = append(pool, mkCandidate(fmt.Sprintf("rest-%d-%d", a, i), fmt.Sprintf("Rest Artist %d", a), 50))
		}
	}
	return pool
}

func TestSelectEnforcesPerArtistCapAndVariety(t *testing.T) {
	pool := buildPool()
	crit := criteria.MixCriteria{TargetTrackCount: 30}
	selected := Select(pool, crit, nil, config.DefaultWeights())

	require.LessOrEqual(t, len(selected), 30)
	counts := map[string]int{}
	artists := map[string]bool{}
	for _, c := range selected {
		a := strings.ToLower(c.Track.PrimaryArtist())
		counts[a]++
		artists[a] = true
	}
	assert.LessOrEqual(t, counts["artist a"], 2)
	assert.LessOrEqual(t, counts["artist b"], 2)
	assert.GreaterOrEqual(t, len(artists), 10)
}

func TestSelectIncludeArtistBudget(t *testing.T) {
	pool := buildPool()
	// add a few candidates for X, Y, Z include artists
	for i := 0; i < 5; i++ {
		pool = append(pool, mkCandidate(fmt.Sprintf("X-%d", i), "X", 50))
	}
	for i := 0; i < 5; i++ {
		pool = append(pool, mkCandidate(fmt.Sprintf("Y-%d", i), "Y", 50))
	}
	for i := 0; i < 5; i++ {
		pool = append(pool, mkCandidate(fmt.Sprintf("Z-%d", i), "Z", 50))
	}
	crit := criteria.MixCriteria{TargetTrackCount: 30, IncludeArtists: []string{"X", "Y", "Z"}}
	selected := Select(pool, crit, nil, config.DefaultWeights())

	includeCount := 0
	perArtist := map[string]int{}
	for _, c := range selected {
		a := c.Track.PrimaryArtist()
		if a == "X" || a == "Y" || a == "Z" {
			includeCount++
			perArtist[a]++
		}
	}
	assert.LessOrEqual(t, includeCount, 12)
	for _, c := range perArtist {
		assert.LessOrEqual(t, c, 3)
	}
}

func TestSelectDeterministic(t *testing.T) {
	pool := buildPool()
	crit := criteria.MixCriteria{TargetTrackCount: 20, Seed: 42}
	a := Select(pool, crit, nil, config.DefaultWeights())
	b := Select(pool, crit, nil, config.DefaultWeights())
	assert.Equal(t, a, b)
}

func TestSelectSkipsGenreHardFail(t *testing.T) {
	pool := []Candidate{
		{Track: track.Track{ID: "ok", Artists: []string{"Keep"}, Energy: track.UnknownEnergy}, ArtistFamily: "house"},
		{Track: track.Track{ID: "bad", Artists: []string{"Drop"}, Energy: track.UnknownEnergy}, ArtistFamily: "metal"},
	}
	crit := criteria.MixCriteria{TargetTrackCount: 2, GenreFamilies: []string{"house"}}
	selected := Select(pool, crit, nil, config.DefaultWeights())
	for _, c := range selected {
		assert.NotEqual(t, "bad", c.Track.ID)
	}
}
