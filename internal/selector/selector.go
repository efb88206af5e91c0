// Package selector implements the Selection Scorer (C4): scores a
// candidate pool against MixCriteria and picks a variety-enforced subset.
package selector

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/config"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/track"
)

// Candidate pairs a Track with whatever is known about it ahead of
// selection: its analysis (if one exists in cache) and its artist's genre
// family (if known).
type Candidate struct {
	Track        track.Track                `json:"track"`
	Analysis     *analysis.AnalysisReport    `json:"analysis,omitempty"`
	ArtistFamily string                      `json:"artistFamily,omitempty"` // "" means unknown
}

// Scored is a candidate plus its computed selection score.
type Scored struct {
	Candidate Candidate
	Score     float64
}

// Constants not backed by a config.Weights field: they shape the
// familiarity/quality/variety terms spec.md gives as fixed curves rather
// than operator-tunable weights (§4.4 gives these as literal formulas, not
// a "weight" table entry).
const (
	scoreDeepCutBonus        = 20
	scoreDeepCutPenalty      = -15
	scoreHitsBonus           = 20
	scoreHitsPenalty         = -15
	scoreQualityBonusPerUnit = 0.15
	genreFloorScore          = -50
	jitterMax                = 10.0
)

// Score computes the additive selection score for one candidate (§4.4).
// recentHistory is the set of track ids used in a recent plan;
// jitterSeed combines with the track id for a deterministic, order-
// independent variety jitter term. w supplies the operator-tunable bonus
// and penalty weights (config.DefaultWeights() if the caller has none).
func Score(c Candidate, crit criteria.MixCriteria, recentHistory map[string]bool, jitterSeed int64, w config.Weights) float64 {
	t := c.Track
	score := 0.0

	if t.HasPositivePlayCount() || t.IsProfessionallyAnalyzed() {
		score += w.InLibraryBonus
	}
	if t.CamelotKey != "" || c.Analysis != nil {
		score += w.AnalysisPresentBonus
	}

	if crit.BPMRange != nil {
		bpm := t.EffectiveBPM(0)
		switch {
		case bpm <= 0:
			score += w.BPMUnknownPenalty
		case bpm >= crit.BPMRange.Min && (crit.BPMRange.Max == 0 || bpm <= crit.BPMRange.Max):
			score += w.BPMMatchBonus
		default:
			score += w.BPMMismatchPenalty
		}
	}

	if crit.EnergyRange != nil {
		e := t.EffectiveEnergy(0)
		if e >= 0 {
			eScaled := e * 10
			if eScaled < float64(crit.EnergyRange.Min) || (crit.EnergyRange.Max > 0 && eScaled > float64(crit.EnergyRange.Max)) {
				score += w.EnergyMismatchPenalty
			}
		}
	}

	includeHit := anyArtistIn(t, crit.IncludeArtists)
	if includeHit {
		score += w.IncludeArtistBonus
	} else if anyArtistIn(t, crit.ReferenceArtists) {
		score += w.ReferenceArtistBonus
	}

	pop := t.Popularity
	if pop >= 0 {
		switch crit.Familiarity {
		case criteria.FamiliarityDeepCuts:
			if pop < 40 {
				score += scoreDeepCutBonus
			} else if pop > 70 {
				score += scoreDeepCutPenalty
			}
		case criteria.FamiliarityHits:
			if pop > 60 {
				score += scoreHitsBonus
			} else if pop < 30 {
				score += scoreHitsPenalty
			}
		}
		if pop >= 30 {
			bonus := scoreQualityBonusPerUnit * pop
			if bonus > 15 {
				bonus = 15
			}
			score += bonus
		}
	}

	if recentHistory[t.ID] {
		score += w.RecentlyUsedPenalty
	}

	if len(crit.GenreFamilies) > 0 {
		if c.ArtistFamily == "" {
			score += w.GenreUnknownPenalty
		} else if !containsFold(crit.GenreFamilies, c.ArtistFamily) {
			score += w.GenreHardFailPenalty
		}
	}

	score += jitter(jitterSeed, t.ID)
	return score
}

// jitter derives a deterministic [0,10) value from the seed and track id,
// independent of pool iteration order, so the same (pool, seed) always
// produces the same score regardless of processing order.
func jitter(seed int64, id string) float64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	h.Write(buf[:])
	return float64(h.Sum64()%10000) / 10000.0 * jitterMax
}

func anyArtistIn(t track.Track, set []string) bool {
	for _, name := range set {
		if t.HasArtist(name) {
			return true
		}
	}
	return false
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// ScoreAll scores every candidate and sorts descending by score, ties
// broken by id for a stable, deterministic order.
func ScoreAll(pool []Candidate, crit criteria.MixCriteria, recentHistory map[string]bool, w config.Weights) []Scored {
	out := make([]Scored, len(pool))
	for i, c := range pool {
		out[i] = Scored{Candidate: c, Score: Score(c, crit, recentHistory, crit.Seed, w)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Candidate.Track.ID < out[j].Candidate.Track.ID
	})
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxPerArtistFor(n int) int {
	v := int(math.Ceil(float64(n) / 15.0))
	if v < 2 {
		return 2
	}
	return v
}

func dedupKey(t track.Track) string {
	return strings.ToLower(strings.TrimSpace(t.Title)) + "|" + strings.ToLower(strings.TrimSpace(t.PrimaryArtist()))
}

// Select runs the two-pass selection described in §4.4: an include-artist
// budget pass, then a score-ordered fill pass enforcing the per-artist
// cap, followed by a variety-swap correction.
func Select(pool []Candidate, crit criteria.MixCriteria, recentHistory map[string]bool, w config.Weights) []Candidate {
	n := crit.TargetTrackCount
	scored := ScoreAll(pool, crit, recentHistory, w)

	seenIDs := map[string]bool{}
	seenDedup := map[string]bool{}
	artistCount := map[string]int{}
	var selected []Scored

	take := func(s Scored) {
		t := s.Candidate.Track
		selected = append(selected, s)
		seenIDs[t.ID] = true
		seenDedup[dedupKey(t)] = true
		artistCount[strings.ToLower(t.PrimaryArtist())]++
	}
	eligible := func(s Scored) bool {
		t := s.Candidate.Track
		if seenIDs[t.ID] || seenDedup[dedupKey(t)] {
			return false
		}
		return true
	}

	if len(crit.IncludeArtists) > 0 && n > 0 {
		perArtist := clampInt(int(math.Floor(0.4*float64(n)/float64(len(crit.IncludeArtists)))), 1, 3)
		includeBudget := int(math.Floor(0.4 * float64(n)))
		includeTaken := 0
		for _, artist := range crit.IncludeArtists {
			takenForArtist := 0
			for _, s := range scored {
				if includeTaken >= includeBudget || len(selected) >= n {
					break
				}
				if takenForArtist >= perArtist {
					break
				}
				if !eligible(s) || !s.Candidate.Track.HasArtist(artist) {
					continue
				}
				take(s)
				takenForArtist++
				includeTaken++
			}
		}
	}

	maxPerArtist := maxPerArtistFor(n)
	for _, s := range scored {
		if len(selected) >= n {
			break
		}
		if s.Score < genreFloorScore {
			continue
		}
		if !eligible(s) {
			continue
		}
		artist := strings.ToLower(s.Candidate.Track.PrimaryArtist())
		if artistCount[artist] >= maxPerArtist {
			continue
		}
		take(s)
	}

	selected = enforceVarietyFloor(selected, scored, n, maxPerArtist, seenIDs, seenDedup)
	out := make([]Candidate, len(selected))
	for i, s := range selected {
		out[i] = s.Candidate
	}
	return out
}

// enforceVarietyFloor swaps an over-represented artist's lowest-scored
// track for the next-best-scored untouched-artist track until the unique-
// artist floor (max(10, N/3)) is met or no swap is possible.
func enforceVarietyFloor(selected, scored []Scored, n, maxPerArtist int, seenIDs, seenDedup map[string]bool) []Scored {
	floor := n / 3
	if floor < 10 {
		floor = 10
	}

	uniqueArtists := func(sel []Scored) map[string]int {
		counts := map[string]int{}
		for _, s := range sel {
			counts[strings.ToLower(s.Candidate.Track.PrimaryArtist())]++
		}
		return counts
	}

	for {
		counts := uniqueArtists(selected)
		if len(counts) >= floor {
			break
		}
		// among artists with two or more selected tracks, find the lowest-
		// scored of each one's last-taken track
		worstIdx := -1
		worstArtist := ""
		for artist, c := range counts {
			if c < 2 {
				continue
			}
			for i := len(selected) - 1; i >= 0; i-- {
				if strings.ToLower(selected[i].Candidate.Track.PrimaryArtist()) == artist {
					if worstIdx == -1 || selected[i].Score < selected[worstIdx].Score {
						worstIdx = i
						worstArtist = artist
					}
					break
				}
			}
		}
		if worstIdx == -1 {
			break // no over-represented artist left to trade away
		}

		replacement := -1
		for i, s := range scored {
			artist := strings.ToLower(s.Candidate.Track.PrimaryArtist())
			if artist == worstArtist || counts[artist] >= 1 {
				continue
			}
			if seenIDs[s.Candidate.Track.ID] || seenDedup[dedupKey(s.Candidate.Track)] {
				continue
			}
			if s.Score < genreFloorScore {
				continue
			}
			replacement = i
			break
		}
		if replacement == -1 {
			break // no untouched-artist candidate available
		}

		removed := selected[worstIdx]
		delete(seenIDs, removed.Candidate.Track.ID)
		delete(seenDedup, dedupKey(removed.Candidate.Track))
		selected[worstIdx] = scored[replacement]
		seenIDs[scored[replacement].Candidate.Track.ID] = true
		seenDedup[dedupKey(scored[replacement].Candidate.Track)] = true
	}
	return selected
}
