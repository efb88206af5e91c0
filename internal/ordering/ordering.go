// Package ordering implements the Harmonic Ordering Engine (C5): greedy
// nearest-neighbor ordering under weighted key/BPM/energy objectives.
package ordering

import (
	"math"
	"sort"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/camelot"
	"github.com/vividhyeok/mixplan/internal/config"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/track"
)

// Item is one track plus whatever analysis is known for it at ordering
// time (the analyzer may have already run, via the cache, by this point).
type Item struct {
	Track    track.Track
	Analysis *analysis.AnalysisReport
}

func (it Item) key() string {
	if it.Track.CamelotKey != "" {
		return it.Track.CamelotKey
	}
	if it.Analysis != nil {
		return it.Analysis.CamelotKey
	}
	return ""
}

func (it Item) bpm() float64 {
	if it.Track.BPM > 0 {
		return it.Track.BPM
	}
	if it.Analysis != nil && it.Analysis.BPM > 0 {
		return it.Analysis.BPM
	}
	return 0
}

func (it Item) energy() float64 {
	if it.Track.Energy >= 0 {
		return it.Track.Energy
	}
	return track.UnknownEnergy
}

func (it Item) hasAnalysis() bool {
	return it.Analysis != nil || it.Track.CamelotKey != ""
}

// Constants not backed by a config.Weights field: the BPM/energy-flow/
// curve-conformity tiers are fixed distance bands from §4.5, not an
// operator-tunable bonus table.
const (
	openerAnalysis    = 10
	bpmClose          = 20
	bpmNear           = 15
	bpmFar            = 5
	bpmHalfDouble     = 10
	energyFlowClose   = 10
	energyFlowNear    = 5
	curveConformClose = 10
	curveConformNear  = 5
)

// chooseOpener scores every item per §4.5's opener rule and returns the
// index of the best, ties broken by id.
func chooseOpener(items []Item, w config.Weights) int {
	best := 0
	bestScore := math.Inf(-1)
	for i, it := range items {
		score := 0.0
		if it.key() != "" {
			score += w.OpenerKeyKnownBonus
		}
		if e := it.energy(); e >= 0.3 && e <= 0.6 {
			score += w.OpenerEnergyBandBonus
		}
		if b := it.bpm(); b >= 115 && b <= 128 {
			score += w.OpenerBPMBandBonus
		}
		if it.hasAnalysis() {
			score += openerAnalysis
		}
		if score > bestScore || (score == bestScore && items[i].Track.ID < items[best].Track.ID) {
			bestScore = score
			best = i
		}
	}
	return best
}

// bpmScore returns the best-matching BPM term: the ordinary distance bands,
// or the half/double band when that scores higher (e.g. a 124 BPM track
// mixes acceptably against a 62 or 248 BPM one run at double/half time).
func bpmScore(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	d := math.Abs(a - b)
	score := 0.0
	switch {
	case d <= 3:
		score = bpmClose
	case d <= 6:
		score = bpmNear
	case d <= 10:
		score = bpmFar
	}
	halfDouble := math.Abs(a-2*b) <= 6 || math.Abs(2*a-b) <= 6
	if halfDouble && bpmHalfDouble > score {
		score = bpmHalfDouble
	}
	return score
}

func energyFlowScore(a, b float64) float64 {
	if a < 0 || b < 0 {
		return 0
	}
	d := math.Abs(a - b)
	switch {
	case d <= 0.15:
		return energyFlowClose
	case d <= 0.30:
		return energyFlowNear
	}
	return 0
}

// CurveTarget evaluates the criteria energy-curve shape at a normalized
// position pos in [0,1], per §4.5's five named shapes.
func CurveTarget(curve criteria.EnergyCurve, pos float64) float64 {
	switch curve {
	case criteria.CurveBuild:
		return 0.3 + 0.6*pos
	case criteria.CurveDrop:
		return 0.9 - 0.6*pos
	case criteria.CurveSteady:
		return 0.6
	case criteria.CurvePeakMiddle:
		if pos <= 0.5 {
			return 0.3 + 1.2*pos
		}
		return 0.9 - 1.2*(pos-0.5)
	case criteria.CurveWave:
		return 0.6 + 0.3*math.Sin(2*math.Pi*pos)
	default:
		return 0.6
	}
}

func curveConformityScore(candidateEnergy, target float64) float64 {
	if candidateEnergy < 0 {
		return 0
	}
	d := math.Abs(candidateEnergy - target)
	switch {
	case d <= 0.1:
		return curveConformClose
	case d <= 0.2:
		return curveConformNear
	}
	return 0
}

// nextScore is the §4.5 "next-track score" of candidate against the
// current last track, at the target position pos in the final plan.
func nextScore(current, candidate Item, curve criteria.EnergyCurve, pos float64) (score, bpmDelta float64) {
	ck, cc := current.key(), candidate.key()
	if ck == "" || cc == "" {
		score += camelot.NeutralScore
	} else {
		score += float64(camelot.CompatibilityScore(ck, cc))
	}

	cb, nb := current.bpm(), candidate.bpm()
	bpmDelta = math.Abs(cb - nb)
	score += bpmScore(cb, nb)

	score += energyFlowScore(current.energy(), candidate.energy())
	score += curveConformityScore(candidate.energy(), CurveTarget(curve, pos))
	return score, bpmDelta
}

// Order greedily orders items: choose an opener, then repeatedly append
// the best-scoring unvisited item against the current last track, ties
// broken by lower |Δbpm| then lower id. This is O(N²), acceptable for the
// pool sizes this engine targets.
func Order(items []Item, curve criteria.EnergyCurve, w config.Weights) []Item {
	if len(items) == 0 {
		return nil
	}
	remaining := make([]Item, len(items))
	copy(remaining, items)

	openerIdx := chooseOpener(remaining, w)
	ordered := []Item{remaining[openerIdx]}
	remaining = append(remaining[:openerIdx], remaining[openerIdx+1:]...)

	n := len(items)
	for len(remaining) > 0 {
		current := ordered[len(ordered)-1]
		pos := float64(len(ordered)) / float64(n)

		bestIdx := -1
		var bestScore, bestDelta float64
		for i, cand := range remaining {
			s, d := nextScore(current, cand, curve, pos)
			if bestIdx == -1 ||
				s > bestScore ||
				(s == bestScore && d < bestDelta) ||
				(s == bestScore && d == bestDelta && cand.Track.ID < remaining[bestIdx].Track.ID) {
				bestIdx, bestScore, bestDelta = i, s, d
			}
		}
		ordered = append(ordered, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered
}

// sortedIDs is a small helper used by tests to assert a stable order
// independent of map iteration, kept here since ordering is the package
// most exercised by id-based determinism checks.
func sortedIDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.Track.ID
	}
	sort.Strings(ids)
	return ids
}
