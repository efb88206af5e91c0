package analysis

import "math"

// computeBeatEnergy is the per-beat normalized RMS energy, used internally
// for segmentation thresholds and highlight detection (the public energy
// curve comes from computeEnergyCurve).
func computeBeatEnergy(samples []float32, sr int, beatTimes []float64) []float64 {
	frameSize := 2048
	hopSize := 512
	rms := computeRMSFrames(samples, frameSize, hopSize)
	if len(beatTimes) < 2 {
		return []float64{0}
	}

	energy := make([]float64, len(beatTimes))
	for i, bt := range beatTimes {
		frameIdx := int(bt * float64(sr) / float64(hopSize))
		var nextFrameIdx int
		if i+1 < len(beatTimes) {
			nextFrameIdx = int(beatTimes[i+1] * float64(sr) / float64(hopSize))
		} else {
			nextFrameIdx = frameIdx + int(float64(sr)/float64(hopSize)*0.5)
		}
		if frameIdx >= len(rms) {
			frameIdx = len(rms) - 1
		}
		if nextFrameIdx > len(rms) {
			nextFrameIdx = len(rms)
		}
		if frameIdx < 0 {
			frameIdx = 0
		}
		sum, count := 0.0, 0
		for j := frameIdx; j < nextFrameIdx; j++ {
			sum += rms[j]
			count++
		}
		if count > 0 {
			energy[i] = sum / float64(count)
		}
	}

	maxE := 0.0
	for _, e := range energy {
		if e > maxE {
			maxE = e
		}
	}
	if maxE > 1e-6 {
		for i := range energy {
			energy[i] /= maxE
		}
	}
	return energy
}

const (
	segmentAbsoluteThreshold = 0.15
	segmentRelativeThreshold = 1.5
	fewBeatsThreshold        = 16
	risingRunBeats           = 8
	breakdownDropThreshold   = 0.3
)

// classifySegments partitions a track into labeled segments per §4.3: beat
// energies are grouped between downbeats, boundaries are kept only where
// the energy step exceeds the absolute or relative threshold, and each
// resulting region is labeled by position and energy shape.
func classifySegments(beatTimes []float64, downbeats []int, beatEnergy []float64, duration float64) []Segment {
	if len(downbeats) == 0 || len(beatTimes) == 0 {
		return []Segment{{Kind: KindUnknown, StartSec: 0, EndSec: duration, AvgEnergy: avg(beatEnergy), NumBeats: len(beatTimes)}}
	}

	regionEnergy := func(fromBeat, toBeat int) float64 {
		if fromBeat >= toBeat || fromBeat >= len(beatEnergy) {
			return 0
		}
		if toBeat > len(beatEnergy) {
			toBeat = len(beatEnergy)
		}
		return avg(beatEnergy[fromBeat:toBeat])
	}

	// boundaries are downbeat indices (into `downbeats`) where the region
	// to the right differs enough in energy from the region to the left
	// to count as a new structural region.
	boundaries := []int{0}
	for k := 1; k < len(downbeats); k++ {
		prevStart := downbeats[k-1]
		beforeEnd := downbeats[k]
		afterEnd := len(beatTimes)
		if k+1 < len(downbeats) {
			afterEnd = downbeats[k+1]
		}
		before := regionEnergy(prevStart, beforeEnd)
		after := regionEnergy(beforeEnd, afterEnd)
		if energyStepExceedsThreshold(before, after) {
			boundaries = append(boundaries, k)
		}
	}
	boundaries = append(boundaries, len(downbeats))

	type rawRegion struct {
		startBeat, endBeat int
		startSec, endSec   float64
	}
	var regions []rawRegion
	for i := 0; i < len(boundaries)-1; i++ {
		startIdx := downbeats[boundaries[i]]
		var endIdx int
		if boundaries[i+1] < len(downbeats) {
			endIdx = downbeats[boundaries[i+1]]
		} else {
			endIdx = len(beatTimes)
		}
		startSec := 0.0
		if i > 0 {
			startSec = beatTimes[startIdx]
		}
		endSec := duration
		if i < len(boundaries)-2 {
			endSec = beatTimes[endIdx]
		}
		regions = append(regions, rawRegion{startBeat: startIdx, endBeat: endIdx, startSec: startSec, endSec: endSec})
	}

	energies := make([]float64, len(regions))
	for i, r := range regions {
		energies[i] = regionEnergy(r.startBeat, r.endBeat)
	}
	lowThresh, highThresh := quantiles(energies, 0.3, 0.7)

	segments := make([]Segment, len(regions))
	hasIntro, hasOutro := false, false
	prevKind := KindUnknown
	prevDropEnergy := 0.0
	for i, r := range regions {
		e := energies[i]
		numBeats := r.endBeat - r.startBeat
		kind := KindUnknown

		switch {
		case i == 0 && !hasIntro && e < lowThresh && numBeats <= fewBeatsThreshold:
			kind = KindIntro
			hasIntro = true
		case i == len(regions)-1 && !hasOutro && e < lowThresh:
			kind = KindOutro
			hasOutro = true
		case isStrictlyRising(beatEnergy, r.startBeat, r.endBeat, risingRunBeats):
			kind = KindBuildup
		case prevKind == KindBuildup:
			kind = KindDrop
			prevDropEnergy = e
		case prevKind == KindDrop && prevDropEnergy-e > breakdownDropThreshold:
			kind = KindBreakdown
		case e >= lowThresh && e <= highThresh:
			kind = KindVerse
		}

		segments[i] = Segment{
			Kind:        kind,
			StartSec:    r.startSec,
			EndSec:      r.endSec,
			AvgEnergy:   e,
			NumBeats:    numBeats,
			VocalEnergy: 0.5, // no vocal-isolation model; neutral until a caller overrides
		}
		prevKind = kind
	}
	return segments
}

func energyStepExceedsThreshold(before, after float64) bool {
	if math.Abs(after-before) > segmentAbsoluteThreshold {
		return true
	}
	if before > 1e-9 && (after/before >= segmentRelativeThreshold || before/after >= segmentRelativeThreshold) {
		return true
	}
	return false
}

// isStrictlyRising reports whether beatEnergy is strictly increasing for a
// run of at least minRun consecutive beats within [start, end).
func isStrictlyRising(beatEnergy []float64, start, end, minRun int) bool {
	if end > len(beatEnergy) {
		end = len(beatEnergy)
	}
	run := 1
	for i := start + 1; i < end; i++ {
		if beatEnergy[i] > beatEnergy[i-1] {
			run++
			if run >= minRun {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func avg(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// quantiles returns the values at quantile positions lo and hi (0..1) of a
// sorted copy of xs.
func quantiles(xs []float64, lo, hi float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 1
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sortFloat64s(sorted)
	loIdx := int(float64(len(sorted)-1) * lo)
	hiIdx := int(float64(len(sorted)-1) * hi)
	return sorted[loIdx], sorted[hiIdx]
}

func sortFloat64s(xs []float64) {
	// simple insertion sort is fine: segment counts per track are small
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func detectHighlights(beatTimes []float64, beatEnergy []float64) []Highlight {
	windowSize := 64
	if len(beatTimes) < windowSize || len(beatEnergy) < windowSize {
		end := 0.0
		if len(beatTimes) > 0 {
			end = beatTimes[len(beatTimes)-1]
		}
		return []Highlight{{StartSec: 0, EndSec: end, Score: avg(beatEnergy)}}
	}
	var candidates []Highlight
	for i := 0; i+windowSize <= len(beatEnergy); i += 16 {
		score := avg(beatEnergy[i : i+windowSize])
		endIdx := i + windowSize - 1
		if endIdx >= len(beatTimes) {
			endIdx = len(beatTimes) - 1
		}
		candidates = append(candidates, Highlight{
			StartBeatIdx: i,
			EndBeatIdx:   i + windowSize,
			StartSec:     beatTimes[i],
			EndSec:       beatTimes[endIdx],
			Score:        score,
		})
	}
	// insertion sort descending by score; candidate counts are small
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j-1].Score < candidates[j].Score; j-- {
			candidates[j-1], candidates[j] = candidates[j], candidates[j-1]
		}
	}
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	return candidates
}
