package analysis

// genreFamilyCrossfadeBars is the "ideal crossfade bars by genre family"
// table from §4.3.
var genreFamilyCrossfadeBars = map[string]int{
	"house":     32,
	"techno":    32,
	"trance":    32,
	"drumnbass": 16,
	"dubstep":   8,
	"hiphop":    8,
	"disco":     16,
	"funk":      16,
	"pop":       8,
	"indie":     8,
}

const defaultCrossfadeBars = 16

// IdealCrossfadeBars looks up the genre-family crossfade preference,
// checking overrides (an operator's config.Weights.CrossfadeBars, or nil)
// before the built-in table, and falling back to the default when the
// family is unrecognized in both.
func IdealCrossfadeBars(genreFamily string, overrides map[string]int) int {
	if bars, ok := overrides[genreFamily]; ok {
		return bars
	}
	if bars, ok := genreFamilyCrossfadeBars[genreFamily]; ok {
		return bars
	}
	return defaultCrossfadeBars
}

func findFirst(segments []Segment, kind SegmentKind) (Segment, bool) {
	for _, s := range segments {
		if s.Kind == kind {
			return s, true
		}
	}
	return Segment{}, false
}

// firstBeatAtOrAfter returns the index of the first beat at or after t, or
// the last beat's index when every beat is before t.
func firstBeatAtOrAfter(beatTimes []float64, t float64) int {
	for i, bt := range beatTimes {
		if bt >= t {
			return i
		}
	}
	return len(beatTimes) - 1
}

// lastBeatAtOrBefore returns the index of the last beat at or before t, or
// 0 when every beat is after t.
func lastBeatAtOrBefore(beatTimes []float64, t float64) int {
	idx := 0
	for i, bt := range beatTimes {
		if bt <= t {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// deriveMixPoints computes introEnd/outroStart/mixInPoint/mixOutPoint and
// the optional drop/breakdown anchors per §4.3.
func deriveMixPoints(segments []Segment, beatTimes []float64, bpm, duration float64) MixPoints {
	mp := MixPoints{OutroStart: duration}

	if intro, ok := findFirst(segments, KindIntro); ok {
		mp.IntroEnd = intro.EndSec
	}
	if outro, ok := findFirst(segments, KindOutro); ok {
		mp.OutroStart = outro.StartSec
	}

	beatPeriod := 60.0 / 120.0
	if bpm > 0 {
		beatPeriod = 60.0 / bpm
	}

	if len(beatTimes) == 0 {
		mp.MixInPoint = mp.IntroEnd
		mp.MixOutPoint = mp.OutroStart
		return mp
	}

	inIdx := firstBeatAtOrAfter(beatTimes, mp.IntroEnd+4*beatPeriod)
	if inIdx < 0 || inIdx >= len(beatTimes) {
		inIdx = len(beatTimes) - 1
	}
	mp.MixInPoint = beatTimes[inIdx]

	outIdx := lastBeatAtOrBefore(beatTimes, mp.OutroStart-4*beatPeriod)
	if outIdx < 0 {
		outIdx = 0
	}
	mp.MixOutPoint = beatTimes[outIdx]
	if mp.MixOutPoint <= mp.MixInPoint {
		next := mp.MixInPoint + beatPeriod
		// Only cap at duration when that still leaves a strictly later
		// point; otherwise the cap itself would reintroduce the mixInPoint
		// == mixOutPoint bug this fallback exists to avoid.
		if next > duration && duration > mp.MixInPoint {
			next = duration
		}
		mp.MixOutPoint = next
	}

	if drop, ok := findFirst(segments, KindDrop); ok {
		mp.HasDropPoint = true
		mp.DropPoint = drop.StartSec
	}
	if bd, ok := findFirst(segments, KindBreakdown); ok {
		mp.HasBreakPoint = true
		mp.BreakdownPoint = bd.StartSec
	}
	return mp
}

// deriveTransitionHints computes the preferred in/out transition styles
// and crossfade length per §4.3.
func deriveTransitionHints(segments []Segment, genreFamily string, crossfadeBarsOverride map[string]int) TransitionHints {
	h := TransitionHints{
		PreferredInType:    "eq_swap",
		PreferredOutType:   "eq_swap",
		IdealCrossfadeBars: IdealCrossfadeBars(genreFamily, crossfadeBarsOverride),
	}

	if drop, ok := findFirst(segments, KindDrop); ok && drop.AvgEnergy >= 0.7 {
		h.HasStrongDrop = true
	}

	if outro, ok := findFirst(segments, KindOutro); ok && outro.AvgEnergy <= 0.25 {
		h.HasCleanOutro = true
	}
	if h.HasCleanOutro {
		h.PreferredOutType = "echo_out"
	}

	firstPostIntro := KindUnknown
	sawIntro := false
	for _, s := range segments {
		if s.Kind == KindIntro {
			sawIntro = true
			continue
		}
		if sawIntro {
			firstPostIntro = s.Kind
			break
		}
	}
	if firstPostIntro == KindBuildup {
		h.PreferredInType = "filter_sweep"
	}
	return h
}
