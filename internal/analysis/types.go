// Package analysis implements the Beat & Segment Analyzer (C3): it turns a
// decoded mono PCM stream into tempo, beats, an energy curve, labeled
// segments, and the mix points and transition hints the later planning
// stages consume.
package analysis

import "encoding/json"

// SegmentKind is one of the structural region labels from the data model.
type SegmentKind string

const (
	KindIntro     SegmentKind = "intro"
	KindVerse     SegmentKind = "verse"
	KindBuildup   SegmentKind = "buildup"
	KindDrop      SegmentKind = "drop"
	KindBreakdown SegmentKind = "breakdown"
	KindOutro     SegmentKind = "outro"
	KindUnknown   SegmentKind = "unknown"
)

// Segment is a contiguous, non-overlapping region of a track. Segments
// partition the track: their union is [0, duration) in playback order.
type Segment struct {
	Kind      SegmentKind `json:"type"`
	StartSec  float64     `json:"startTime"`
	EndSec    float64     `json:"endTime"`
	AvgEnergy float64     `json:"avgEnergy"` // [0,1]
	NumBeats  int         `json:"beatCount"`
	// VocalEnergy is a supplemented field (grounded on the teacher's
	// per-segment vocal-energy estimate): [0,1], used by the transition
	// planner to steer cue points away from heavy-vocal regions.
	VocalEnergy float64 `json:"vocalEnergy,omitempty"`
}

// Highlight is a supplemented field: one of the highest-energy 64-beat
// windows of a track, reported with the analysis. The transition planner
// does not read highlights; its cue points come from the mix points.
type Highlight struct {
	StartBeatIdx int
	EndBeatIdx   int
	StartSec     float64
	EndSec       float64
	Score        float64
}

// MixPoints are the cue candidates the transition planner (C6) consumes.
type MixPoints struct {
	IntroEnd       float64 `json:"introEnd"`
	MixInPoint     float64 `json:"mixInPoint"`
	MixOutPoint    float64 `json:"mixOutPoint"`
	OutroStart     float64 `json:"outroStart"`
	HasDropPoint   bool    `json:"-"`
	DropPoint      float64 `json:"dropPoint,omitempty"`
	HasBreakPoint  bool    `json:"-"`
	BreakdownPoint float64 `json:"breakdownPoint,omitempty"`
}

// TransitionHints are the derived per-track preferences C6 uses to pick a
// transition style without re-deriving them from segments each time.
type TransitionHints struct {
	PreferredInType     string `json:"preferredInType"`
	PreferredOutType    string `json:"preferredOutType"`
	HasStrongDrop       bool   `json:"hasStrongDrop"`
	HasCleanOutro       bool   `json:"hasCleanOutro"`
	IdealCrossfadeBars  int    `json:"idealCrossfadeBars"`
}

// AnalysisReport is the full output of analyzing one track. It is pure
// data: produced once per (track id, analyzer version) and cached by that
// key; never mutated afterward.
type AnalysisReport struct {
	BPM             float64         `json:"bpm"`
	BPMConfidence   float64         `json:"bpmConfidence"`
	CamelotKey      string          `json:"camelotKey"` // "" if undetected
	EnergyCurve     []float64       `json:"-"`
	EnergyCurveHz   int             `json:"-"`
	LoudnessDB      float64         `json:"loudnessDb"` // supplemented: feeds the renderer-spec gain note
	BeatTimes       []float64       `json:"beatTimes,omitempty"`
	DownbeatIndices []int           `json:"downbeatIndices,omitempty"`
	Segments        []Segment       `json:"segments,omitempty"`
	MixPoints       MixPoints       `json:"mixPoints"`
	Hints           TransitionHints `json:"transitionHints"`
	Highlights      []Highlight     `json:"highlights,omitempty"`
}

// MarshalJSON emits the §6 wire format, folding EnergyCurve/EnergyCurveHz
// into the nested {samples,sampleRate} shape the contract specifies.
func (r AnalysisReport) MarshalJSON() ([]byte, error) {
	type alias AnalysisReport
	return json.Marshal(struct {
		alias
		EnergyCurve energyCurveWire `json:"energyCurve"`
	}{alias(r), energyCurveWire{Samples: r.EnergyCurve, SampleRate: r.EnergyCurveHz}})
}

// UnmarshalJSON is MarshalJSON's inverse.
func (r *AnalysisReport) UnmarshalJSON(data []byte) error {
	type alias AnalysisReport
	aux := struct {
		*alias
		EnergyCurve energyCurveWire `json:"energyCurve"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.EnergyCurve = aux.EnergyCurve.Samples
	r.EnergyCurveHz = aux.EnergyCurve.SampleRate
	return nil
}

type energyCurveWire struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sampleRate"`
}
