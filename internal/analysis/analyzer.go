package analysis

import (
	"context"
	"math"
	"sync"
)

// Params bundles the tunables §4.3 exposes (frame sizes, energy-curve
// rate); defaults match the values given in the data model.
type Params struct {
	FrameSize     int
	HopSize       int
	EnergyCurveHz int
	GenreFamily   string
	// CrossfadeBarsOverride replaces the §4.3 genre-family crossfade table,
	// keyed the same way (GenreFamily), when the operator's config.Weights
	// supplies one. Nil means use the built-in table.
	CrossfadeBarsOverride map[string]int
}

// DefaultParams are the data model's recommended values.
func DefaultParams() Params {
	return Params{FrameSize: 1024, HopSize: 512, EnergyCurveHz: 20, GenreFamily: ""}
}

// AnalyzeTrack runs the full beat/segment analysis pipeline on a decoded
// mono PCM buffer. It is pure: given identical input and params, the
// output is bit-identical, and no I/O happens once pcm is in memory.
func AnalyzeTrack(pcm []float32, sampleRate int, params Params) AnalysisReport {
	if params.FrameSize == 0 {
		params = DefaultParams()
	}
	duration := float64(len(pcm)) / float64(sampleRate)

	onset := computeOnsetEnvelope(pcm, sampleRate, params.FrameSize, params.HopSize)
	if peakOnset(onset) < onsetFloor {
		return AnalysisReport{
			BPM:           0,
			BPMConfidence: 0,
			Segments:      []Segment{{Kind: KindUnknown, StartSec: 0, EndSec: duration}},
			MixPoints:     MixPoints{OutroStart: duration},
			Hints:         deriveTransitionHints(nil, params.GenreFamily, params.CrossfadeBarsOverride),
			EnergyCurveHz: params.EnergyCurveHz,
		}
	}

	bpm, confidence := estimateBPM(onset, sampleRate, params.HopSize)
	beatTimes := estimateBeatTimes(onset, sampleRate, duration, bpm, params.HopSize)
	downbeats := downbeatIndices(beatTimes, onset, sampleRate, params.HopSize)
	beatEnergy := computeBeatEnergy(pcm, sampleRate, beatTimes)
	energyCurve := computeEnergyCurve(pcm, sampleRate, params.EnergyCurveHz)
	key := detectKey(pcm, sampleRate)
	loudness := computeLoudnessDB(pcm)

	segments := classifySegments(beatTimes, downbeats, beatEnergy, duration)
	highlights := detectHighlights(beatTimes, beatEnergy)
	mixPoints := deriveMixPoints(segments, beatTimes, bpm, duration)
	hints := deriveTransitionHints(segments, params.GenreFamily, params.CrossfadeBarsOverride)

	return AnalysisReport{
		BPM:             math.Round(bpm*10) / 10,
		BPMConfidence:   confidence,
		CamelotKey:      key,
		EnergyCurve:     energyCurve,
		EnergyCurveHz:   params.EnergyCurveHz,
		LoudnessDB:      math.Round(loudness*10) / 10,
		BeatTimes:       beatTimes,
		DownbeatIndices: downbeats,
		Segments:        segments,
		MixPoints:       mixPoints,
		Hints:           hints,
		Highlights:      highlights,
	}
}

// Job pairs a track id with its decoded PCM for a batch analysis run.
type Job struct {
	TrackID    string
	PCM        []float32
	SampleRate int
	Params     Params
}

// Result is one Job's outcome.
type Result struct {
	TrackID string
	Report  AnalysisReport
	Err     error
}

// AnalyzeBatch fans jobs out across a bounded worker pool (§5: the
// analyzer may run many tracks concurrently, bounded by a fixed
// concurrency cap) and returns one Result per job, preserving input order.
// It stops launching new jobs once ctx is canceled, but always returns a
// Result for every job (canceled-but-not-started jobs carry ctx.Err()).
func AnalyzeBatch(ctx context.Context, jobs []Job, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(jobs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, j := range jobs {
		select {
		case <-ctx.Done():
			results[i] = Result{TrackID: j.TrackID, Err: ctx.Err()}
			continue
		default:
		}
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				results[idx] = Result{TrackID: job.TrackID, Err: ctx.Err()}
				return
			default:
			}
			report := AnalyzeTrack(job.PCM, job.SampleRate, job.Params)
			results[idx] = Result{TrackID: job.TrackID, Report: report}
		}(i, j)
	}
	wg.Wait()
	return results
}
