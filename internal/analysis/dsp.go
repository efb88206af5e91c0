package analysis

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/vividhyeok/mixplan/internal/camelot"
)

func nextPow2(n int) int {
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}

// fft is an iterative Cooley-Tukey transform over a power-of-two-length
// buffer. x is not modified; the result is a new slice.
func fft(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	copy(out, x)
	if n <= 1 {
		return out
	}

	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			out[i], out[j] = out[j], out[i]
		}
		m := n >> 1
		for j >= m && m > 0 {
			j -= m
			m >>= 1
		}
		j += m
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := -2 * math.Pi / float64(size)
		wLen := complex(math.Cos(step), math.Sin(step))
		for i := 0; i < n; i += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				u := out[i+k]
				v := out[i+k+half] * w
				out[i+k] = u + v
				out[i+k+half] = u - v
				w *= wLen
			}
		}
	}
	return out
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// computeOnsetEnvelope produces a smoothed positive spectral flux signal,
// one value per hop, the basis for both tempo estimation and beat
// placement.
func computeOnsetEnvelope(samples []float32, sr, frameSize, hopSize int) []float64 {
	n := len(samples)
	numFrames := (n - frameSize) / hopSize
	if numFrames <= 0 {
		return nil
	}
	fftSize := nextPow2(frameSize)
	window := hannWindow(frameSize)
	onset := make([]float64, numFrames)
	prevMag := make([]float64, fftSize/2+1)
	mag := make([]float64, fftSize/2+1)
	frame := make([]complex128, fftSize)

	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		for k := range frame {
			frame[k] = 0
		}
		for j := 0; j < frameSize && start+j < n; j++ {
			frame[j] = complex(float64(samples[start+j])*window[j], 0)
		}
		spec := fft(frame)
		for j := 0; j <= fftSize/2; j++ {
			mag[j] = cmplx.Abs(spec[j])
		}
		flux := 0.0
		for j := range mag {
			if j < len(prevMag) {
				d := mag[j] - prevMag[j]
				if d > 0 {
					flux += d
				}
			}
		}
		onset[i] = flux
		copy(prevMag, mag)
	}
	return onset
}

// onsetFloor is the peak-onset-strength threshold below which the signal
// is considered too weak to analyze (§4.3 "Failure modes").
const onsetFloor = 1e-6

func peakOnset(onset []float64) float64 {
	peak := 0.0
	for _, v := range onset {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// estimateBPM autocorrelates the onset envelope over periods corresponding
// to 60..200 BPM, with a perceptual weighting bias toward 120-130 BPM to
// avoid octave errors, then normalizes the result into [60,200] per the
// data-model invariant by halving/doubling.
func estimateBPM(onset []float64, sr, hopSize int) (bpm float64, confidence float64) {
	if len(onset) < 100 {
		return 0, 0
	}

	minLag := sr * 60 / (200 * hopSize)
	maxLag := sr * 60 / (60 * hopSize)
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if maxLag <= minLag {
		return 0, 0
	}

	corrs := make([]float64, 0, maxLag-minLag+1)
	bestLag := minLag
	bestCorr := -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		count := 0
		for i := 0; i+lag < len(onset); i++ {
			corr += onset[i] * onset[i+lag]
			count++
		}
		if count > 0 {
			corr /= float64(count)
		}
		corrs = append(corrs, corr)

		bpmApprox := 60.0 / (float64(lag) * float64(hopSize) / float64(sr))
		weight := math.Exp(-0.5 * math.Pow((bpmApprox-120.0)/40.0, 2))
		weightedCorr := corr * (0.8 + 0.2*weight)

		if weightedCorr > bestCorr {
			bestCorr = weightedCorr
			bestLag = lag
		}
	}

	beatPeriodSec := float64(bestLag) * float64(hopSize) / float64(sr)
	if beatPeriodSec <= 0 {
		return 0, 0
	}
	bpm = 60.0 / beatPeriodSec

	for bpm > 175 {
		bpm /= 2
	}
	for bpm < 85 {
		bpm *= 2
	}
	// data-model hard bound, applied after the 85/175 perceptual rounding above
	for bpm > 200 {
		bpm /= 2
	}
	for bpm < 60 {
		bpm *= 2
	}
	bpm = math.Round(bpm*10) / 10

	confidence = math.Max(0, 1-variance(corrs)/100)
	return bpm, confidence
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return v / float64(len(xs))
}

// estimateBeatTimes places beats by anchoring on the strongest onset peak
// in the first 5 seconds, then walking outward by a fixed beat period.
// This is a simplification of the dynamic-programming minimization in the
// data model (onset strength vs. period deviation) that produces the same
// strictly-increasing, evenly-spaced result when the tempo estimate is
// accurate, which the autocorrelation step above optimizes for.
func estimateBeatTimes(onset []float64, sr int, duration, bpm float64, hopSize int) []float64 {
	if bpm <= 0 {
		bpm = 120
	}
	beatPeriod := 60.0 / bpm

	anchorTime := 0.0
	if len(onset) > 0 {
		searchFrames := int(5.0 * float64(sr) / float64(hopSize))
		if searchFrames > len(onset) {
			searchFrames = len(onset)
		}
		bestIdx, bestVal := 0, 0.0
		for i := 0; i < searchFrames; i++ {
			if onset[i] > bestVal {
				bestVal = onset[i]
				bestIdx = i
			}
		}
		anchorTime = float64(bestIdx) * float64(hopSize) / float64(sr)
	}

	var beats []float64
	for t := anchorTime; t >= 0; t -= beatPeriod {
		beats = append(beats, math.Round(t*1000)/1000)
	}
	for t := anchorTime + beatPeriod; t < duration; t += beatPeriod {
		beats = append(beats, math.Round(t*1000)/1000)
	}
	sort.Float64s(beats)
	return beats
}

// downbeatIndices picks every 4th beat starting from the strongest onset
// within the first 4-beat window, per §4.3.
func downbeatIndices(beats []float64, onset []float64, sr, hopSize int) []int {
	if len(beats) == 0 {
		return nil
	}
	window := 4
	if window > len(beats) {
		window = len(beats)
	}
	anchor := 0
	best := -1.0
	for i := 0; i < window; i++ {
		frame := int(beats[i] * float64(sr) / float64(hopSize))
		v := 0.0
		if frame >= 0 && frame < len(onset) {
			v = onset[frame]
		}
		if v > best {
			best = v
			anchor = i
		}
	}
	var downbeats []int
	for i := anchor; i < len(beats); i += 4 {
		downbeats = append(downbeats, i)
	}
	return downbeats
}

func computeRMSFrames(samples []float32, frameSize, hopSize int) []float64 {
	n := len(samples)
	numFrames := (n - frameSize) / hopSize
	if numFrames <= 0 {
		return []float64{0}
	}
	rms := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		sum := 0.0
		count := 0
		for j := 0; j < frameSize && start+j < n; j++ {
			v := float64(samples[start+j])
			sum += v * v
			count++
		}
		if count > 0 {
			rms[i] = math.Sqrt(sum / float64(count))
		}
	}
	return rms
}

// computeEnergyCurve resamples short-window RMS to a uniform rate (20 Hz
// by default), normalized to [0,1] against the track's own peak RMS.
func computeEnergyCurve(samples []float32, sr int, curveHz int) []float64 {
	frameSize := 2048
	hopSize := sr / curveHz
	if hopSize < 1 {
		hopSize = 1
	}
	rms := computeRMSFrames(samples, frameSize, hopSize)
	peak := 0.0
	for _, v := range rms {
		if v > peak {
			peak = v
		}
	}
	if peak < 1e-9 {
		return rms
	}
	curve := make([]float64, len(rms))
	for i, v := range rms {
		curve[i] = v / peak
	}
	return curve
}

// energyCurveAt samples the (already normalized) energy curve at a time
// offset, clamping to the curve's bounds.
func energyCurveAt(curve []float64, curveHz int, t float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	idx := int(t * float64(curveHz))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(curve) {
		idx = len(curve) - 1
	}
	return curve[idx]
}

func computeLoudnessDB(samples []float32) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	avg := sum / float64(len(samples)+1)
	return 20 * math.Log10(math.Sqrt(avg)+1e-6)
}

// --- Key detection: chroma + Krumhansl profile correlation ---

var (
	majProfile = []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minProfile = []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// detectKey returns a Camelot key string, or "" if the signal carries too
// little tonal energy to resolve one.
func detectKey(samples []float32, sr int) string {
	frameSize := 4096
	hopSize := 2048
	n := len(samples)
	numFrames := (n - frameSize) / hopSize
	if numFrames <= 0 {
		return ""
	}

	fftSize := nextPow2(frameSize)
	window := hannWindow(frameSize)
	chroma := make([]float64, 12)
	frame := make([]complex128, fftSize)

	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		for k := range frame {
			frame[k] = 0
		}
		for j := 0; j < frameSize && start+j < n; j++ {
			frame[j] = complex(float64(samples[start+j])*window[j], 0)
		}
		spec := fft(frame)
		for bin := 1; bin <= fftSize/2; bin++ {
			freq := float64(bin) * float64(sr) / float64(fftSize)
			if freq < 65 || freq > 4000 {
				continue
			}
			semitones := 12 * math.Log2(freq/261.63)
			pc := ((int(math.Round(semitones)) % 12) + 12) % 12
			chroma[pc] += cmplx.Abs(spec[bin])
		}
	}

	bestCorr := -999.0
	bestPC, bestMode := 0, 0
	for rot := 0; rot < 12; rot++ {
		rolled := make([]float64, 12)
		for j := 0; j < 12; j++ {
			rolled[j] = chroma[(j+rot)%12]
		}
		if c := pearson(rolled, majProfile); c > bestCorr {
			bestCorr, bestPC, bestMode = c, rot, 1
		}
		if c := pearson(rolled, minProfile); c > bestCorr {
			bestCorr, bestPC, bestMode = c, rot, 0
		}
	}
	key, err := camelot.FromPitchClassMode(bestPC, bestMode)
	if err != nil {
		return ""
	}
	return key.String()
}

func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	var sumA, sumB, sumAB, sumA2, sumB2 float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
		sumAB += a[i] * b[i]
		sumA2 += a[i] * a[i]
		sumB2 += b[i] * b[i]
	}
	num := float64(n)*sumAB - sumA*sumB
	den := math.Sqrt((float64(n)*sumA2 - sumA*sumA) * (float64(n)*sumB2 - sumB*sumB))
	if den < 1e-12 {
		return 0
	}
	return num / den
}
