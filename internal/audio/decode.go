// Package audio decodes source tracks into the mono float32 PCM stream C3
// analyzes, grounded on the teacher's ffmpeg-subprocess decode step.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
)

var ffmpegPath = "ffmpeg"

// InitFFmpeg resolves the ffmpeg binary from FFMPEG_PATH, falling back to
// the one on PATH, matching the teacher's startup wiring.
func InitFFmpeg() {
	if p := os.Getenv("FFMPEG_PATH"); p != "" {
		ffmpegPath = p
	}
}

// SampleRate is the fixed decode rate C3's analysis parameters assume.
const SampleRate = 22050

// DecodeFile decodes path to mono float32 PCM at SampleRate via an ffmpeg
// subprocess. This is the engine's only external-I/O suspension point
// besides catalog lookups (§5).
func DecodeFile(path string) ([]float32, int, error) {
	cmd := exec.Command(ffmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-",
	)
	hideWindow(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("audio: start ffmpeg: %w (%s)", err, stderr.String())
	}

	data, err := io.ReadAll(stdout)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read: %w", err)
	}
	if waitErr := cmd.Wait(); waitErr != nil {
		return nil, 0, fmt.Errorf("audio: ffmpeg %s: %w (%s)", path, waitErr, stderr.String())
	}

	numSamples := len(data) / 4
	if numSamples == 0 {
		return nil, 0, fmt.Errorf("audio: no data decoded from %s (stderr: %s)", path, stderr.String())
	}
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, SampleRate, nil
}
