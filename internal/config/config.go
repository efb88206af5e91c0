// Package config loads the engine's tunable weights and thresholds from a
// TOML side-car file, generalizing the teacher's JSON weights.go into the
// richer surface §4.4/§4.5/§4.6 call for.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Weights holds every tunable constant the scoring/ordering/transition
// stages use. Values default to the numbers given in spec.md; operators
// can override individual fields via the TOML file without touching code.
type Weights struct {
	// Selection (§4.4)
	InLibraryBonus          float64 `toml:"in_library_bonus"`
	AnalysisPresentBonus    float64 `toml:"analysis_present_bonus"`
	BPMMatchBonus           float64 `toml:"bpm_match_bonus"`
	BPMMismatchPenalty      float64 `toml:"bpm_mismatch_penalty"`
	BPMUnknownPenalty       float64 `toml:"bpm_unknown_penalty"`
	EnergyMismatchPenalty   float64 `toml:"energy_mismatch_penalty"`
	IncludeArtistBonus      float64 `toml:"include_artist_bonus"`
	ReferenceArtistBonus    float64 `toml:"reference_artist_bonus"`
	RecentlyUsedPenalty     float64 `toml:"recently_used_penalty"`
	GenreHardFailPenalty    float64 `toml:"genre_hard_fail_penalty"`
	GenreUnknownPenalty     float64 `toml:"genre_unknown_penalty"`

	// Ordering (§4.5)
	OpenerKeyKnownBonus   float64 `toml:"opener_key_known_bonus"`
	OpenerEnergyBandBonus float64 `toml:"opener_energy_band_bonus"`
	OpenerBPMBandBonus    float64 `toml:"opener_bpm_band_bonus"`

	// Transition (§4.6)
	PhraseSnapToleranceSec      float64 `toml:"phrase_snap_tolerance_sec"`
	VocalEnergyDisqualifyThresh float64 `toml:"vocal_energy_disqualify_threshold"`

	// Crossfade bars by genre family, overriding the §4.3 defaults.
	CrossfadeBars map[string]int `toml:"crossfade_bars"`
}

// DefaultWeights mirror spec.md's literal constants.
func DefaultWeights() Weights {
	return Weights{
		InLibraryBonus:         30,
		AnalysisPresentBonus:   20,
		BPMMatchBonus:          20,
		BPMMismatchPenalty:     -50,
		BPMUnknownPenalty:      -15,
		EnergyMismatchPenalty:  -30,
		IncludeArtistBonus:     20,
		ReferenceArtistBonus:   10,
		RecentlyUsedPenalty:    -25,
		GenreHardFailPenalty:   -200,
		GenreUnknownPenalty:    -40,
		OpenerKeyKnownBonus:    20,
		OpenerEnergyBandBonus:  15,
		OpenerBPMBandBonus:          10,
		PhraseSnapToleranceSec:      0.5,
		VocalEnergyDisqualifyThresh: 0.6,
		CrossfadeBars: map[string]int{
			"house": 32, "techno": 32, "trance": 32,
			"drumnbass": 16, "dubstep": 8, "hiphop": 8,
			"disco": 16, "funk": 16, "pop": 8, "indie": 8,
		},
	}
}

// Load reads weights from a TOML file, falling back to DefaultWeights when
// the file is absent. A present-but-malformed file is an error.
func Load(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultWeights(), nil
		}
		return DefaultWeights(), fmt.Errorf("config: read %s: %w", path, err)
	}
	w := DefaultWeights()
	if _, err := toml.Decode(string(data), &w); err != nil {
		return DefaultWeights(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return w, nil
}

// Save writes weights to a TOML file, creating parent directories as
// needed.
func Save(path string, w Weights) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(w)
}
