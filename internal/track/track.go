// Package track implements the normalized Track Metadata Model (C2): a
// uniform view over tracks regardless of how they entered the catalog.
package track

import "strings"

// Source identifies how a Track entered the candidate pool. Downstream
// components treat all sources uniformly; the one place Source is read is
// the in-library selection bonus.
type Source string

const (
	SourceProfessional Source = "professional_analysis"
	SourceCatalogAPI    Source = "catalog_api"
	SourceLibraryMatch  Source = "library_match"
	SourceCatalogSearch Source = "catalog_search"
)

// Track is the immutable-after-analysis record described in the data
// model. Two tracks with equal ID are the same track.
type Track struct {
	ID             string   `json:"id"`
	SourceURI      string   `json:"uri"`
	Title          string   `json:"title"`
	Artists        []string `json:"artists"` // first element is the primary artist
	DurationMillis int64    `json:"durationMs"`
	BPM            float64  `json:"bpm,omitempty"`        // 0 means unknown
	CamelotKey     string   `json:"camelotKey,omitempty"` // "" means undetected
	Energy         float64  `json:"energy"`                // [0,1], -1 means unknown
	Popularity     float64  `json:"popularity"`             // artist/track popularity, 0..100, -1 means unknown
	PlayCount      int64    `json:"playCount,omitempty"`
	Genre          string   `json:"genre,omitempty"`
	Decade         int      `json:"decade,omitempty"` // e.g. 2010, 0 means unknown
	Source         Source   `json:"source,omitempty"`
}

// UnknownEnergy marks an absent Energy value; real energies are in [0,1].
const UnknownEnergy = -1.0

// UnknownPopularity marks an absent Popularity value.
const UnknownPopularity = -1.0

// PrimaryArtist returns the first listed artist, or "" if none.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// HasArtist reports whether name (case-insensitively) matches any credited
// artist on the track.
func (t Track) HasArtist(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	for _, a := range t.Artists {
		if strings.ToLower(strings.TrimSpace(a)) == name {
			return true
		}
	}
	return false
}

// DurationSeconds is DurationMillis in floating-point seconds.
func (t Track) DurationSeconds() float64 {
	return float64(t.DurationMillis) / 1000.0
}

// EffectiveBPM resolves a track's tempo per §4.2: the analyzer's measured
// BPM takes precedence; criteriaBPM (e.g. a criteria-provided fallback, or
// another track's tempo in a bridging computation) is used when the
// analysis has none. Returns 0 if neither is available.
func (t Track) EffectiveBPM(criteriaBPM float64) float64 {
	if t.BPM > 0 {
		return t.BPM
	}
	return criteriaBPM
}

// EffectiveEnergy resolves a track's energy in [0,1]. If Energy is
// unknown but a 1..10 scale value is available (e.g. from a coarse
// catalog rating), pass it via ratingOneToTen; it is rescaled by /10.
// Returns UnknownEnergy if neither is available.
func (t Track) EffectiveEnergy(ratingOneToTen float64) float64 {
	if t.Energy >= 0 {
		return t.Energy
	}
	if ratingOneToTen > 0 {
		return ratingOneToTen / 10.0
	}
	return UnknownEnergy
}

// HasPositivePlayCount reports whether the track has been played at least
// once, one of the two triggers for the selection scorer's in-library
// bonus (§4.4).
func (t Track) HasPositivePlayCount() bool {
	return t.PlayCount > 0
}

// IsProfessionallyAnalyzed reports whether the track's provenance is a
// professional analysis, the other trigger for the in-library bonus.
func (t Track) IsProfessionallyAnalyzed() bool {
	return t.Source == SourceProfessional
}
