// Package criteria defines MixCriteria, the recognized constraint set a
// caller (typically the opaque ConstraintExtractor) hands to the engine,
// and validates it before planning starts.
package criteria

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// EnergyCurve is the aggregate target shape for the plan's energy arc.
type EnergyCurve string

const (
	CurveBuild      EnergyCurve = "build"
	CurveDrop       EnergyCurve = "drop"
	CurveWave       EnergyCurve = "wave"
	CurveSteady     EnergyCurve = "steady"
	CurvePeakMiddle EnergyCurve = "peak-middle"
)

// FamiliarityPreference steers the deep-cuts/hits selection terms.
type FamiliarityPreference string

const (
	FamiliarityHits     FamiliarityPreference = "hits"
	FamiliarityDeepCuts FamiliarityPreference = "deep-cuts"
	FamiliarityAny      FamiliarityPreference = "any"
)

// BPMRange is a min/max tempo window; Max must be >= Min when both are set.
type BPMRange struct {
	Min float64 `json:"min" validate:"omitempty,gte=0"`
	Max float64 `json:"max" validate:"omitempty,gte=0"`
}

// EnergyRange is a 1..10 coarse energy window (matching how criteria
// typically arrive from a natural-language extractor).
type EnergyRange struct {
	Min int `json:"min" validate:"omitempty,min=1,max=10"`
	Max int `json:"max" validate:"omitempty,min=1,max=10"`
}

// MixCriteria is the full recognized constraint set from §3. Unspecified
// (zero-value) fields mean "unconstrained" except where noted.
type MixCriteria struct {
	IncludeArtists   []string `json:"includeArtists,omitempty" validate:"dive,required"`
	ReferenceArtists []string `json:"referenceArtists,omitempty" validate:"dive,required"`
	ExcludedArtists  []string `json:"excludedArtists,omitempty" validate:"dive,required"`

	TargetTrackCount int `json:"targetTrackCount" validate:"required,gt=0"`

	BPMRange    *BPMRange    `json:"bpmRange,omitempty"`
	EnergyRange *EnergyRange `json:"energyRange,omitempty"`

	EnergyCurveTag EnergyCurve `json:"energyCurve,omitempty" validate:"omitempty,oneof=build drop wave steady peak-middle"`

	GenreFamilies []string `json:"genreFamilies,omitempty"`
	Decades       []int    `json:"decades,omitempty"`

	Familiarity FamiliarityPreference `json:"familiarity,omitempty" validate:"omitempty,oneof=hits deep-cuts any"`

	// Seed is the PRNG seed for variety jitter (§4.4/§5); default 0 makes
	// test runs reproducible.
	Seed int64 `json:"seed,omitempty"`

	// Scenarios generalizes the teacher's randomized-scenario search
	// (SPEC_FULL supplemented feature 5). 0 or 1 means "run the
	// deterministic greedy pass exactly once," matching §4.5 directly.
	Scenarios int `json:"scenarios,omitempty" validate:"gte=0"`
}

var validate = validator.New()

// Validate enforces struct-level constraints and two cross-field rules: a
// BPM range or an energy range whose max is below its min. A failure is
// the ConstraintInconsistent error kind (§7), reported with the offending
// field.
func Validate(c MixCriteria) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConstraintInconsistent, err)
	}
	if c.BPMRange != nil && c.BPMRange.Max > 0 && c.BPMRange.Max < c.BPMRange.Min {
		return fmt.Errorf("%w: bpmRange.max (%.1f) < bpmRange.min (%.1f)",
			ErrConstraintInconsistent, c.BPMRange.Max, c.BPMRange.Min)
	}
	if c.EnergyRange != nil && c.EnergyRange.Max > 0 && c.EnergyRange.Max < c.EnergyRange.Min {
		return fmt.Errorf("%w: energyRange.max (%d) < energyRange.min (%d)",
			ErrConstraintInconsistent, c.EnergyRange.Max, c.EnergyRange.Min)
	}
	return nil
}

// ErrConstraintInconsistent is the sentinel for the ConstraintInconsistent
// error kind (§7); wrap it with errors.Is to detect this case.
var ErrConstraintInconsistent = fmt.Errorf("criteria: constraint inconsistent")

// EffectiveScenarios resolves the Scenarios field to its minimum
// meaningful value.
func (c MixCriteria) EffectiveScenarios() int {
	if c.Scenarios < 1 {
		return 1
	}
	return c.Scenarios
}
