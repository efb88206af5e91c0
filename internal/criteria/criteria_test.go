package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOK(t *testing.T) {
	c := MixCriteria{
		TargetTrackCount: 20,
		BPMRange:         &BPMRange{Min: 120, Max: 128},
		EnergyCurveTag:   CurveBuild,
		Familiarity:      FamiliarityDeepCuts,
	}
	assert.NoError(t, Validate(c))
}

func TestValidateBPMRangeInconsistent(t *testing.T) {
	c := MixCriteria{
		TargetTrackCount: 20,
		BPMRange:         &BPMRange{Min: 130, Max: 120},
	}
	err := Validate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintInconsistent)
	assert.Contains(t, err.Error(), "bpmRange")
}

func TestValidateEnergyRangeInconsistent(t *testing.T) {
	c := MixCriteria{
		TargetTrackCount: 20,
		EnergyRange:      &EnergyRange{Min: 8, Max: 3},
	}
	err := Validate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintInconsistent)
	assert.Contains(t, err.Error(), "energyRange")
}

func TestValidateRejectsZeroTrackCount(t *testing.T) {
	c := MixCriteria{TargetTrackCount: 0}
	assert.Error(t, Validate(c))
}

func TestEffectiveScenariosDefault(t *testing.T) {
	assert.Equal(t, 1, MixCriteria{}.EffectiveScenarios())
	assert.Equal(t, 1, MixCriteria{Scenarios: 1}.EffectiveScenarios())
	assert.Equal(t, 5, MixCriteria{Scenarios: 5}.EffectiveScenarios())
}
