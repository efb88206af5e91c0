package camelot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	k, err := Parse("8A")
	require.NoError(t, err)
	assert.Equal(t, Key{Number: 8, Mode: 'A'}, k)
	assert.Equal(t, "8A", k.String())

	_, err = Parse("13A")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Parse("8C")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFromPitchClassMode(t *testing.T) {
	// Scenario: A minor chroma (pitch class 9, mode 0) is 8A.
	k, err := FromPitchClassMode(9, 0)
	require.NoError(t, err)
	assert.Equal(t, "8A", k.String())

	// C major (pitch class 0, mode 1) is 8B.
	k, err = FromPitchClassMode(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "8B", k.String())

	_, err = FromPitchClassMode(12, 0)
	assert.Error(t, err)
	_, err = FromPitchClassMode(0, 2)
	assert.Error(t, err)
}

func TestCompatibilityScore(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"8A", "8A", 100},
		{"8A", "8B", 90},
		{"8A", "9A", 85},
		{"8A", "7A", 85},
		{"8A", "3A", 75}, // +7
		{"8A", "1A", 75}, // -7 (wraps to +5)
		{"8A", "10A", 60},
		{"8A", "6A", 60},
		{"8A", "4A", 30},
		{"8A", "4B", 30},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, CompatibilityScore(c.a, c.b), "%s -> %s", c.a, c.b)
	}
}

func TestCompatibilityScoreSymmetric(t *testing.T) {
	keys := []string{"1A", "4B", "8A", "8B", "12A", "6B"}
	for _, a := range keys {
		for _, b := range keys {
			assert.Equal(t, CompatibilityScore(a, b), CompatibilityScore(b, a), "%s <-> %s", a, b)
		}
	}
}

func TestCompatibilityScoreNeutralOnInvalid(t *testing.T) {
	assert.Equal(t, NeutralScore, CompatibilityScore("", "8A"))
	assert.Equal(t, NeutralScore, CompatibilityScore("nope", "nope"))
}

func TestAreCompatible(t *testing.T) {
	assert.True(t, AreCompatible("8A", "9A"))
	assert.True(t, AreCompatible("8A", "8B"))
	assert.False(t, AreCompatible("8A", "4A"))
}

func TestDescribeTransition(t *testing.T) {
	assert.Equal(t, "same key", DescribeTransition("8A", "8A"))
	assert.Equal(t, "relative major/minor", DescribeTransition("8A", "8B"))
	assert.Equal(t, "adjacent wheel step", DescribeTransition("8A", "9A"))
	assert.Equal(t, "energy boost (+7)", DescribeTransition("8A", "3A"))
	assert.Equal(t, "unknown key relation", DescribeTransition("?", "8A"))
}
