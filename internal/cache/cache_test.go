package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividhyeok/mixplan/internal/analysis"
)

func TestPutThenGetRoundTrips(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	report := analysis.AnalysisReport{BPM: 124, CamelotKey: "8A"}
	require.NoError(t, s.Put("track-1", "3", report))

	got, ok := s.Get("track-1", "3")
	require.True(t, ok)
	assert.Equal(t, report, got)

	_, exists := s.LastUsed("track-1")
	assert.True(t, exists)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Get("nope", "3")
	assert.False(t, ok)
}

func TestFlushRemovesAllEntries(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("a", "3", analysis.AnalysisReport{BPM: 100}))
	require.NoError(t, s.Put("b", "3", analysis.AnalysisReport{BPM: 110}))
	require.NoError(t, s.Flush())

	_, ok := s.Get("a", "3")
	assert.False(t, ok)
	_, ok = s.Get("b", "3")
	assert.False(t, ok)
}

func TestConcurrentPutsSameKeyDontCorrupt(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(bpm float64) {
			defer wg.Done()
			_ = s.Put("shared", "3", analysis.AnalysisReport{BPM: bpm})
		}(float64(100 + i))
	}
	wg.Wait()

	got, ok := s.Get("shared", "3")
	require.True(t, ok)
	assert.GreaterOrEqual(t, got.BPM, 100.0)
}
