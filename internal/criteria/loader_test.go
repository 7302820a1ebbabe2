package criteria

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCriteriaFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "criteria.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ReadsDocument(t *testing.T) {
	path := writeCriteriaFile(t, `{
		"version": "2.3",
		"last_updated": "2026-02-01",
		"thresholds": {"minReviewsForAnalysis": 7, "maxReviewsToAnalyze": 20}
	}`)

	c := NewLoader(path).Load(false)
	assert.Equal(t, "2.3", c.Version)
	assert.Equal(t, 7, c.Thresholds.MinReviewsForAnalysis)
	assert.Equal(t, 20, c.Thresholds.MaxReviewsToAnalyze)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	c := NewLoader(filepath.Join(t.TempDir(), "nope.json")).Load(false)
	assert.Equal(t, "builtin-1", c.Version)
	assert.NotEmpty(t, c.ReviewKeywords.Automotive)
}

func TestLoad_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := writeCriteriaFile(t, `{"version": "2.3",`)
	c := NewLoader(path).Load(false)
	assert.Equal(t, "builtin-1", c.Version)
}

func TestLoad_CachesWithinTTL(t *testing.T) {
	path := writeCriteriaFile(t, `{"version": "1"}`)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoader(path).WithNow(func() time.Time { return clock })

	first := l.Load(false)
	require.Equal(t, "1", first.Version)

	// Document changes on disk but the cache is still fresh.
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "2"}`), 0o644))

	clock = clock.Add(30 * time.Second)
	assert.Equal(t, "1", l.Load(false).Version)

	clock = clock.Add(31 * time.Second)
	assert.Equal(t, "2", l.Load(false).Version)
}

func TestLoad_ForceBypassesCache(t *testing.T) {
	path := writeCriteriaFile(t, `{"version": "1"}`)
	l := NewLoader(path)

	require.Equal(t, "1", l.Load(false).Version)
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "2"}`), 0o644))
	assert.Equal(t, "2", l.Load(true).Version)
}

func TestInvalidate_ClearsCache(t *testing.T) {
	path := writeCriteriaFile(t, `{"version": "1"}`)
	l := NewLoader(path)

	require.Equal(t, "1", l.Load(false).Version)
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "2"}`), 0o644))

	l.Invalidate()
	assert.Equal(t, "2", l.Load(false).Version)
}

func TestMinAutomotivePct(t *testing.T) {
	c := Defaults()
	assert.InDelta(t, 40.0, c.MinAutomotivePct(), 0.001)

	c.Features.IncludeMotorcycles = true
	assert.InDelta(t, 30.0, c.MinAutomotivePct(), 0.001)

	c.Thresholds.MinAutomotivePercentage = 0
	c.Features.IncludeMotorcycles = false
	assert.InDelta(t, 40.0, c.MinAutomotivePct(), 0.001)
}
