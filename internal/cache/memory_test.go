package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confiauto/agency-finder/internal/model"
)

var cdmx = model.Location{Lat: 19.4326, Lng: -99.1332}

func TestKey_Normalizes(t *testing.T) {
	assert.Equal(t, Key("  Agencias De Autos ", cdmx), Key("agencias de autos", cdmx))
	assert.Equal(t, "agencias de autos:19.4326,-99.1332", Key("agencias de autos", cdmx))
}

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory(0, 0)
	ctx := context.Background()
	payload := json.RawMessage(`{"agencies":[]}`)

	require.NoError(t, m.Set(ctx, "agencias de autos", cdmx, payload))

	got, ok, err := m.Get(ctx, "agencias de autos", cdmx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))
}

func TestMemory_MissWhenEmpty(t *testing.T) {
	m := NewMemory(0, 0)
	_, ok, err := m.Get(context.Background(), "agencias", cdmx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_WordOverlapFallback(t *testing.T) {
	// Low threshold so reordered words still match.
	m := NewMemory(0, 0.5)
	ctx := context.Background()
	payload := json.RawMessage(`{"cached":true}`)

	require.NoError(t, m.Set(ctx, "agencias de autos seminuevos", cdmx, payload))

	// Same tokens, different order: full overlap.
	got, ok, err := m.Get(ctx, "autos seminuevos de agencias", cdmx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, string(payload), string(got))

	// Mostly different tokens: below threshold, must miss.
	_, ok, err = m.Get(ctx, "talleres de hojalateria", cdmx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_TTLExpiry(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour, 0).WithNow(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "agencias", cdmx, json.RawMessage(`1`)))

	clock = clock.Add(30 * time.Minute)
	_, ok, _ := m.Get(ctx, "agencias", cdmx)
	assert.True(t, ok)

	clock = clock.Add(31 * time.Minute)
	_, ok, _ = m.Get(ctx, "agencias", cdmx)
	assert.False(t, ok)
}

func TestMemory_ClearOlderThan(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour, 0).WithNow(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "vieja", cdmx, json.RawMessage(`1`)))
	clock = clock.Add(48 * time.Hour)
	require.NoError(t, m.Set(ctx, "nueva", cdmx, json.RawMessage(`2`)))

	removed, err := m.ClearOlderThan(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = m.ClearOlderThan(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosine([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosine(nil, nil))
}
