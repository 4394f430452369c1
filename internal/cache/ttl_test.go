package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCachesWithinWindow(t *testing.T) {
	c := NewTTL[[]string](time.Minute)

	loads := 0
	load := func() ([]string, error) {
		loads++
		return []string{"admin@example.com"}, nil
	}

	got, err := c.Get(load)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin@example.com"}, got)

	_, err = c.Get(load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestTTLReloadsAfterExpiry(t *testing.T) {
	c := NewTTL[int](time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	loads := 0
	load := func() (int, error) {
		loads++
		return loads, nil
	}

	got, err := c.Get(load)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	now = now.Add(2 * time.Minute)

	got, err = c.Get(load)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestTTLInvalidateForcesReload(t *testing.T) {
	c := NewTTL[int](time.Hour)

	loads := 0
	load := func() (int, error) {
		loads++
		return loads, nil
	}

	c.Get(load)
	c.Invalidate()
	got, err := c.Get(load)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestTTLFailedLoadKeepsStaleValue(t *testing.T) {
	c := NewTTL[string](time.Minute)

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Get(func() (string, error) { return "first", nil })
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	got, err := c.Get(func() (string, error) { return "", errors.New("load failed") })
	assert.Error(t, err)
	assert.Equal(t, "first", got)
}
