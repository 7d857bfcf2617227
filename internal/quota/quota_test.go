package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildpulse/buildpulse/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	m.Run()
}

func TestUseEnforcesLimit(t *testing.T) {
	g := New(map[string]int{"api": 2})

	require.NoError(t, g.Use("api"))
	require.NoError(t, g.Use("api"))
	assert.Error(t, g.Use("api"))
	assert.False(t, g.Allow("api"))
}

func TestZeroLimitIsUnlimited(t *testing.T) {
	g := New(map[string]int{"api": 0})
	for i := 0; i < 100; i++ {
		require.NoError(t, g.Use("api"))
	}
	assert.True(t, g.Allow("api"))
}

func TestStats(t *testing.T) {
	g := New(map[string]int{"api": 5})
	require.NoError(t, g.Use("api"))

	stats := g.Stats()
	assert.Equal(t, 1, stats["api"]["used"])
	assert.Equal(t, 5, stats["api"]["limit"])
}

func TestMidnightReset(t *testing.T) {
	g := New(map[string]int{"api": 1})
	require.NoError(t, g.Use("api"))
	assert.Error(t, g.Use("api"))

	// Force the reset boundary into the past.
	g.mu.Lock()
	g.resetTime = time.Now().Add(-time.Second)
	g.mu.Unlock()

	assert.True(t, g.Allow("api"))
	assert.NoError(t, g.Use("api"))
}
