package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")

	c := NewSentCache(path, time.Hour)
	require.NoError(t, c.Load()) // missing file is fine

	assert.False(t, c.WasSent("k1"))
	c.MarkSent("k1", "Title", "https://example.com/1")
	assert.True(t, c.WasSent("k1"))
	require.NoError(t, c.Save())

	// Fresh instance reads the same state back.
	c2 := NewSentCache(path, time.Hour)
	require.NoError(t, c2.Load())
	assert.True(t, c2.WasSent("k1"))
	assert.False(t, c2.WasSent("k2"))
}

func TestSentCacheExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")

	c := NewSentCache(path, time.Nanosecond)
	c.MarkSent("k1", "Title", "https://example.com/1")
	time.Sleep(time.Millisecond)

	assert.False(t, c.WasSent("k1"))
	assert.Equal(t, 1, c.Prune())

	require.NoError(t, c.Save())
	c2 := NewSentCache(path, time.Nanosecond)
	require.NoError(t, c2.Load())
	assert.False(t, c2.WasSent("k1"))
}

func TestSentCacheLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := NewSentCache(path, time.Hour)
	assert.Error(t, c.Load())
}
