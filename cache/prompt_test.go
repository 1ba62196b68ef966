package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptCacheCompilesOnce(t *testing.T) {
	c := NewPromptCache()
	compiles := 0
	compile := func() (string, error) {
		compiles++
		return "compiled block", nil
	}

	for i := 0; i < 3; i++ {
		block, err := c.GetOrCompile("t1", "template-v1", 0, compile)
		require.NoError(t, err)
		assert.Equal(t, "compiled block", block)
	}
	assert.Equal(t, 1, compiles)
	assert.Equal(t, 1, c.Len())
}

func TestPromptCacheKeyedByTenantAndTemplate(t *testing.T) {
	c := NewPromptCache()
	compiles := 0
	compile := func() (string, error) {
		compiles++
		return "block", nil
	}

	_, _ = c.GetOrCompile("t1", "template-v1", 0, compile)
	_, _ = c.GetOrCompile("t2", "template-v1", 0, compile)
	_, _ = c.GetOrCompile("t1", "template-v2", 0, compile)
	assert.Equal(t, 3, compiles, "each (tenant, template) pair compiles separately")
}

func TestPromptCacheTenantTTLForcesRecompile(t *testing.T) {
	c := NewPromptCache()
	compiles := 0
	compile := func() (string, error) {
		compiles++
		return "block", nil
	}

	_, _ = c.GetOrCompile("t1", "template-v1", time.Nanosecond, compile)
	time.Sleep(5 * time.Millisecond)
	_, _ = c.GetOrCompile("t1", "template-v1", time.Nanosecond, compile)
	assert.Equal(t, 2, compiles, "entries older than the tenant TTL recompile")

	// A zero TTL keeps the tier-wide lifetime.
	_, _ = c.GetOrCompile("t1", "template-v1", 0, compile)
	assert.Equal(t, 2, compiles)
}

func TestPromptCacheCompileFailureNotCached(t *testing.T) {
	c := NewPromptCache()
	boom := errors.New("bad template")

	_, err := c.GetOrCompile("t1", "template-v1", 0, func() (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	// A later successful compile fills the slot.
	block, err := c.GetOrCompile("t1", "template-v1", 0, func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", block)
}
