package libstrip_test

import (
	"testing"

	"github.com/2x3systems/gostrip/libstrip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRejectsShortStrips(t *testing.T) {
	p := libstrip.NewSelectionPolicy(3, true)
	assert.False(t, p.Challenge(libstrip.Strip{Start: 0, Size: 0}, 0, 100))
	assert.False(t, p.Challenge(libstrip.Strip{Start: 0, Size: 2}, 0, 100))
	_, ok := p.Best()
	assert.False(t, ok)

	assert.True(t, p.Challenge(libstrip.Strip{Start: 1, Size: 3}, 2, 0))
	best, ok := p.Best()
	require.True(t, ok)
	assert.Equal(t, int32(1), best.Strip.Start)

	p.Reset()
	_, ok = p.Best()
	assert.False(t, ok)
}

func TestPolicyCacheAwareRanking(t *testing.T) {
	p := libstrip.NewSelectionPolicy(0, true)

	require.True(t, p.Challenge(libstrip.Strip{Start: 1, Size: 10}, 1, 2))

	// More cache hits outrank everything else
	require.True(t, p.Challenge(libstrip.Strip{Start: 2, Size: 2}, 3, 3))

	// Equal hits: the lower start degree wins
	require.True(t, p.Challenge(libstrip.Strip{Start: 3, Size: 1}, 2, 3))
	require.False(t, p.Challenge(libstrip.Strip{Start: 4, Size: 9}, 3, 3))

	// Equal hits and degree: the longer strip wins
	require.True(t, p.Challenge(libstrip.Strip{Start: 5, Size: 4}, 2, 3))

	// A full tie keeps the incumbent
	require.False(t, p.Challenge(libstrip.Strip{Start: 6, Size: 4}, 2, 3))

	best, _ := p.Best()
	assert.Equal(t, libstrip.Candidate{Strip: libstrip.Strip{Start: 5, Size: 4}, Degree: 2, CacheHits: 3}, best)
}

func TestPolicyLongestWithoutCache(t *testing.T) {
	p := libstrip.NewSelectionPolicy(1, false)
	require.True(t, p.Challenge(libstrip.Strip{Start: 1, Size: 2}, 3, 0))
	require.False(t, p.Challenge(libstrip.Strip{Start: 2, Size: 2}, 0, 50))
	require.True(t, p.Challenge(libstrip.Strip{Start: 3, Size: 5}, 3, 0))

	best, _ := p.Best()
	assert.Equal(t, int32(3), best.Strip.Start)
}
