package libstrip_test

import (
	"testing"

	"github.com/2x3systems/gostrip/libstrip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapLoneliestFirst(t *testing.T) {
	g, _, err := libstrip.BuildGraph(gridMesh(2, 2), 8, 9)
	require.NoError(t, err)
	h := libstrip.NewCandidateHeap(g, true)

	// Degrees are 1 3 2 2 2 2 3 1; ties go to the lower index
	ti, ok := h.PopLoneliest()
	require.True(t, ok)
	assert.Equal(t, int32(0), ti)
	assert.True(t, h.IsErased(0))

	ti, _ = h.PopLoneliest()
	assert.Equal(t, int32(7), ti)

	assert.Equal(t, int32(1), h.DecrementDegree(3))
	ti, _ = h.PopLoneliest()
	assert.Equal(t, int32(3), ti)

	h.Erase(2)
	var rest []int32
	for {
		ti, ok := h.PopLoneliest()
		if !ok {
			break
		}
		rest = append(rest, ti)
	}
	assert.Equal(t, []int32{4, 5, 1, 6}, rest)
}

func TestHeapSkipsIsolated(t *testing.T) {
	g, _, err := libstrip.BuildGraph([]uint32{0, 1, 2, 3, 4, 5}, 2, 6)
	require.NoError(t, err)

	h := libstrip.NewCandidateHeap(g, true)
	_, ok := h.PopLoneliest()
	assert.False(t, ok)

	h = libstrip.NewCandidateHeap(g, false)
	ti, ok := h.PopLoneliest()
	require.True(t, ok)
	assert.Equal(t, int32(0), ti)
	ti, ok = h.PopLoneliest()
	require.True(t, ok)
	assert.Equal(t, int32(1), ti)
	_, ok = h.PopLoneliest()
	assert.False(t, ok)
}

func TestHeapDegreeUnderflow(t *testing.T) {
	g, _, err := libstrip.BuildGraph([]uint32{0, 1, 2}, 1, 3)
	require.NoError(t, err)
	h := libstrip.NewCandidateHeap(g, false)
	requireViolation(t, func() {
		h.DecrementDegree(0)
	})
}
