package libstrip_test

import (
	"testing"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/2x3systems/gostrip/libstrip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapIndices(t *testing.T) {
	groups := []gostrip.PrimitiveGroup{strip(5, 3, 9, 3), list(9, 1, 5)}
	remapped, newToOld, err := libstrip.RemapIndices(groups, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 3, 9, 1}, newToOld)
	assert.Equal(t, []gostrip.PrimitiveGroup{strip(0, 1, 2, 1), list(2, 3, 0)}, remapped)

	// The source groups are untouched
	assert.Equal(t, []uint32{5, 3, 9, 3}, groups[0].Indices)

	// Remapping preserves the drawn triangles under the inverse mapping
	back := make([]gostrip.PrimitiveGroup, len(remapped))
	for gi, group := range remapped {
		back[gi] = gostrip.PrimitiveGroup{Type: group.Type}
		for _, idx := range group.Indices {
			back[gi].Indices = append(back[gi].Indices, newToOld[idx])
		}
	}
	assert.Equal(t, groups, back)
}

func TestRemapIndicesRestart(t *testing.T) {
	restart := uint32(99)
	remapped, newToOld, err := libstrip.RemapIndices([]gostrip.PrimitiveGroup{strip(7, 8, 6, 99, 6, 5, 7)}, 9, &restart)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 8, 6, 5}, newToOld)
	assert.Equal(t, []gostrip.PrimitiveGroup{strip(0, 1, 2, 99, 2, 3, 0)}, remapped)

	_, _, err = libstrip.RemapIndices([]gostrip.PrimitiveGroup{list(0, 1, 12)}, 9, &restart)
	require.ErrorIs(t, err, gostrip.ErrInvalidInput)
}
