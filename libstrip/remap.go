package libstrip

import (
	"github.com/2x3systems/gostrip/gostrip"
	"github.com/pkg/errors"
)

// RemapIndices renumbers vertices in order of first use across groups so that a vertex buffer reordered by the
// returned table is fetched front-to-back.
//
// newToOld[i] is the original index of the vertex now numbered i; vertices never referenced are not listed.
// Restart sentinels pass through unchanged.  An index >= vertexCount yields an error wrapping gostrip.ErrInvalidInput.
func RemapIndices(groups []gostrip.PrimitiveGroup, vertexCount int, restart *uint32) ([]gostrip.PrimitiveGroup, []uint32, error) {
	const unmapped = ^uint32(0)

	oldToNew := make([]uint32, vertexCount)
	for i := range oldToNew {
		oldToNew[i] = unmapped
	}
	newToOld := make([]uint32, 0, vertexCount)

	remapped := make([]gostrip.PrimitiveGroup, len(groups))
	for gi, group := range groups {
		indices := make([]uint32, len(group.Indices))
		for i, idx := range group.Indices {
			if restart != nil && idx == *restart {
				indices[i] = idx
				continue
			}
			if int64(idx) >= int64(vertexCount) {
				return nil, nil, errors.Wrapf(gostrip.ErrInvalidInput, "group %d: index %d is out of range (%d vertices)", gi, idx, vertexCount)
			}
			if oldToNew[idx] == unmapped {
				oldToNew[idx] = uint32(len(newToOld))
				newToOld = append(newToOld, idx)
			}
			indices[i] = oldToNew[idx]
		}
		remapped[gi] = gostrip.PrimitiveGroup{
			Type:    group.Type,
			Indices: indices,
		}
	}

	return remapped, newToOld, nil
}
