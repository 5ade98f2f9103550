package libstrip_test

import (
	"math/rand"
	"testing"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/stretchr/testify/require"
)

// gridMesh returns a w x h quad grid of (w+1)*(h+1) vertices, two counter-clockwise triangles per quad.
func gridMesh(w, h int) []uint32 {
	var indices []uint32
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			a := uint32(r*(w+1) + c)
			b := a + 1
			d := a + uint32(w+1)
			e := d + 1
			indices = append(indices, a, d, b, b, d, e)
		}
	}
	return indices
}

// randomMesh returns numTris triangles over numVerts vertices (degenerates and non-manifold edges included).
func randomMesh(rng *rand.Rand, numVerts, numTris int) []uint32 {
	indices := make([]uint32, 3*numTris)
	for i := range indices {
		indices[i] = uint32(rng.Intn(numVerts))
	}
	return indices
}

func strip(indices ...uint32) gostrip.PrimitiveGroup {
	return gostrip.PrimitiveGroup{Type: gostrip.PrimStrip, Indices: indices}
}

func list(indices ...uint32) gostrip.PrimitiveGroup {
	return gostrip.PrimitiveGroup{Type: gostrip.PrimList, Indices: indices}
}

func requireViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected an invariant violation")
		_, ok := r.(*gostrip.InvariantViolation)
		require.True(t, ok, "expected *gostrip.InvariantViolation, got %T: %v", r, r)
	}()
	fn()
}
