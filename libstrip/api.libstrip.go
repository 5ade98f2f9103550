package libstrip

import (
	"context"

	"github.com/2x3systems/gostrip/gostrip"
)

var (
	LIB_VERSION = "v1.2026.1"
)

// Order names which vertex of a triangle leads when the triangle is emitted:
// OrderABC emits A B C, OrderBCA emits B C A, OrderCAB emits C A B.
type Order uint8

const (
	OrderABC Order = 0
	OrderBCA Order = 1
	OrderCAB Order = 2
)

var kOrderNames = [3]string{"ABC", "BCA", "CAB"}

func (o Order) String() string {
	return kOrderNames[o%3]
}

// firstSlot is the edge slot shared with the triangle preceding this one in a strip.
func (o Order) firstSlot() int {
	return int(o)
}

// lastSlot is the edge slot shared with the triangle following this one in a strip.
func (o Order) lastSlot() int {
	return (int(o) + 1) % 3
}

// Strip identifies a triangle strip by its first triangle, that triangle's order, and its triangle count.
// Replaying the walk from Start fully determines the strip's vertex sequence.
type Strip struct {
	Start int32
	Order Order
	Size  int
}

// IsEmpty returns true if this strip holds no triangles.
func (s Strip) IsEmpty() bool {
	return s.Size == 0
}

// Candidate is a scored strip: the start triangle's degree and the cache hits its walk scored.
type Candidate struct {
	Strip     Strip
	Degree    int32
	CacheHits int
}

// Stripify converts an index buffer of triangles into primitive groups using the given config.
//
// Invalid input yields an error wrapping gostrip.ErrInvalidInput before any work is done.
func Stripify(indices []uint32, cfg gostrip.Config) (*gostrip.Result, error) {
	return StripifyContext(context.Background(), indices, cfg)
}

// StripifyContext is Stripify with cancellation, checked between strip commits.
func StripifyContext(ctx context.Context, indices []uint32, cfg gostrip.Config) (*gostrip.Result, error) {
	b, err := NewBuilder(indices, cfg)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx)
}

// Summarize computes Stats for groups produced elsewhere (e.g. loaded from a Catalog).
func Summarize(mesh *gostrip.Mesh, groups []gostrip.PrimitiveGroup, cfg gostrip.Config) gostrip.Stats {
	st := gostrip.Stats{
		InputTriangles: len(mesh.Indices) / 3,
	}
	for _, group := range groups {
		n := gostrip.CountTriangles([]gostrip.PrimitiveGroup{group}, cfg.RestartIndex)
		switch group.Type {
		case gostrip.PrimStrip:
			st.StripCount++
			st.StripTriangles += n
		case gostrip.PrimList:
			st.ListTriangles += n
		}
		st.IndexCount += len(group.Indices)
	}
	st.DroppedTriangle = st.InputTriangles - st.StripTriangles - st.ListTriangles
	st.ACMR = MeasureACMR(groups, cfg.CacheSize, cfg.RestartIndex)
	return st
}

// StripifyMesh is a gostrip.StripifyFunc suitable for a gostrip.MeshStream.
var StripifyMesh gostrip.StripifyFunc = StripifyContext
