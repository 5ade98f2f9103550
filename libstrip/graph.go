package libstrip

import (
	"math"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// NoLink marks a boundary edge (no triangle shares it in reverse).
const NoLink int32 = -1

// Link connects an edge slot of one triangle to the edge slot of the triangle sharing that edge in reverse.
type Link struct {
	Tri  int32 // arena index of the neighbor, or NoLink
	Slot uint8 // neighbor's edge slot holding the reversed edge
}

// Triangle is a node of the connectivity graph.
//
// Edge slot 0 is (A,B), slot 1 is (B,C), slot 2 is (C,A).
type Triangle struct {
	V      [3]uint32 // A, B, C in source winding
	Links  [3]Link   // neighbor across each edge slot
	Source int       // triangle position in the source index buffer

	used    bool   // committed to a strip
	visited uint32 // attempt tag of the last speculative walk that entered this triangle
}

// Edge returns the directed edge at the given slot.
func (tri *Triangle) Edge(slot int) (from, to uint32) {
	return tri.V[slot], tri.V[(slot+1)%3]
}

// Used returns true once this triangle has been committed to a strip.
func (tri *Triangle) Used() bool {
	return tri.used
}

// Graph owns every non-degenerate triangle in a flat arena.
// All cross references are arena indices.
type Graph struct {
	Tris []Triangle
}

type edgeRef struct {
	tri  int32
	slot uint8
}

func undirectedKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// InferVertexCount returns max(indices)+1 (or 0 for an empty buffer).
func InferVertexCount(indices []uint32) int {
	Nv := 0
	for _, idx := range indices {
		if int(idx) >= Nv {
			Nv = int(idx) + 1
		}
	}
	return Nv
}

// ValidateIndices checks that indices holds triangleCount triangles each referencing a vertex in [0, vertexCount).
func ValidateIndices(indices []uint32, triangleCount, vertexCount int) error {
	if triangleCount < 0 || triangleCount*3 != len(indices) {
		return errors.Wrapf(gostrip.ErrInvalidInput, "%d indices cannot hold %d triangles", len(indices), triangleCount)
	}
	if triangleCount > math.MaxInt32 {
		return errors.Wrapf(gostrip.ErrInvalidInput, "%d triangles exceeds the supported maximum", triangleCount)
	}
	for i, idx := range indices {
		if int64(idx) >= int64(vertexCount) {
			return errors.Wrapf(gostrip.ErrInvalidInput, "index %d (at position %d) is out of range for %d vertices", idx, i, vertexCount)
		}
	}
	return nil
}

// BuildGraph validates the given index buffer and builds its triangle adjacency graph.
//
// Each edge is linked to at most one neighbor: the first triangle (in source order) holding the reversed edge
// whose own slot is still free.  Triangles with repeated indices are dropped and returned as warnings.
func BuildGraph(indices []uint32, triangleCount, vertexCount int) (*Graph, []gostrip.DegenerateTriangle, error) {
	if err := ValidateIndices(indices, triangleCount, vertexCount); err != nil {
		return nil, nil, err
	}

	var dropped []gostrip.DegenerateTriangle
	g := &Graph{
		Tris: make([]Triangle, 0, triangleCount),
	}

	for ti := 0; ti < triangleCount; ti++ {
		src := gostrip.Triangle{indices[3*ti], indices[3*ti+1], indices[3*ti+2]}
		if src.IsDegenerate() {
			warn := gostrip.DegenerateTriangle{Index: ti, V: src}
			dropped = append(dropped, warn)
			klog.V(1).Infof("libstrip: dropping %v", warn)
			continue
		}
		g.Tris = append(g.Tris, Triangle{
			V:      src,
			Links:  [3]Link{{Tri: NoLink}, {Tri: NoLink}, {Tri: NoLink}},
			Source: ti,
		})
	}

	// Bucket every directed edge by its unordered vertex pair
	buckets := make(map[uint64][]edgeRef, len(g.Tris)*3/2)
	for i := range g.Tris {
		tri := &g.Tris[i]
		for slot := 0; slot < 3; slot++ {
			a, b := tri.Edge(slot)
			key := undirectedKey(a, b)
			buckets[key] = append(buckets[key], edgeRef{int32(i), uint8(slot)})
		}
	}

	for i := range g.Tris {
		tri := &g.Tris[i]
		for slot := 0; slot < 3; slot++ {
			if tri.Links[slot].Tri != NoLink {
				continue
			}
			a, b := tri.Edge(slot)
			for _, ref := range buckets[undirectedKey(a, b)] {
				if ref.tri == int32(i) {
					continue
				}
				other := &g.Tris[ref.tri]
				if other.Links[ref.slot].Tri != NoLink {
					continue
				}
				if oa, ob := other.Edge(int(ref.slot)); oa == b && ob == a {
					tri.Links[slot] = Link{Tri: ref.tri, Slot: ref.slot}
					other.Links[ref.slot] = Link{Tri: int32(i), Slot: uint8(slot)}
					break
				}
			}
		}
	}

	return g, dropped, nil
}

// NumTriangles returns the number of triangles in the arena.
func (g *Graph) NumTriangles() int {
	return len(g.Tris)
}

// Degree returns the number of unused neighbors of the given triangle.
func (g *Graph) Degree(ti int32) int32 {
	degree := int32(0)
	for _, link := range g.Tris[ti].Links {
		if link.Tri != NoLink && !g.Tris[link.Tri].used {
			degree++
		}
	}
	return degree
}

// markUsed commits the given triangle, panicking if it was already committed.
func (g *Graph) markUsed(ti int32) {
	tri := &g.Tris[ti]
	if tri.used {
		gostrip.Violatef("triangle %d (source #%d) committed twice", ti, tri.Source)
	}
	tri.used = true
}
