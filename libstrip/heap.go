package libstrip

import (
	"github.com/2x3systems/gostrip/gostrip"
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"
)

// CandidateHeap is a min-priority queue of triangles keyed by degree (number of unused neighbors).
//
// Removal is lazy: Erase only sets a slot's tombstone, and DecrementDegree pushes a fresh entry rather than
// fixing up the old one.  PopLoneliest skips every entry whose slot is tombstoned or whose degree no longer
// matches the slot's current degree, so at most one entry per triangle is ever live.
type CandidateHeap struct {
	graph        *Graph
	slots        []heapSlot
	heap         *binaryheap.Heap
	skipIsolated bool
}

type heapSlot struct {
	degree     int32
	tombstoned bool
}

type heapEntry struct {
	tri    int32
	degree int32
}

// Loneliest first; ties go to the lower arena index so that output is deterministic.
func heapEntryComparator(a, b interface{}) int {
	ea := a.(heapEntry)
	eb := b.(heapEntry)
	if ea.degree != eb.degree {
		return int(ea.degree - eb.degree)
	}
	return int(ea.tri - eb.tri)
}

var _ utils.Comparator = heapEntryComparator

// NewCandidateHeap builds a heap over every triangle of g.
// If skipIsolated is set, PopLoneliest discards triangles whose degree is 0.
func NewCandidateHeap(g *Graph, skipIsolated bool) *CandidateHeap {
	h := &CandidateHeap{
		skipIsolated: skipIsolated,
	}
	h.Init(g)
	return h
}

// Init (re)loads this heap with every triangle of g.
func (h *CandidateHeap) Init(g *Graph) {
	h.graph = g
	h.slots = make([]heapSlot, len(g.Tris))
	h.heap = binaryheap.NewWith(heapEntryComparator)

	for i := range g.Tris {
		ti := int32(i)
		degree := g.Degree(ti)
		h.slots[i] = heapSlot{degree: degree}
		h.heap.Push(heapEntry{tri: ti, degree: degree})
	}
}

// PopLoneliest removes and returns the live triangle with the lowest degree.
// The returned triangle is tombstoned.  Returns false when no live triangle remains.
func (h *CandidateHeap) PopLoneliest() (int32, bool) {
	for {
		val, ok := h.heap.Pop()
		if !ok {
			return NoLink, false
		}
		entry := val.(heapEntry)
		slot := &h.slots[entry.tri]
		if slot.tombstoned || slot.degree != entry.degree {
			continue
		}
		if h.graph.Tris[entry.tri].used {
			gostrip.Violatef("live heap entry references committed triangle %d", entry.tri)
		}
		slot.tombstoned = true
		if entry.degree == 0 && h.skipIsolated {
			continue
		}
		return entry.tri, true
	}
}

// DecrementDegree lowers the degree of the given triangle (one of its neighbors was committed) and returns the new degree.
func (h *CandidateHeap) DecrementDegree(ti int32) int32 {
	slot := &h.slots[ti]
	if slot.degree <= 0 {
		gostrip.Violatef("degree of triangle %d would drop below 0", ti)
	}
	slot.degree--
	if !slot.tombstoned {
		h.heap.Push(heapEntry{tri: ti, degree: slot.degree})
	}
	return slot.degree
}

// Erase tombstones the given triangle so it is never popped.
func (h *CandidateHeap) Erase(ti int32) {
	h.slots[ti].tombstoned = true
}

// Degree returns the current degree of the given triangle.
func (h *CandidateHeap) Degree(ti int32) int32 {
	return h.slots[ti].degree
}

// IsErased returns true if the given triangle was popped or erased.
func (h *CandidateHeap) IsErased(ti int32) bool {
	return h.slots[ti].tombstoned
}

// NumEntries returns the number of physical entries, live or stale.
func (h *CandidateHeap) NumEntries() int {
	return h.heap.Size()
}
