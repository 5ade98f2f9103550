package libstrip

import (
	"github.com/2x3systems/gostrip/gostrip"
)

// CacheSimulator models a GPU post-transform vertex cache as a fixed-capacity FIFO.
//
// A CacheSimulator owns its storage: Clone and CopyFrom never share entries with the source,
// so a speculative walk on a copy cannot disturb the original.
type CacheSimulator struct {
	fifo     []uint32 // ring buffer; fifo[next] is the oldest entry once full
	next     int      // slot the next push writes
	filled   int      // number of valid entries
	hits     int      // hits counted by Access since the last reset
	pushHits bool     // if set, a hit vertex is pushed again
}

// NewCacheSimulator returns an empty simulator holding up to capacity vertices.
func NewCacheSimulator(capacity int, pushHits bool) CacheSimulator {
	if capacity < 1 {
		capacity = 1
	}
	return CacheSimulator{
		fifo:     make([]uint32, capacity),
		pushHits: pushHits,
	}
}

// Capacity returns the max number of vertices held.
func (cs *CacheSimulator) Capacity() int {
	return len(cs.fifo)
}

// Len returns the number of vertices currently held.
func (cs *CacheSimulator) Len() int {
	return cs.filled
}

// Contains returns true if the given vertex would hit.
func (cs *CacheSimulator) Contains(v uint32) bool {
	for _, vi := range cs.fifo[:cs.filled] {
		if vi == v {
			return true
		}
	}
	return false
}

// Push inserts v as the most recent entry.  If the cache was full, the oldest entry is evicted and returned.
func (cs *CacheSimulator) Push(v uint32) (evicted uint32, didEvict bool) {
	if cs.filled == len(cs.fifo) {
		evicted, didEvict = cs.fifo[cs.next], true
	} else {
		cs.filled++
	}
	cs.fifo[cs.next] = v
	cs.next++
	if cs.next == len(cs.fifo) {
		cs.next = 0
	}
	return
}

// Access simulates the GPU fetching vertex v: a hit is counted, and v is pushed unless it hit and hits are not re-pushed.
func (cs *CacheSimulator) Access(v uint32) (hit bool) {
	hit = cs.Contains(v)
	if hit {
		cs.hits++
	}
	if !hit || cs.pushHits {
		cs.Push(v)
	}
	return hit
}

// HitCount returns the number of hits counted by Access since the last reset.
func (cs *CacheSimulator) HitCount() int {
	return cs.hits
}

// ResetHits zeroes the hit counter.
func (cs *CacheSimulator) ResetHits() {
	cs.hits = 0
}

// Reset empties the cache and zeroes the hit counter.
func (cs *CacheSimulator) Reset() {
	cs.next = 0
	cs.filled = 0
	cs.hits = 0
}

// Clone returns an independent copy of this simulator with its hit counter zeroed.
func (cs *CacheSimulator) Clone() CacheSimulator {
	dup := CacheSimulator{
		fifo:     make([]uint32, len(cs.fifo)),
		pushHits: cs.pushHits,
	}
	dup.CopyFrom(cs)
	return dup
}

// CopyFrom overwrites this simulator's contents with src's (reusing this simulator's storage) and zeroes the hit counter.
func (cs *CacheSimulator) CopyFrom(src *CacheSimulator) {
	if len(cs.fifo) != len(src.fifo) {
		cs.fifo = make([]uint32, len(src.fifo))
	}
	copy(cs.fifo, src.fifo)
	cs.next = src.next
	cs.filled = src.filled
	cs.pushHits = src.pushHits
	cs.hits = 0
}

// Fingerprint returns a value that changes whenever this simulator's observable state changes.
func (cs *CacheSimulator) Fingerprint() uint64 {
	h := uint64(14695981039346656037)
	mix := func(x uint64) {
		h ^= x
		h *= 1099511628211
	}
	mix(uint64(cs.next))
	mix(uint64(cs.filled))
	mix(uint64(cs.hits))
	for _, v := range cs.fifo[:cs.filled] {
		mix(uint64(v))
	}
	return h
}

// MeasureACMR returns the average number of cache misses per drawn triangle when the given groups are
// fed through a strict FIFO cache of the given size.  Restart sentinels are not fetched.
func MeasureACMR(groups []gostrip.PrimitiveGroup, cacheSize int, restart *uint32) float64 {
	if cacheSize < gostrip.MinCacheSize {
		cacheSize = gostrip.DefaultCacheSize
	}
	numTris := gostrip.CountTriangles(groups, restart)
	if numTris == 0 {
		return 0
	}

	sim := NewCacheSimulator(cacheSize, false)
	misses := 0
	for _, group := range groups {
		for _, idx := range group.Indices {
			if restart != nil && idx == *restart {
				continue
			}
			if !sim.Access(idx) {
				misses++
			}
		}
	}
	return float64(misses) / float64(numTris)
}
