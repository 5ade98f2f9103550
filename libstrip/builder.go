package libstrip

import (
	"context"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// BuildState is a step of the StripBuilder state machine.
type BuildState int32

const (
	SeedSelection BuildState = iota
	CandidateGeneration
	Commit
	Draining
	Done
)

func (st BuildState) String() string {
	return [...]string{"SeedSelection", "CandidateGeneration", "Commit", "Draining", "Done"}[st]
}

// Builder turns one index buffer into primitive groups.
//
// A Builder exclusively owns its graph, heap and canonical cache simulator and is not safe for concurrent use;
// independent Builders may run in parallel.
type Builder struct {
	// OnChallenge, if set, is called with every scored candidate strip.
	OnChallenge func(c Candidate)

	// OnCommit, if set, is called with each strip as it is committed.
	OnCommit func(c Candidate)

	cfg         gostrip.Config
	indices     []uint32
	vertexCount int
	graph       *Graph
	heap        *CandidateHeap
	ext         *StripExtender
	cache       CacheSimulator // canonical: only commits touch it
	scratch     CacheSimulator // disposable copy used to score each candidate
	keepLoners  bool
	pool        []int32
	pending     Candidate
	state       BuildState
	strips      []gostrip.PrimitiveGroup
	result      gostrip.Result
}

// NewBuilder validates indices and cfg and builds the connectivity graph and candidate heap.
func NewBuilder(indices []uint32, cfg gostrip.Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(indices)%3 != 0 {
		return nil, errors.Wrapf(gostrip.ErrInvalidInput, "index count %d is not a multiple of 3", len(indices))
	}

	vertexCount := cfg.VertexCount
	if vertexCount == 0 {
		vertexCount = InferVertexCount(indices)
	}
	if cfg.RestartIndex != nil && int64(*cfg.RestartIndex) < int64(vertexCount) {
		return nil, errors.Wrapf(gostrip.ErrBadConfig, "RestartIndex %d collides with a vertex index (%d vertices)", *cfg.RestartIndex, vertexCount)
	}

	graph, dropped, err := BuildGraph(indices, len(indices)/3, vertexCount)
	if err != nil {
		return nil, err
	}

	// With a minimum strip size of 0 or 1, an isolated triangle still forms a valid (single triangle) strip.
	keepLoners := cfg.MinStripSize <= 1

	maxSize := 0
	if cfg.CacheSimulation {
		maxSize = cfg.CacheSize - 2
	}

	b := &Builder{
		cfg:         cfg,
		indices:     indices,
		vertexCount: vertexCount,
		graph:       graph,
		heap:        NewCandidateHeap(graph, !keepLoners),
		ext:         NewStripExtender(graph, maxSize),
		keepLoners:  keepLoners,
		state:       SeedSelection,
	}
	if cfg.CacheSimulation {
		b.cache = NewCacheSimulator(cfg.CacheSize, cfg.PushCacheHits)
		b.scratch = b.cache.Clone()
	}

	b.result.Warnings = dropped
	b.result.Stats.InputTriangles = len(indices) / 3
	b.result.Stats.DroppedTriangle = len(dropped)
	return b, nil
}

// Graph returns the connectivity graph this builder operates on.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// State returns the current state of this builder.
func (b *Builder) State() BuildState {
	return b.state
}

// Run drives the state machine to completion and returns the assembled result.
//
// ctx is checked between commits; if it is done, Run returns ctx.Err() and the builder is left in a consistent
// state (every committed strip is complete).
func (b *Builder) Run(ctx context.Context) (*gostrip.Result, error) {
	for b.state != Done {
		switch b.state {

		case SeedSelection:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			seed, ok := b.heap.PopLoneliest()
			if !ok {
				b.state = Draining
				break
			}
			b.pool = append(b.pool[:0], seed)
			b.state = CandidateGeneration

		case CandidateGeneration:
			if len(b.pool) == 0 {
				b.state = SeedSelection
				break
			}
			if best, ok := b.findBestStrip(); ok {
				b.pending = best
				b.state = Commit
			}

		case Commit:
			b.commit(b.pending)
			b.state = CandidateGeneration
			if err := ctx.Err(); err != nil {
				return nil, err
			}

		case Draining:
			b.drain()
			b.assemble()
			b.state = Done
		}
	}

	res := b.result
	return &res, nil
}

// findBestStrip scores up to 3 forward and 6 backward strips per pooled candidate, emptying the pool.
func (b *Builder) findBestStrip() (Candidate, bool) {
	var before uint64
	if b.cfg.CacheSimulation {
		before = b.cache.Fingerprint()
	}

	policy := NewSelectionPolicy(b.cfg.MinStripSize, b.cfg.CacheSimulation)

	for len(b.pool) > 0 {
		ti := b.pool[len(b.pool)-1]
		b.pool = b.pool[:len(b.pool)-1]

		if b.graph.Tris[ti].used {
			continue
		}
		if b.heap.Degree(ti) == 0 && !b.keepLoners {
			continue
		}

		for o := OrderABC; o <= OrderCAB; o++ {
			sim := b.scoringCache()
			strip := b.ext.ExtendForward(ti, o, sim)
			b.challenge(&policy, strip, sim)
		}

		if b.cfg.BackwardSearch {
			for _, clockwise := range [2]bool{false, true} {
				for o := OrderABC; o <= OrderCAB; o++ {
					strip := b.ext.ExtendBackward(ti, o, clockwise)
					if strip.IsEmpty() {
						continue
					}
					sim := b.scoringCache()
					if sim != nil {
						if walked := b.ext.Walk(strip, func(int32) {}, func(v uint32) { sim.Access(v) }); walked != strip.Size {
							gostrip.Violatef("backward strip from triangle %d replayed %d of %d triangles", strip.Start, walked, strip.Size)
						}
					}
					b.challenge(&policy, strip, sim)
				}
			}
		}
	}

	if b.cfg.CacheSimulation && b.cache.Fingerprint() != before {
		gostrip.Violatef("candidate scoring leaked into the canonical vertex cache")
	}

	return policy.Best()
}

// scoringCache returns a fresh copy of the canonical cache (or nil when cache simulation is off).
func (b *Builder) scoringCache() *CacheSimulator {
	if !b.cfg.CacheSimulation {
		return nil
	}
	b.scratch.CopyFrom(&b.cache)
	return &b.scratch
}

func (b *Builder) challenge(policy *SelectionPolicy, strip Strip, sim *CacheSimulator) {
	c := Candidate{
		Strip:  strip,
		Degree: b.heap.Degree(strip.Start),
	}
	if sim != nil {
		c.CacheHits = sim.HitCount()
	}
	if b.OnChallenge != nil {
		b.OnChallenge(c)
	}
	policy.Challenge(c.Strip, c.Degree, c.CacheHits)
}

// commit marks the strip's triangles used, applies its walk to the canonical cache, updates neighbor degrees,
// and emits the strip.
func (b *Builder) commit(c Candidate) {
	group := gostrip.PrimitiveGroup{
		Type:    gostrip.PrimStrip,
		Indices: make([]uint32, 0, c.Strip.Size+2),
	}

	walked := b.ext.Walk(c.Strip, b.markUsed, func(v uint32) {
		if b.cfg.CacheSimulation {
			b.cache.Access(v)
		}
		group.Indices = append(group.Indices, v)
	})
	if walked != c.Strip.Size {
		gostrip.Violatef("committed strip from triangle %d walked %d of %d triangles", c.Strip.Start, walked, c.Strip.Size)
	}

	b.strips = append(b.strips, group)
	b.result.Stats.StripTriangles += walked

	if b.OnCommit != nil {
		b.OnCommit(c)
	}
}

func (b *Builder) markUsed(ti int32) {
	b.graph.markUsed(ti)
	b.heap.Erase(ti)

	for _, link := range b.graph.Tris[ti].Links {
		if link.Tri == NoLink || b.graph.Tris[link.Tri].used {
			continue
		}
		if degree := b.heap.DecrementDegree(link.Tri); degree > 0 {
			b.pool = append(b.pool, link.Tri)
		}
	}
}

// drain collects every triangle left unused into one trailing list.
func (b *Builder) drain() {
	var list []uint32
	for i := range b.graph.Tris {
		tri := &b.graph.Tris[i]
		if !tri.used {
			list = append(list, tri.V[0], tri.V[1], tri.V[2])
		}
	}
	b.result.Stats.ListTriangles = len(list) / 3

	b.result.Groups = b.result.Groups[:0]
	if b.cfg.StitchStrips && len(b.strips) > 0 {
		b.result.Groups = append(b.result.Groups, StitchStrips(b.strips, b.cfg.RestartIndex))
	} else {
		b.result.Groups = append(b.result.Groups, b.strips...)
	}
	if len(list) > 0 {
		b.result.Groups = append(b.result.Groups, gostrip.PrimitiveGroup{
			Type:    gostrip.PrimList,
			Indices: list,
		})
	}
}

// assemble fills in the remaining stats and optionally verifies the output.
func (b *Builder) assemble() {
	st := &b.result.Stats
	for _, group := range b.result.Groups {
		st.IndexCount += len(group.Indices)
		if group.Type == gostrip.PrimStrip {
			st.StripCount++
		}
	}
	st.ACMR = MeasureACMR(b.result.Groups, b.cfg.CacheSize, b.cfg.RestartIndex)

	if b.cfg.ValidateOutput {
		if err := gostrip.Verify(b.indices, b.result.Groups, b.cfg.RestartIndex); err != nil {
			gostrip.Violatef("output validation failed: %v", err)
		}
	}

	klog.V(2).Infof("libstrip: %d triangles -> %d strips (%d tris) + %d listed, %d dropped, ACMR %.3f",
		st.InputTriangles, st.StripCount, st.StripTriangles, st.ListTriangles, st.DroppedTriangle, st.ACMR)
}
