package libstrip

// StripExtender grows strips through a Graph.
//
// Each speculative walk is issued a fresh attempt tag; a triangle whose visited tag matches the current attempt
// is not re-entered.  This keeps a walk's cost proportional to its own length.
type StripExtender struct {
	graph   *Graph
	attempt uint32
	maxSize int // 0 means unbounded
}

// NewStripExtender returns an extender over g.  A maxSize > 0 caps the number of triangles per strip.
func NewStripExtender(g *Graph, maxSize int) *StripExtender {
	return &StripExtender{
		graph:   g,
		maxSize: maxSize,
	}
}

func (ex *StripExtender) nextAttempt() uint32 {
	ex.attempt++
	if ex.attempt == 0 {
		for i := range ex.graph.Tris {
			ex.graph.Tris[i].visited = 0
		}
		ex.attempt = 1
	}
	return ex.attempt
}

func (ex *StripExtender) canGrow(size int) bool {
	return ex.maxSize <= 0 || size < ex.maxSize
}

// Order of the next triangle given the neighbor's shared slot, walking forward.
func forwardOrder(slot uint8, clockwise bool) Order {
	if clockwise {
		return Order(slot)
	}
	return Order((slot + 1) % 3)
}

// Order of the previous triangle given the neighbor's shared slot, walking backward.
func backwardOrder(slot uint8, clockwise bool) Order {
	if clockwise {
		return Order((slot + 2) % 3)
	}
	return Order((slot + 1) % 3)
}

// ExtendForward grows a strip starting at seed (emitted in the given order) across each triangle's trailing edge.
//
// Growth stops at a boundary edge, a used neighbor, a neighbor already entered during this walk, or the size cap.
// If sim is non-nil, every emitted vertex is fed through it.
func (ex *StripExtender) ExtendForward(seed int32, order Order, sim *CacheSimulator) Strip {
	tag := ex.nextAttempt()
	tris := ex.graph.Tris

	node := seed
	tris[node].visited = tag
	if sim != nil {
		for k := 0; k < 3; k++ {
			sim.Access(tris[node].V[(int(order)+k)%3])
		}
	}

	size := 1
	cur := order
	clockwise := false
	for ex.canGrow(size) {
		link := tris[node].Links[cur.lastSlot()]
		if link.Tri == NoLink {
			break
		}
		next := &tris[link.Tri]
		if next.used || next.visited == tag {
			break
		}
		next.visited = tag
		cur = forwardOrder(link.Slot, clockwise)
		if sim != nil {
			sim.Access(next.V[(link.Slot+2)%3])
		}
		node = link.Tri
		clockwise = !clockwise
		size++
	}

	return Strip{
		Start: seed,
		Order: order,
		Size:  size,
	}
}

// ExtendBackward grows a strip from seed across each triangle's leading edge and returns the strip rooted at
// the triangle where the walk stopped.
//
// If clockwise is set, seed is taken to sit at an odd (clockwise) position of the strip.  Only strips whose true
// first triangle is counter-clockwise are valid; otherwise an empty strip is returned.
func (ex *StripExtender) ExtendBackward(seed int32, order Order, clockwise bool) Strip {
	tag := ex.nextAttempt()
	tris := ex.graph.Tris

	node := seed
	tris[node].visited = tag

	size := 1
	cur := order
	for ex.canGrow(size) {
		link := tris[node].Links[cur.firstSlot()]
		if link.Tri == NoLink {
			break
		}
		prev := &tris[link.Tri]
		if prev.used || prev.visited == tag {
			break
		}
		prev.visited = tag
		cur = backwardOrder(link.Slot, clockwise)
		node = link.Tri
		clockwise = !clockwise
		size++
	}

	// A strip must open with a counter-clockwise triangle; a candidate rooted clockwise is discarded whole.
	// TODO: retry from the next (counter-clockwise) triangle and compare how many triangles end up stranded.
	if clockwise {
		return Strip{}
	}

	return Strip{
		Start: node,
		Order: cur,
		Size:  size,
	}
}

// Walk replays strip s forward, calling onTri for each triangle and onIndex for each emitted vertex index.
// onTri is called before the triangle's indices are emitted.  Walk returns the number of triangles walked,
// which is less than s.Size only if the strip can no longer be replayed.
func (ex *StripExtender) Walk(s Strip, onTri func(ti int32), onIndex func(v uint32)) int {
	if s.Size == 0 {
		return 0
	}
	tris := ex.graph.Tris

	node := s.Start
	cur := s.Order
	if tris[node].used {
		return 0
	}
	onTri(node)
	for k := 0; k < 3; k++ {
		onIndex(tris[node].V[(int(cur)+k)%3])
	}

	walked := 1
	clockwise := false
	for walked < s.Size {
		link := tris[node].Links[cur.lastSlot()]
		if link.Tri == NoLink || tris[link.Tri].used {
			break
		}
		cur = forwardOrder(link.Slot, clockwise)
		node = link.Tri
		onTri(node)
		onIndex(tris[node].V[(link.Slot+2)%3])
		clockwise = !clockwise
		walked++
	}
	return walked
}
