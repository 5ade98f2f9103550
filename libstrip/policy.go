package libstrip

// SelectionPolicy keeps the best strip challenged so far.
//
// With cache simulation, candidates are ranked by (most significant first): more cache hits, lower start
// triangle degree, longer strip.  Without it, the longest strip wins.  A challenger that merely ties the
// incumbent does not replace it.
type SelectionPolicy struct {
	minStripSize int
	cacheAware   bool
	best         Candidate
	hasBest      bool
}

func NewSelectionPolicy(minStripSize int, cacheAware bool) SelectionPolicy {
	return SelectionPolicy{
		minStripSize: minStripSize,
		cacheAware:   cacheAware,
	}
}

// Challenge offers a strip to the policy and returns true if it became the new best.
func (p *SelectionPolicy) Challenge(strip Strip, degree int32, cacheHits int) bool {
	if strip.Size == 0 || strip.Size < p.minStripSize {
		return false
	}

	c := Candidate{
		Strip:     strip,
		Degree:    degree,
		CacheHits: cacheHits,
	}
	if !p.hasBest || p.beats(&c, &p.best) {
		p.best = c
		p.hasBest = true
		return true
	}
	return false
}

func (p *SelectionPolicy) beats(c, incumbent *Candidate) bool {
	if !p.cacheAware {
		return c.Strip.Size > incumbent.Strip.Size
	}
	if c.CacheHits != incumbent.CacheHits {
		return c.CacheHits > incumbent.CacheHits
	}
	if c.Degree != incumbent.Degree {
		return c.Degree < incumbent.Degree
	}
	return c.Strip.Size > incumbent.Strip.Size
}

// Best returns the best candidate so far, if any strip was accepted.
func (p *SelectionPolicy) Best() (Candidate, bool) {
	return p.best, p.hasBest
}

// Reset forgets the best candidate.
func (p *SelectionPolicy) Reset() {
	p.best = Candidate{}
	p.hasBest = false
}
