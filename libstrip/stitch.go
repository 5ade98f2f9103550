package libstrip

import (
	"github.com/2x3systems/gostrip/gostrip"
)

// StitchStrips joins the given strips into one strip group.
//
// If restart is nil, consecutive strips are bridged with degenerate triangles: the last index of the previous
// strip and the first index of the next are repeated, plus one more copy of that first index whenever the
// previous run has odd length, so every strip keeps starting at an even (counter-clockwise) position.
// Otherwise the strips are separated by the restart sentinel.
func StitchStrips(strips []gostrip.PrimitiveGroup, restart *uint32) gostrip.PrimitiveGroup {
	total := 0
	for _, strip := range strips {
		total += len(strip.Indices) + 3
	}

	out := make([]uint32, 0, total)
	for _, strip := range strips {
		idx := strip.Indices
		if len(idx) == 0 {
			continue
		}
		if len(out) > 0 {
			if restart != nil {
				out = append(out, *restart)
			} else {
				out = append(out, out[len(out)-1], idx[0])
				if len(out)&1 != 0 {
					out = append(out, idx[0])
				}
			}
		}
		out = append(out, idx...)
	}

	return gostrip.PrimitiveGroup{
		Type:    gostrip.PrimStrip,
		Indices: out,
	}
}
