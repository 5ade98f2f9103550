package gostrip

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrInvalidInput    = errors.New("invalid index buffer")
	ErrBadConfig       = errors.New("bad stripifier config")
	ErrBadCatalogParam = errors.New("bad catalog param")
	ErrCatalogReadOnly = errors.New("catalog is read-only")
	ErrCatalogClosed   = errors.New("catalog is closed")
	ErrBadRecord       = errors.New("bad catalog record")
	ErrBadMeshFile     = errors.New("bad mesh file")
	ErrOutputMismatch  = errors.New("output triangles do not match input triangles")
)

// InvariantViolation signals a defect in the strip engine itself (a triangle committed twice, a scoring cache
// leaking into canonical state, etc).  It is raised with panic() and is never returned to callers.
type InvariantViolation struct {
	What string
}

func (v *InvariantViolation) Error() string {
	return "gostrip: internal invariant violated: " + v.What
}

// Violatef panics with an *InvariantViolation.
func Violatef(format string, args ...interface{}) {
	panic(&InvariantViolation{
		What: fmt.Sprintf(format, args...),
	})
}

// DegenerateTriangle is a warning issued for a source triangle with repeated indices.
// Such triangles are dropped and never appear in the output.
type DegenerateTriangle struct {
	Index int       // triangle position in the source buffer (0-based)
	V     [3]uint32 // the offending indices
}

func (d DegenerateTriangle) String() string {
	return fmt.Sprintf("degenerate triangle #%d (%d %d %d)", d.Index, d.V[0], d.V[1], d.V[2])
}
