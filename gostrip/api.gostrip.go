package gostrip

import (
	"context"
)

const (

	// DefaultCacheSize is the number of entries in the simulated post-transform vertex cache.
	DefaultCacheSize = 16

	// DefaultMinStripSize is the smallest strip (in triangles) that is committed as a strip.
	// Disconnected triangles always end up in the trailing list only at this default; with 0 or 1 each lone
	// triangle is emitted as a single-triangle strip.
	DefaultMinStripSize = 2

	// MinCacheSize is the smallest cache that can hold a triangle and still allow a strip to grow.
	MinCacheSize = 3
)

// PrimitiveType names how the indices of a PrimitiveGroup are to be drawn.
type PrimitiveType byte

const (
	PrimList  PrimitiveType = 1 // every 3 indices form an independent triangle
	PrimStrip PrimitiveType = 2 // triangle strip: N+2 indices for N triangles
)

func (pt PrimitiveType) String() string {
	switch pt {
	case PrimList:
		return "list"
	case PrimStrip:
		return "strip"
	}
	return "?"
}

// PrimitiveGroup is a draw-ready run of vertex indices.
type PrimitiveGroup struct {
	Type    PrimitiveType
	Indices []uint32
}

// Config specifies how a stripifier behaves.  The zero value is not useful; start from DefaultConfig().
type Config struct {
	VertexCount     int     // number of vertices referenced (0 infers max(index)+1)
	CacheSize       int     // simulated vertex cache capacity
	MinStripSize    int     // strips shorter than this are left for the trailing list
	CacheSimulation bool    // score candidates using a simulated vertex cache
	BackwardSearch  bool    // also grow candidate strips backwards from each seed
	PushCacheHits   bool    // re-push vertices that hit the simulated cache
	StitchStrips    bool    // join all strips into one using degenerate triangles or RestartIndex
	RestartIndex    *uint32 // if set, the primitive restart sentinel used when stitching
	ValidateOutput  bool    // re-check output against input (failure is fatal)
}

// DefaultConfig returns the default stripifier config.
func DefaultConfig() Config {
	return Config{
		CacheSize:       DefaultCacheSize,
		MinStripSize:    DefaultMinStripSize,
		CacheSimulation: true,
		BackwardSearch:  true,
		PushCacheHits:   true,
	}
}

// Stats summarizes a stripification result.
type Stats struct {
	InputTriangles  int     // triangles in the source buffer (including degenerates)
	StripCount      int     // number of strip groups emitted (a stitched result counts as 1)
	StripTriangles  int     // triangles placed in strips
	ListTriangles   int     // triangles placed in the trailing list
	IndexCount      int     // total indices emitted across all groups
	DroppedTriangle int     // degenerate source triangles dropped
	ACMR            float64 // average cache misses per triangle of the emitted index order
}

// Result is the output of a stripifier run.
type Result struct {
	Groups   []PrimitiveGroup
	Warnings []DegenerateTriangle
	Stats    Stats
}

// StripifyFunc is the signature of a stripifier entry point.
type StripifyFunc func(ctx context.Context, indices []uint32, cfg Config) (*Result, error)

// Mesh is a named index buffer travelling through a MeshStream.
type Mesh struct {
	Name        string
	Indices     []uint32
	VertexCount int
	Result      *Result // set once stripified
	FromCatalog bool    // set if Result was loaded from a Catalog
	Err         error   // set if a stage failed on this mesh
}

// MeshKey identifies an index buffer together with the config fields that affect output.
type MeshKey uint64

// CatalogOpts specifies params for opening a gostrip Catalog
type CatalogOpts struct {
	DbPathName string // omit for an in-memory catalog
	ReadOnly   bool   // open in read-only mode
}

// Catalog wraps a database of previously computed stripification results.
type Catalog interface {

	// Lookup returns the groups stored under the given key.
	Lookup(key MeshKey) ([]PrimitiveGroup, bool, error)

	// Store records the groups for the given key.
	// If true is returned, the key was not present and was added.
	Store(key MeshKey, groups []PrimitiveGroup) (bool, error)

	// NumEntries returns the number of results held by this catalog.
	NumEntries() int64

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	Close() error
}

// PrintOpts specifies what is printed for each mesh of a MeshStream
type PrintOpts struct {
	Label   string // Prefix label
	Stats   bool   // print Stats
	Groups  bool   // print each group's indices
	Verbose bool   // print warnings
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{
	Stats: true,
}
