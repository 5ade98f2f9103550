package gostrip

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/gogpu/gputypes"
	"github.com/pkg/errors"
)

// Validate checks that cfg is usable.
func (cfg *Config) Validate() error {
	if cfg.VertexCount < 0 {
		return errors.Wrapf(ErrBadConfig, "VertexCount %d is negative", cfg.VertexCount)
	}
	if cfg.MinStripSize < 0 {
		return errors.Wrapf(ErrBadConfig, "MinStripSize %d is negative", cfg.MinStripSize)
	}
	if cfg.CacheSimulation && cfg.CacheSize < MinCacheSize {
		return errors.Wrapf(ErrBadConfig, "CacheSize %d is below %d", cfg.CacheSize, MinCacheSize)
	}
	return nil
}

// Topology returns the GPU primitive topology used to draw this group.
func (group PrimitiveGroup) Topology() gputypes.PrimitiveTopology {
	if group.Type == PrimStrip {
		return gputypes.PrimitiveTopologyTriangleStrip
	}
	return gputypes.PrimitiveTopologyTriangleList
}

// IndexFormatFor returns the narrowest index format able to address the given number of vertices
// while leaving the all-ones value free for use as a primitive restart sentinel.
func IndexFormatFor(vertexCount int) gputypes.IndexFormat {
	if vertexCount < math.MaxUint16 {
		return gputypes.IndexFormatUint16
	}
	return gputypes.IndexFormatUint32
}

// RestartIndexFor returns the primitive restart sentinel GPUs expect for the given index format.
func RestartIndexFor(format gputypes.IndexFormat) uint32 {
	if format == gputypes.IndexFormatUint16 {
		return math.MaxUint16
	}
	return math.MaxUint32
}

// Triangle is three vertex indices in winding order.
type Triangle [3]uint32

// IsDegenerate returns true if two or more of this triangle's indices are the same.
func (tri Triangle) IsDegenerate() bool {
	return tri[0] == tri[1] || tri[1] == tri[2] || tri[2] == tri[0]
}

// Canonic returns this triangle rotated so that its smallest index leads, preserving winding.
func (tri Triangle) Canonic() Triangle {
	switch {
	case tri[1] < tri[0] && tri[1] <= tri[2]:
		return Triangle{tri[1], tri[2], tri[0]}
	case tri[2] < tri[0] && tri[2] < tri[1]:
		return Triangle{tri[2], tri[0], tri[1]}
	}
	return tri
}

// ExpandTriangles appends every non-degenerate triangle drawn by the given groups to dst.
//
// Strip triangles are emitted with the winding the GPU renders them with: odd positions within a strip run are flipped.
// If restart is non-nil, that index value ends the current strip run and the next index starts a new one.
func ExpandTriangles(dst []Triangle, groups []PrimitiveGroup, restart *uint32) []Triangle {
	for _, group := range groups {
		idx := group.Indices
		switch group.Type {
		case PrimList:
			for i := 0; i+2 < len(idx); i += 3 {
				tri := Triangle{idx[i], idx[i+1], idx[i+2]}
				if !tri.IsDegenerate() {
					dst = append(dst, tri)
				}
			}
		case PrimStrip:
			runStart := 0
			for i := 0; i <= len(idx); i++ {
				if i < len(idx) && (restart == nil || idx[i] != *restart) {
					continue
				}
				run := idx[runStart:i]
				for j := 0; j+2 < len(run); j++ {
					var tri Triangle
					if j&1 == 0 {
						tri = Triangle{run[j], run[j+1], run[j+2]}
					} else {
						tri = Triangle{run[j+1], run[j], run[j+2]}
					}
					if !tri.IsDegenerate() {
						dst = append(dst, tri)
					}
				}
				runStart = i + 1
			}
		}
	}
	return dst
}

// CountTriangles returns the number of non-degenerate triangles drawn by the given groups.
func CountTriangles(groups []PrimitiveGroup, restart *uint32) int {
	return len(ExpandTriangles(nil, groups, restart))
}

// Verify checks that the triangles drawn by groups are in exact 1:1 correspondence (up to rotation) with the
// non-degenerate triangles of the given index buffer.
func Verify(indices []uint32, groups []PrimitiveGroup, restart *uint32) error {
	if len(indices)%3 != 0 {
		return errors.Wrapf(ErrInvalidInput, "index count %d is not a multiple of 3", len(indices))
	}

	want := make(map[Triangle]int, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		tri := Triangle{indices[i], indices[i+1], indices[i+2]}
		if !tri.IsDegenerate() {
			want[tri.Canonic()]++
		}
	}

	for _, tri := range ExpandTriangles(nil, groups, restart) {
		key := tri.Canonic()
		n := want[key]
		if n == 0 {
			return errors.Wrapf(ErrOutputMismatch, "output triangle (%d %d %d) is not in the input or is drawn twice", tri[0], tri[1], tri[2])
		}
		if n == 1 {
			delete(want, key)
		} else {
			want[key] = n - 1
		}
	}

	for tri := range want {
		return errors.Wrapf(ErrOutputMismatch, "input triangle (%d %d %d) is missing from the output", tri[0], tri[1], tri[2])
	}
	return nil
}

// KeyFor returns the MeshKey for the given index buffer and config.
// Only config fields that affect the output participate.
func KeyFor(indices []uint32, cfg Config) MeshKey {
	var scrap [8]byte
	digest := xxhash.New()

	flags := uint64(0)
	for i, on := range []bool{cfg.CacheSimulation, cfg.BackwardSearch, cfg.PushCacheHits, cfg.StitchStrips, cfg.RestartIndex != nil} {
		if on {
			flags |= 1 << uint(i)
		}
	}
	restart := uint32(0)
	if cfg.RestartIndex != nil {
		restart = *cfg.RestartIndex
	}

	for _, v := range []uint64{uint64(len(indices)), uint64(cfg.VertexCount), uint64(cfg.CacheSize), uint64(cfg.MinStripSize), flags, uint64(restart)} {
		binary.LittleEndian.PutUint64(scrap[:], v)
		digest.Write(scrap[:])
	}

	buf := make([]byte, 0, 4*1024)
	for i, idx := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, idx)
		if len(buf) == cap(buf) || i == len(indices)-1 {
			digest.Write(buf)
			buf = buf[:0]
		}
	}

	return MeshKey(digest.Sum64())
}
