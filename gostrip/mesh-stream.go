package gostrip

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// MeshStream is a pipeline stage emitting meshes.  Ownership of a Mesh travels through the channel.
type MeshStream struct {
	Outlet chan *Mesh
}

func NewMeshStream() *MeshStream {
	stream := &MeshStream{
		Outlet: make(chan *Mesh, 1),
	}
	return stream
}

// StreamMeshes returns a MeshStream that emits the given meshes and then closes.
func StreamMeshes(meshes ...*Mesh) *MeshStream {
	next := NewMeshStream()

	go func() {
		for _, mesh := range meshes {
			next.Outlet <- mesh
		}
		next.Close()
	}()

	return next
}

func (stream *MeshStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

// PullAll drains this stream and returns the number of meshes that came through.
func (stream *MeshStream) PullAll() int {
	count := 0
	for range stream.Outlet {
		count++
	}
	return count
}

// Collect drains this stream and returns every mesh that came through, in arrival order.
func (stream *MeshStream) Collect() []*Mesh {
	var meshes []*Mesh
	for mesh := range stream.Outlet {
		meshes = append(meshes, mesh)
	}
	return meshes
}

// Stripify runs fn on each mesh that does not yet have a Result.
func (stream *MeshStream) Stripify(ctx context.Context, fn StripifyFunc, cfg Config) *MeshStream {
	next := NewMeshStream()

	go func() {
		for mesh := range stream.Outlet {
			stripifyMesh(ctx, mesh, fn, cfg)
			next.Outlet <- mesh
		}
		next.Close()
	}()

	return next
}

// StripifyParallel is Stripify spread over the given number of workers.  Meshes may be emitted out of order.
func (stream *MeshStream) StripifyParallel(ctx context.Context, fn StripifyFunc, cfg Config, workers int) *MeshStream {
	if workers <= 1 {
		return stream.Stripify(ctx, fn, cfg)
	}

	next := NewMeshStream()
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for mesh := range stream.Outlet {
				stripifyMesh(ctx, mesh, fn, cfg)
				next.Outlet <- mesh
			}
		}()
	}

	go func() {
		wg.Wait()
		next.Close()
	}()

	return next
}

func stripifyMesh(ctx context.Context, mesh *Mesh, fn StripifyFunc, cfg Config) {
	if mesh.Result != nil || mesh.Err != nil {
		return
	}
	if cfg.VertexCount == 0 {
		cfg.VertexCount = mesh.VertexCount
	}
	mesh.Result, mesh.Err = fn(ctx, mesh.Indices, cfg)
}

// LookupIn loads results already present in the given Catalog.
// Meshes found there are marked FromCatalog and are summarized with the given func.
func (stream *MeshStream) LookupIn(cat Catalog, cfg Config, summarize func(mesh *Mesh, groups []PrimitiveGroup) Stats) *MeshStream {
	next := NewMeshStream()

	go func() {
		for mesh := range stream.Outlet {
			if mesh.Result == nil && mesh.Err == nil {
				groups, found, err := cat.Lookup(KeyFor(mesh.Indices, cfg))
				if err != nil {
					mesh.Err = err
				} else if found {
					mesh.Result = &Result{
						Groups: groups,
						Stats:  summarize(mesh, groups),
					}
					mesh.FromCatalog = true
				}
			}
			next.Outlet <- mesh
		}
		next.Close()
	}()

	return next
}

// AddTo stores each newly computed Result in the given Catalog.
func (stream *MeshStream) AddTo(cat Catalog, cfg Config) *MeshStream {
	next := NewMeshStream()

	go func() {
		for mesh := range stream.Outlet {
			if mesh.Result != nil && !mesh.FromCatalog && mesh.Err == nil {
				_, mesh.Err = cat.Store(KeyFor(mesh.Indices, cfg), mesh.Result.Groups)
			}
			next.Outlet <- mesh
		}
		next.Close()
	}()

	return next
}

// Print writes a line for each mesh (and optionally its groups) to out, closing out when the stream ends.
func (stream *MeshStream) Print(out io.WriteCloser, opts PrintOpts) *MeshStream {
	next := NewMeshStream()

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for mesh := range stream.Outlet {
			count++
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%06d,%s", count, mesh.Name)
			mesh.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- mesh
		}
		out.Close()
		next.Close()
	}()

	return next
}

// WriteAsString writes a one-line summary of this mesh (and its groups when requested).
func (mesh *Mesh) WriteAsString(out io.Writer, opts PrintOpts) {
	switch {
	case mesh.Err != nil:
		fmt.Fprintf(out, ",error: %v", mesh.Err)
		return
	case mesh.Result == nil:
		fmt.Fprint(out, ",pending")
		return
	}

	res := mesh.Result
	if opts.Stats {
		st := &res.Stats
		fmt.Fprintf(out, ",tris=%s,strips=%s,strip_tris=%s,list_tris=%s,indices=%s,acmr=%.3f",
			humanize.Comma(int64(st.InputTriangles)),
			humanize.Comma(int64(st.StripCount)),
			humanize.Comma(int64(st.StripTriangles)),
			humanize.Comma(int64(st.ListTriangles)),
			humanize.Comma(int64(st.IndexCount)),
			st.ACMR)
		if mesh.FromCatalog {
			fmt.Fprint(out, ",cached")
		}
	}
	if opts.Verbose {
		for _, warn := range res.Warnings {
			fmt.Fprintf(out, "\n    warning: %v", warn)
		}
	}
	if opts.Groups {
		for i, group := range res.Groups {
			fmt.Fprintf(out, "\n    %s[%d]:", group.Type, i)
			for _, idx := range group.Indices {
				fmt.Fprintf(out, " %d", idx)
			}
		}
	}
}

// SaveTo writes the groups of each stripified mesh to <dir>/<mesh name>.strips, one group per line.
func (stream *MeshStream) SaveTo(dir string) *MeshStream {
	next := NewMeshStream()

	go func() {
		for mesh := range stream.Outlet {
			if mesh.Result != nil && mesh.Err == nil {
				mesh.Err = mesh.saveGroups(dir)
			}
			next.Outlet <- mesh
		}
		next.Close()
	}()

	return next
}

func (mesh *Mesh) saveGroups(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	file, err := os.OpenFile(filepath.Join(dir, mesh.Name+".strips"), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(file)
	for _, group := range mesh.Result.Groups {
		out.WriteString(group.Type.String())
		for _, idx := range group.Indices {
			out.WriteByte(' ')
			out.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
		out.WriteByte('\n')
	}
	err = out.Flush()
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}
