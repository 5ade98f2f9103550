package gostrip_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/2x3systems/gostrip/libstrip"
	"github.com/2x3systems/gostrip/libstrip/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufCloser struct {
	sync.Mutex
	bytes.Buffer
	closed bool
}

func (buf *bufCloser) Write(p []byte) (int, error) {
	buf.Lock()
	defer buf.Unlock()
	return buf.Buffer.Write(p)
}

func (buf *bufCloser) Close() error {
	buf.closed = true
	return nil
}

func testMeshes() []*gostrip.Mesh {
	return []*gostrip.Mesh{
		{Name: "quad", Indices: []uint32{0, 1, 2, 2, 1, 3}},
		{Name: "lone", Indices: []uint32{0, 1, 2}},
		{Name: "bad", Indices: []uint32{0, 1, 2, 3}},
		{Name: "strip", Indices: []uint32{0, 1, 2, 2, 1, 3, 2, 3, 4}, VertexCount: 5},
	}
}

func TestMeshStreamStripify(t *testing.T) {
	cfg := gostrip.DefaultConfig()
	out := &bufCloser{}

	meshes := gostrip.StreamMeshes(testMeshes()...).
		Stripify(context.Background(), libstrip.StripifyMesh, cfg).
		Print(out, gostrip.PrintOpts{Label: "run", Stats: true, Groups: true}).
		Collect()

	require.Len(t, meshes, 4)
	assert.True(t, out.closed)

	assert.Equal(t, []gostrip.PrimitiveGroup{strip(0, 1, 2, 3)}, meshes[0].Result.Groups)
	assert.Equal(t, []gostrip.PrimitiveGroup{list(0, 1, 2)}, meshes[1].Result.Groups)
	assert.ErrorIs(t, meshes[2].Err, gostrip.ErrInvalidInput)
	assert.Nil(t, meshes[2].Result)
	assert.Equal(t, []gostrip.PrimitiveGroup{strip(0, 1, 2, 3, 4)}, meshes[3].Result.Groups)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "run,000001,quad,tris=2,strips=1"), lines[0])
	assert.Equal(t, "    strip[0]: 0 1 2 3", lines[1])
	assert.Contains(t, out.String(), "000003,bad,error: ")
}

func TestMeshStreamParallel(t *testing.T) {
	var meshes []*gostrip.Mesh
	for i := 0; i < 20; i++ {
		meshes = append(meshes, testMeshes()...)
	}

	count := gostrip.StreamMeshes(meshes...).
		StripifyParallel(context.Background(), libstrip.StripifyMesh, gostrip.DefaultConfig(), 4).
		PullAll()
	assert.Equal(t, len(meshes), count)

	for _, mesh := range meshes {
		if mesh.Name == "bad" {
			require.Error(t, mesh.Err)
		} else {
			require.NoError(t, mesh.Err)
			require.NoError(t, gostrip.Verify(mesh.Indices, mesh.Result.Groups, nil))
		}
	}
}

func TestMeshStreamCatalog(t *testing.T) {
	cat, err := catalog.Open(gostrip.CatalogOpts{})
	require.NoError(t, err)
	defer cat.Close()

	cfg := gostrip.DefaultConfig()
	summarize := func(mesh *gostrip.Mesh, groups []gostrip.PrimitiveGroup) gostrip.Stats {
		return libstrip.Summarize(mesh, groups, cfg)
	}
	pipeline := func() []*gostrip.Mesh {
		return gostrip.StreamMeshes(testMeshes()...).
			LookupIn(cat, cfg, summarize).
			Stripify(context.Background(), libstrip.StripifyMesh, cfg).
			AddTo(cat, cfg).
			Collect()
	}

	first := pipeline()
	assert.Equal(t, int64(3), cat.NumEntries())
	for _, mesh := range first {
		assert.False(t, mesh.FromCatalog)
	}

	second := pipeline()
	assert.Equal(t, int64(3), cat.NumEntries())
	for i, mesh := range second {
		if mesh.Name == "bad" {
			continue
		}
		require.True(t, mesh.FromCatalog, mesh.Name)
		assert.Equal(t, first[i].Result.Groups, mesh.Result.Groups)

		st := first[i].Result.Stats
		assert.Equal(t, st, mesh.Result.Stats, mesh.Name)
	}
}

func TestMeshStreamSaveTo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	meshes := gostrip.StreamMeshes(testMeshes()...).
		Stripify(context.Background(), libstrip.StripifyMesh, gostrip.DefaultConfig()).
		SaveTo(dir).
		Collect()
	require.Len(t, meshes, 4)

	buf, err := os.ReadFile(filepath.Join(dir, "strip.strips"))
	require.NoError(t, err)
	assert.Equal(t, "strip 0 1 2 3 4\n", string(buf))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"lone.strips", "quad.strips", "strip.strips"}, names)
}
