package main

import (
	"os"
	"path"
	"testing"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/2x3systems/gostrip/libstrip/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromFlags(t *testing.T) {
	cfg := configFromFlags()
	assert.Equal(t, gostrip.DefaultConfig(), cfg)

	*flagNoBack = true
	*flagRestart = 0xFFFF
	defer func() {
		*flagNoBack = false
		*flagRestart = -1
	}()

	cfg = configFromFlags()
	assert.False(t, cfg.BackwardSearch)
	require.NotNil(t, cfg.RestartIndex)
	assert.Equal(t, uint32(0xFFFF), *cfg.RestartIndex)
}

func TestStripifyFiles(t *testing.T) {
	dir := t.TempDir()
	quad := path.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(quad, []byte("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"), 0600))

	*flagCatalog = path.Join(dir, "catalog")
	*flagOut = path.Join(dir, "out")
	*flagValidate = true
	defer func() {
		*flagCatalog = ""
		*flagOut = ""
		*flagValidate = false
	}()

	require.NoError(t, stripifyFiles([]string{quad, path.Join(dir, "missing.obj")}))

	buf, err := os.ReadFile(path.Join(dir, "out", "quad.strips"))
	require.NoError(t, err)
	assert.Equal(t, "strip 1 2 0 3\n", string(buf))

	// A second run is served from the catalog
	require.NoError(t, stripifyFiles([]string{quad}))

	cat, err := catalog.Open(gostrip.CatalogOpts{DbPathName: *flagCatalog, ReadOnly: true})
	require.NoError(t, err)
	defer cat.Close()
	assert.Equal(t, int64(1), cat.NumEntries())
}
