package catalog_test

import (
	"path"
	"sync"
	"testing"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/2x3systems/gostrip/libstrip"
	"github.com/2x3systems/gostrip/libstrip/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stripify(t *testing.T, indices []uint32, cfg gostrip.Config) (gostrip.MeshKey, []gostrip.PrimitiveGroup) {
	res, err := libstrip.Stripify(indices, cfg)
	require.NoError(t, err)
	return gostrip.KeyFor(indices, cfg), res.Groups
}

func TestInMemory(t *testing.T) {
	cat, err := catalog.Open(gostrip.CatalogOpts{})
	require.NoError(t, err)
	defer cat.Close()

	assert.False(t, cat.IsReadOnly())
	assert.Equal(t, int64(0), cat.NumEntries())

	cfg := gostrip.DefaultConfig()
	key, groups := stripify(t, []uint32{0, 1, 2, 2, 1, 3, 5, 6, 7}, cfg)

	_, found, err := cat.Lookup(key)
	require.NoError(t, err)
	require.False(t, found)

	added, err := cat.Store(key, groups)
	require.NoError(t, err)
	require.True(t, added)

	added, err = cat.Store(key, groups)
	require.NoError(t, err)
	require.False(t, added)
	assert.Equal(t, int64(1), cat.NumEntries())

	got, found, err := cat.Lookup(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, groups, got)

	require.NoError(t, cat.Close())
	_, _, err = cat.Lookup(key)
	require.ErrorIs(t, err, gostrip.ErrCatalogClosed)
}

func TestLookupDuringClose(t *testing.T) {
	cat, err := catalog.Open(gostrip.CatalogOpts{})
	require.NoError(t, err)

	key, groups := stripify(t, []uint32{0, 1, 2, 2, 1, 3}, gostrip.DefaultConfig())
	_, err = cat.Store(key, groups)
	require.NoError(t, err)

	const numReaders = 8
	errs := make(chan error, numReaders*100)

	var wg sync.WaitGroup
	wg.Add(numReaders)
	for i := 0; i < numReaders; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, found, err := cat.Lookup(key)
				if err != nil {
					errs <- err
					continue
				}
				if !found || len(got) != len(groups) {
					errs <- gostrip.ErrBadRecord
				}
			}
		}()
	}

	require.NoError(t, cat.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, gostrip.ErrCatalogClosed)
	}
}

func TestOnDisk(t *testing.T) {
	dbPath := path.Join(t.TempDir(), "TestOnDisk")

	cfg := gostrip.DefaultConfig()
	cfg.StitchStrips = true
	key, groups := stripify(t, []uint32{0, 3, 1, 1, 3, 4, 1, 4, 2, 2, 4, 5, 3, 6, 4, 4, 6, 7, 4, 7, 5, 5, 7, 8}, cfg)

	{
		cat, err := catalog.Open(gostrip.CatalogOpts{DbPathName: dbPath})
		require.NoError(t, err)
		added, err := cat.Store(key, groups)
		require.NoError(t, err)
		require.True(t, added)
		require.NoError(t, cat.Close())
	}

	{
		cat, err := catalog.Open(gostrip.CatalogOpts{DbPathName: dbPath, ReadOnly: true})
		require.NoError(t, err)
		defer cat.Close()

		assert.True(t, cat.IsReadOnly())
		assert.Equal(t, int64(1), cat.NumEntries())

		got, found, err := cat.Lookup(key)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, groups, got)

		_, err = cat.Store(key+1, groups)
		require.ErrorIs(t, err, gostrip.ErrCatalogReadOnly)
	}
}

func TestBadParams(t *testing.T) {
	_, err := catalog.Open(gostrip.CatalogOpts{ReadOnly: true})
	require.ErrorIs(t, err, gostrip.ErrBadCatalogParam)
}

func TestGroupCodec(t *testing.T) {
	groups := []gostrip.PrimitiveGroup{
		{Type: gostrip.PrimStrip, Indices: []uint32{0, 300, 70000, 0xFFFFFFFF}},
		{Type: gostrip.PrimList, Indices: []uint32{}},
	}
	buf := catalog.MarshalGroups(nil, groups)
	got, err := catalog.UnmarshalGroups(buf)
	require.NoError(t, err)
	assert.Equal(t, groups, got)

	_, err = catalog.UnmarshalGroups(buf[:len(buf)-1])
	require.ErrorIs(t, err, gostrip.ErrBadRecord)

	_, err = catalog.UnmarshalGroups([]byte{1, 9, 0})
	require.ErrorIs(t, err, gostrip.ErrBadRecord)
}
