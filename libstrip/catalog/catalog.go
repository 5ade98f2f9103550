package catalog

import (
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/dgraph-io/badger/v3"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Catalog database format:

	gCatalogStateKey => CatalogState: MajorVers, MinorVers, NumEntries (varints)

	kEntryPrefix, MeshKey (big endian uint64) => Groups:
		NumGroups (varint)
			Type (varint), NumIndices (varint), [NumIndices]varint
			...

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const (
	kEntryPrefix = byte(0x01)
	kEntryKeySz  = 9

	kMajorVers = 2026
	kMinorVers = 1
)

type catalogState struct {
	MajorVers  uint64
	MinorVers  uint64
	NumEntries uint64
}

func (st *catalogState) Marshal() []byte {
	buf := proto.NewBuffer(make([]byte, 0, 16))
	buf.EncodeVarint(st.MajorVers)
	buf.EncodeVarint(st.MinorVers)
	buf.EncodeVarint(st.NumEntries)
	return buf.Bytes()
}

func (st *catalogState) Unmarshal(val []byte) (err error) {
	buf := proto.NewBuffer(val)
	if st.MajorVers, err = buf.DecodeVarint(); err == nil {
		if st.MinorVers, err = buf.DecodeVarint(); err == nil {
			st.NumEntries, err = buf.DecodeVarint()
		}
	}
	if err != nil {
		return errors.Wrap(gostrip.ErrBadRecord, "catalog state")
	}
	return nil
}

// catalog is a badger-backed gostrip.Catalog
type catalog struct {
	mu         sync.RWMutex // guards db and state; readers hold it for the whole transaction
	readOnly   bool
	stateDirty bool
	state      catalogState
	db         *badger.DB
}

// Open opens (or creates) the catalog described by opts.  An empty DbPathName opens an in-memory catalog.
func Open(opts gostrip.CatalogOpts) (gostrip.Catalog, error) {
	cat := &catalog{
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(gostrip.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = !opts.ReadOnly
		cat.state = catalogState{
			MajorVers: kMajorVers,
			MinorVers: kMinorVers,
		}
	}

	if err == nil && (cat.state.MajorVers != kMajorVers || cat.state.MinorVers != kMinorVers) {
		err = errors.Wrapf(gostrip.ErrBadRecord, "catalog version %d.%d is incompatible", cat.state.MajorVers, cat.state.MinorVers)
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cat.state.Unmarshal(val)
		})
	})
}

func (cat *catalog) flushState() error {
	if !cat.stateDirty {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.Marshal())
	})
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

func (cat *catalog) Close() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if closeErr := cat.db.Close(); err == nil {
		err = closeErr
	}
	cat.db = nil
	return err
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumEntries() int64 {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	return int64(cat.state.NumEntries)
}

func formEntryKey(key gostrip.MeshKey) []byte {
	buf := make([]byte, kEntryKeySz)
	buf[0] = kEntryPrefix
	binary.BigEndian.PutUint64(buf[1:], uint64(key))
	return buf
}

func (cat *catalog) Lookup(key gostrip.MeshKey) ([]gostrip.PrimitiveGroup, bool, error) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	if cat.db == nil {
		return nil, false, gostrip.ErrCatalogClosed
	}

	var groups []gostrip.PrimitiveGroup
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(formEntryKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) (err error) {
			groups, err = UnmarshalGroups(val)
			return err
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	klog.V(2).Infof("catalog: hit %016x (%d groups)", uint64(key), len(groups))
	return groups, true, nil
}

func (cat *catalog) Store(key gostrip.MeshKey, groups []gostrip.PrimitiveGroup) (bool, error) {
	if cat.readOnly {
		return false, gostrip.ErrCatalogReadOnly
	}

	cat.mu.Lock()
	defer cat.mu.Unlock()
	if cat.db == nil {
		return false, gostrip.ErrCatalogClosed
	}

	entryKey := formEntryKey(key)
	added := false
	err := cat.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(entryKey)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		added = true
		return txn.Set(entryKey, MarshalGroups(nil, groups))
	})
	if err != nil {
		return false, err
	}

	if added {
		cat.state.NumEntries++
		cat.stateDirty = true
	}
	return added, nil
}

// MarshalGroups appends the catalog encoding of the given groups to dst.
func MarshalGroups(dst []byte, groups []gostrip.PrimitiveGroup) []byte {
	sz := 1
	for _, group := range groups {
		sz += 2 + 3*len(group.Indices)
	}

	if cap(dst)-len(dst) < sz {
		dst = append(make([]byte, 0, len(dst)+sz), dst...)
	}
	buf := proto.NewBuffer(dst)
	buf.EncodeVarint(uint64(len(groups)))
	for _, group := range groups {
		buf.EncodeVarint(uint64(group.Type))
		buf.EncodeVarint(uint64(len(group.Indices)))
		for _, idx := range group.Indices {
			buf.EncodeVarint(uint64(idx))
		}
	}
	return buf.Bytes()
}

// UnmarshalGroups decodes groups encoded by MarshalGroups.  Errors wrap gostrip.ErrBadRecord.
func UnmarshalGroups(val []byte) ([]gostrip.PrimitiveGroup, error) {
	buf := proto.NewBuffer(val)

	numGroups, err := buf.DecodeVarint()
	if err != nil || numGroups > uint64(len(val)) {
		return nil, errors.Wrap(gostrip.ErrBadRecord, "group count")
	}

	groups := make([]gostrip.PrimitiveGroup, numGroups)
	for gi := range groups {
		group := &groups[gi]

		primType, err := buf.DecodeVarint()
		if err != nil || (primType != uint64(gostrip.PrimList) && primType != uint64(gostrip.PrimStrip)) {
			return nil, errors.Wrapf(gostrip.ErrBadRecord, "group %d type", gi)
		}
		group.Type = gostrip.PrimitiveType(primType)

		numIndices, err := buf.DecodeVarint()
		if err != nil || numIndices > uint64(len(val)) {
			return nil, errors.Wrapf(gostrip.ErrBadRecord, "group %d index count", gi)
		}

		group.Indices = make([]uint32, numIndices)
		for i := range group.Indices {
			idx, err := buf.DecodeVarint()
			if err != nil || idx > 0xFFFFFFFF {
				return nil, errors.Wrapf(gostrip.ErrBadRecord, "group %d index %d", gi, i)
			}
			group.Indices[i] = uint32(idx)
		}
	}

	return groups, nil
}
