package pystrip

import (
	"github.com/2x3systems/gostrip/gostrip"
	"github.com/2x3systems/gostrip/libstrip"
	"github.com/go-python/gpython/py"
)

var (
	pyMeshType = py.NewType("Mesh", "a named triangle index buffer")
)

// stripify(indices, cache_size=16, min_strip=2, stitch=False) -> [(type, [indices...]), ...]
func py_Stripify(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	var (
		indicesObj py.Object
		cacheSize  py.Object = py.Int(gostrip.DefaultCacheSize)
		minStrip   py.Object = py.Int(gostrip.DefaultMinStripSize)
		stitch     py.Object = py.False
	)
	err := py.ParseTupleAndKeywords(args, kwargs, "O|OOO:stripify", []string{"indices", "cache_size", "min_strip", "stitch"},
		&indicesObj, &cacheSize, &minStrip, &stitch)
	if err != nil {
		return nil, err
	}

	indices, err := loadIndices(indicesObj)
	if err != nil {
		return nil, err
	}

	cfg := gostrip.DefaultConfig()
	if cfg.CacheSize, err = getInt(cacheSize); err != nil {
		return nil, err
	}
	if cfg.MinStripSize, err = getInt(minStrip); err != nil {
		return nil, err
	}
	cfg.StitchStrips = truthy(stitch)

	res, err := libstrip.Stripify(indices, cfg)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return exportGroups(res.Groups), nil
}

// verify(indices, groups) -> True, or raises ValueError
func py_Verify(module py.Object, args py.Tuple) (py.Object, error) {
	var indicesObj, groupsObj py.Object
	err := py.ParseTuple(args, "OO:verify", &indicesObj, &groupsObj)
	if err != nil {
		return nil, err
	}

	indices, err := loadIndices(indicesObj)
	if err != nil {
		return nil, err
	}
	groups, err := importGroups(groupsObj)
	if err != nil {
		return nil, err
	}

	if err = gostrip.Verify(indices, groups, nil); err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.True, nil
}

// acmr(groups, cache_size=16) -> float
func py_ACMR(module py.Object, args py.Tuple) (py.Object, error) {
	var groupsObj py.Object
	var cacheSize py.Object = py.Int(gostrip.DefaultCacheSize)
	err := py.ParseTuple(args, "O|O:acmr", &groupsObj, &cacheSize)
	if err != nil {
		return nil, err
	}

	groups, err := importGroups(groupsObj)
	if err != nil {
		return nil, err
	}
	size, err := getInt(cacheSize)
	if err != nil {
		return nil, err
	}
	return py.Float(libstrip.MeasureACMR(groups, size, nil)), nil
}

// load_mesh(pathname) -> Mesh
func py_LoadMesh(module py.Object, args py.Tuple) (py.Object, error) {
	var pathObj py.Object
	err := py.ParseTuple(args, "O:load_mesh", &pathObj)
	if err != nil {
		return nil, err
	}
	pathname, ok := pathObj.(py.String)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected str (got %v)", pathObj.Type().Name)
	}

	mesh, err := libstrip.LoadMesh(string(pathname))
	if err != nil {
		return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
	}
	return pyMesh{mesh}, nil
}

type pyMesh struct {
	*gostrip.Mesh
}

func (mesh pyMesh) Type() *py.Type {
	return pyMeshType
}

func (mesh pyMesh) M__str__() (py.Object, error) {
	return py.String(mesh.Name), nil
}

func (mesh pyMesh) M__repr__() (py.Object, error) {
	return mesh.M__str__()
}

func py_Mesh_Name(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyMesh)
	return py.String(mesh.Name), nil
}

func py_Mesh_Indices(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyMesh)
	return exportIndices(mesh.Indices), nil
}

func py_Mesh_NumVerts(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyMesh)
	return py.Int(mesh.VertexCount), nil
}

func py_Mesh_NumTris(self py.Object, args py.Tuple) (py.Object, error) {
	mesh := self.(pyMesh)
	return py.Int(len(mesh.Indices) / 3), nil
}

func sequenceItems(obj py.Object) ([]py.Object, error) {
	switch seq := obj.(type) {
	case py.Tuple:
		return seq, nil
	case *py.List:
		return seq.Items, nil
	}
	return nil, py.ExceptionNewf(py.TypeError, "expected list or tuple (got %v)", obj.Type().Name)
}

func getInt(obj py.Object) (int, error) {
	val, err := py.GetInt(obj)
	if err != nil {
		return 0, err
	}
	return int(val), nil
}

func truthy(obj py.Object) bool {
	switch val := obj.(type) {
	case py.Bool:
		return bool(val)
	case py.Int:
		return val != 0
	}
	return false
}

func loadIndices(obj py.Object) ([]uint32, error) {
	items, err := sequenceItems(obj)
	if err != nil {
		return nil, err
	}
	indices := make([]uint32, len(items))
	for i, item := range items {
		val, err := py.GetInt(item)
		if err != nil {
			return nil, err
		}
		if val < 0 || val > 0xFFFFFFFF {
			return nil, py.ExceptionNewf(py.ValueError, "index %d is out of range", int64(val))
		}
		indices[i] = uint32(val)
	}
	return indices, nil
}

func exportIndices(indices []uint32) py.Object {
	items := make([]py.Object, len(indices))
	for i, idx := range indices {
		items[i] = py.Int(idx)
	}
	return py.NewListFromItems(items)
}

func exportGroups(groups []gostrip.PrimitiveGroup) py.Object {
	items := make([]py.Object, len(groups))
	for i, group := range groups {
		items[i] = py.Tuple{
			py.String(group.Type.String()),
			exportIndices(group.Indices),
		}
	}
	return py.NewListFromItems(items)
}

func importGroups(obj py.Object) ([]gostrip.PrimitiveGroup, error) {
	items, err := sequenceItems(obj)
	if err != nil {
		return nil, err
	}

	groups := make([]gostrip.PrimitiveGroup, len(items))
	for i, item := range items {
		pair, err := sequenceItems(item)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, py.ExceptionNewf(py.ValueError, "group %d: expected (type, indices)", i)
		}

		switch pair[0] {
		case py.String(gostrip.PrimStrip.String()):
			groups[i].Type = gostrip.PrimStrip
		case py.String(gostrip.PrimList.String()):
			groups[i].Type = gostrip.PrimList
		default:
			return nil, py.ExceptionNewf(py.ValueError, "group %d: unknown primitive type %v", i, pair[0])
		}

		if groups[i].Indices, err = loadIndices(pair[1]); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func init() {

	/////////////////////////////////
	// Mesh
	{
		pyMeshType.Dict["Name"] = py.MustNewMethod("Name", py_Mesh_Name, 0, "")
		pyMeshType.Dict["Indices"] = py.MustNewMethod("Indices", py_Mesh_Indices, 0, "returns this Mesh's triangle indices as a list")
		pyMeshType.Dict["NumVerts"] = py.MustNewMethod("NumVerts", py_Mesh_NumVerts, 0, "")
		pyMeshType.Dict["NumTris"] = py.MustNewMethod("NumTris", py_Mesh_NumTris, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("stripify", py_Stripify, 0, "stripify(indices, cache_size=16, min_strip=2, stitch=False) -> [(type, indices), ...]"),
			py.MustNewMethod("verify", py_Verify, 0, "verify(indices, groups) -> True if groups draw exactly the triangles of indices"),
			py.MustNewMethod("acmr", py_ACMR, 0, "acmr(groups, cache_size=16) -> average cache misses per triangle"),
			py.MustNewMethod("load_mesh", py_LoadMesh, 0, "load_mesh(pathname) -> Mesh"),
		}

		globals := py.StringDict{
			"LIB_VERSION":        py.String(libstrip.LIB_VERSION),
			"DEFAULT_CACHE_SIZE": py.Int(gostrip.DefaultCacheSize),
			"DEFAULT_MIN_STRIP":  py.Int(gostrip.DefaultMinStripSize),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pystrip",
				Doc:  "triangle strip generation gpython module",
			},
			Methods: methods,
			Globals: globals,
		})
	}
}
