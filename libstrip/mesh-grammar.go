package libstrip

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/2x3systems/gostrip/gostrip"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// MeshExpr is a parsed text mesh: one statement per line.
//
//	v x y z           vertex position (only counted)
//	f 1 2 3 [4 ...]   1-based face; "a/b/c" and negative (relative) refs are accepted; polygons are fanned
//	t 0 1 2           0-based raw triangle
//	# ...             comment
//
// Any other statement (vn, vt, o, g, usemtl, ...) is ignored.
type MeshExpr struct {
	Lines []*MeshLine `@@*`
}

type MeshLine struct {
	Vertex *VertexStmt `( @@`
	Face   *FaceStmt   `| @@`
	Tri    *TriStmt    `| @@`
	Other  *OtherStmt  `| @@ )? EOL`
}

type VertexStmt struct {
	Coords []string `"v" @Number*`
}

type FaceStmt struct {
	Refs []*FaceRef `"f" @@+`
}

type FaceRef struct {
	Vertex string `@Number`
	Tex    string `( Slash @Number?`
	Normal string `  ( Slash @Number? )? )?`
}

type TriStmt struct {
	Idx []string `"t" @Number @Number @Number`
}

type OtherStmt struct {
	Keyword string   `@Ident`
	Args    []string `( @Ident | @Number | @Slash | @Other )*`
}

var sMeshLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Comment", `#[^\n]*`},
	{"EOL", `\r?\n`},
	{"Number", `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{"Slash", `/`},
	{"Ident", `[A-Za-z_][\w.\-]*`},
	{"Whitespace", `[ \t]+`},
	{"Other", `[^\s]`},
})

var sParseMeshExpr = participle.MustBuild[MeshExpr](
	participle.Lexer(sMeshLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// LoadMesh reads and parses the text mesh at the given path.  The mesh is named after the file.
func LoadMesh(pathname string) (*gostrip.Mesh, error) {
	file, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(pathname), filepath.Ext(pathname))
	return ParseMesh(name, file)
}

// ParseMesh reads a text mesh from r.
func ParseMesh(name string, r io.Reader) (*gostrip.Mesh, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseMeshString(name, string(buf))
}

// ParseMeshString parses a text mesh.  Errors wrap gostrip.ErrBadMeshFile.
func ParseMeshString(name string, meshExpr string) (*gostrip.Mesh, error) {
	if !strings.HasSuffix(meshExpr, "\n") {
		meshExpr += "\n"
	}

	expr, err := sParseMeshExpr.ParseString(name, meshExpr)
	if err != nil {
		return nil, errors.Wrap(gostrip.ErrBadMeshFile, err.Error())
	}

	var mb meshBuilder
	for li, line := range expr.Lines {
		if err = mb.applyLine(line); err != nil {
			return nil, errors.Wrapf(gostrip.ErrBadMeshFile, "%s: statement %d: %v", name, li+1, err)
		}
	}

	mesh := &gostrip.Mesh{
		Name:        name,
		Indices:     mb.indices,
		VertexCount: mb.numVerts,
	}
	if mb.numVerts == 0 {
		mesh.VertexCount = InferVertexCount(mb.indices)
	} else if int64(mb.maxIndex) >= int64(mb.numVerts) && len(mb.indices) > 0 {
		return nil, errors.Wrapf(gostrip.ErrBadMeshFile, "%s: index %d exceeds the %d declared vertices", name, mb.maxIndex, mb.numVerts)
	}
	return mesh, nil
}

type meshBuilder struct {
	numVerts int
	maxIndex uint32
	indices  []uint32
	refs     []uint32
}

func (mb *meshBuilder) applyLine(line *MeshLine) error {
	switch {

	case line.Vertex != nil:
		mb.numVerts++

	case line.Face != nil:
		if len(line.Face.Refs) < 3 {
			return errors.Errorf("face has %d vertices", len(line.Face.Refs))
		}
		mb.refs = mb.refs[:0]
		for _, ref := range line.Face.Refs {
			idx, err := mb.resolveFaceRef(ref.Vertex)
			if err != nil {
				return err
			}
			mb.refs = append(mb.refs, idx)
		}
		for k := 2; k < len(mb.refs); k++ {
			mb.addTriangle(mb.refs[0], mb.refs[k-1], mb.refs[k])
		}

	case line.Tri != nil:
		var tri [3]uint32
		for i, str := range line.Tri.Idx {
			n, err := strconv.ParseUint(str, 10, 32)
			if err != nil {
				return errors.Errorf("bad triangle index %q", str)
			}
			tri[i] = uint32(n)
		}
		mb.addTriangle(tri[0], tri[1], tri[2])
	}

	return nil
}

func (mb *meshBuilder) resolveFaceRef(str string) (uint32, error) {
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, errors.Errorf("bad face index %q", str)
	}
	switch {
	case n > 0 && n <= 1<<32:
		return uint32(n - 1), nil
	case n < 0 && -n <= int64(mb.numVerts):
		return uint32(int64(mb.numVerts) + n), nil
	}
	return 0, errors.Errorf("face index %d is out of range", n)
}

func (mb *meshBuilder) addTriangle(a, b, c uint32) {
	for _, v := range [3]uint32{a, b, c} {
		if v > mb.maxIndex {
			mb.maxIndex = v
		}
	}
	mb.indices = append(mb.indices, a, b, c)
}
