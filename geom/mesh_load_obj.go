package geom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorustyt/gonavbake/common"
)

var (
	// ErrInvalidFace is returned for a face index of zero or one outside the
	// vertices read so far.
	ErrInvalidFace = errors.New("geom: invalid face index")
	// ErrInvalidVertex is returned for a vertex line that does not hold three numbers.
	ErrInvalidVertex = errors.New("geom: invalid vertex")
)

// maxFaceVerts bounds the polygon size accepted on a face line.
const maxFaceVerts = 32

// Mesh is an indexed triangle soup loaded from a Wavefront OBJ file.
type Mesh struct {
	FileName string
	Verts    []float32 // x, y, z per vertex
	Tris     []int     // three vertex indices per triangle
	Normals  []float32 // unit normal per triangle
}

func (m *Mesh) VertCount() int { return len(m.Verts) / 3 }
func (m *Mesh) TriCount() int  { return len(m.Tris) / 3 }

// LoadObjFile reads the OBJ file at path.
func LoadObjFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := LoadObj(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.FileName = filepath.Base(path)
	return m, nil
}

// LoadObj reads vertex and face records. Polygons are fan triangulated,
// texture and normal records are ignored.
func LoadObj(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		if err := m.parseRow(strings.Fields(row)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	m.calcNormals()
	return m, nil
}

func (m *Mesh) parseRow(ss []string) error {
	switch ss[0] {
	case "v":
		return m.parseVertex(ss[1:])
	case "f":
		return m.parseFace(ss[1:])
	}
	return nil
}

func (m *Mesh) parseVertex(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("%w: %d coordinates", ErrInvalidVertex, len(ss))
	}
	var v [3]float32
	for i := range v {
		f, err := strconv.ParseFloat(ss[i], 32)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidVertex, err)
		}
		v[i] = float32(f)
	}
	m.Verts = append(m.Verts, v[0], v[1], v[2])
	return nil
}

func (m *Mesh) vertIndex(s string) (int, error) {
	// Only the position index of "v/vt/vn" is used.
	s, _, _ = strings.Cut(s, "/")
	vi, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFace, s)
	}
	n := m.VertCount()
	switch {
	case vi < 0:
		vi += n
	case vi > 0:
		vi--
	default:
		return 0, fmt.Errorf("%w: index 0", ErrInvalidFace)
	}
	if vi < 0 || vi >= n {
		return 0, fmt.Errorf("%w: %s with %d vertices", ErrInvalidFace, s, n)
	}
	return vi, nil
}

func (m *Mesh) parseFace(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("%w: face with %d vertices", ErrInvalidFace, len(ss))
	}
	if len(ss) > maxFaceVerts {
		ss = ss[:maxFaceVerts]
	}
	data := make([]int, 0, len(ss))
	for _, s := range ss {
		vi, err := m.vertIndex(s)
		if err != nil {
			return err
		}
		data = append(data, vi)
	}
	for i := 2; i < len(data); i++ {
		m.Tris = append(m.Tris, data[0], data[i-1], data[i])
	}
	return nil
}

func (m *Mesh) calcNormals() {
	m.Normals = make([]float32, 0, len(m.Tris))
	for i := 0; i < len(m.Tris); i += 3 {
		n := common.TriNormal(
			common.GetVert3(m.Verts, m.Tris[i]),
			common.GetVert3(m.Verts, m.Tris[i+1]),
			common.GetVert3(m.Verts, m.Tris[i+2]))
		m.Normals = append(m.Normals, n[0], n[1], n[2])
	}
}
