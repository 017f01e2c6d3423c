package geom

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gonavbake/common"
	"github.com/gorustyt/gonavbake/recast"
)

const (
	MaxConvexVolumePts = 12
	MaxVolumes         = 256

	// trisPerChunk matches the chunk size used by the sample tools.
	trisPerChunk = 256
)

var ErrTooManyVolumes = errors.New("geom: too many convex volumes")

// ConvexVolume marks the spans inside an extruded convex polygon with Area.
type ConvexVolume struct {
	Verts      []float32
	Hmin, Hmax float32
	Area       uint8
}

func (v *ConvexVolume) NVerts() int { return len(v.Verts) / 3 }

// InputGeom is the source geometry of a bake: the triangle mesh, its chunk
// tree and the area marking volumes.
type InputGeom struct {
	mesh       *Mesh
	chunkyMesh *ChunkyTriMesh
	meshBMin   [3]float32
	meshBMax   [3]float32
	volumes    []ConvexVolume
}

// NewInputGeom indexes mesh for tiled queries.
func NewInputGeom(mesh *Mesh) (*InputGeom, error) {
	if mesh.VertCount() == 0 || mesh.TriCount() == 0 {
		return nil, fmt.Errorf("%w: empty mesh %q", recast.ErrInvalidInput, mesh.FileName)
	}
	cm, err := NewChunkyTriMesh(mesh.Verts, mesh.Tris, trisPerChunk)
	if err != nil {
		return nil, err
	}
	g := &InputGeom{mesh: mesh, chunkyMesh: cm}
	g.meshBMin, g.meshBMax = recast.RcCalcBounds(mesh.Verts)
	return g, nil
}

// LoadInputGeom reads an OBJ file and indexes it.
func LoadInputGeom(path string) (*InputGeom, error) {
	mesh, err := LoadObjFile(path)
	if err != nil {
		return nil, err
	}
	return NewInputGeom(mesh)
}

func (g *InputGeom) Mesh() *Mesh                   { return g.mesh }
func (g *InputGeom) ChunkyMesh() *ChunkyTriMesh    { return g.chunkyMesh }
func (g *InputGeom) MeshBoundsMin() [3]float32     { return g.meshBMin }
func (g *InputGeom) MeshBoundsMax() [3]float32     { return g.meshBMax }
func (g *InputGeom) ConvexVolumes() []ConvexVolume { return g.volumes }

// AddConvexVolume copies verts (x, y, z per point) into a new volume.
func (g *InputGeom) AddConvexVolume(verts []float32, hmin, hmax float32, area uint8) error {
	n := len(verts) / 3
	switch {
	case len(g.volumes) >= MaxVolumes:
		return ErrTooManyVolumes
	case n < 3 || n > MaxConvexVolumePts || len(verts)%3 != 0:
		return fmt.Errorf("%w: convex volume with %d coordinates", recast.ErrInvalidInput, len(verts))
	case hmin > hmax:
		return fmt.Errorf("%w: convex volume height %v > %v", recast.ErrInvalidInput, hmin, hmax)
	}
	g.volumes = append(g.volumes, ConvexVolume{
		Verts: append([]float32(nil), verts...),
		Hmin:  hmin,
		Hmax:  hmax,
		Area:  area,
	})
	return nil
}

// DeleteConvexVolume removes volume i, moving the last one into its slot.
func (g *InputGeom) DeleteConvexVolume(i int) {
	last := len(g.volumes) - 1
	g.volumes[i] = g.volumes[last]
	g.volumes = g.volumes[:last]
}

// MarkConvexVolumes applies every volume's area to chf.
func (g *InputGeom) MarkConvexVolumes(ctx *recast.RcContext, chf *recast.RcCompactHeightfield) {
	for i := range g.volumes {
		vol := &g.volumes[i]
		recast.RcMarkConvexPolyArea(ctx, vol.Verts, vol.Hmin, vol.Hmax, recast.NewAreaModification(vol.Area), chf)
	}
}

// RaycastMesh returns the first hit along src->dst as a fraction of the
// segment. Only triangles facing the segment start are hit.
func (g *InputGeom) RaycastMesh(src, dst []float32) (float32, bool) {
	// Prune hit ray.
	btmin, btmax, ok := isectSegAABB(src, dst, g.meshBMin, g.meshBMax)
	if !ok {
		return 0, false
	}
	sv, dv := common.ToVec3(src), common.ToVec3(dst)
	d := dv.Sub(sv)
	p := sv.Add(d.Mul(btmin))
	q := sv.Add(d.Mul(btmax))

	tmin := float32(1)
	hit := false
	verts := g.mesh.Verts
	for _, id := range g.chunkyMesh.ChunksOverlappingSegment([2]float32{p[0], p[2]}, [2]float32{q[0], q[2]}) {
		tris := g.chunkyMesh.NodeTris(id)
		for j := 0; j < len(tris); j += 3 {
			t, ok := intersectSegmentTriangle(sv, dv,
				common.ToVec3(common.GetVert3(verts, tris[j])),
				common.ToVec3(common.GetVert3(verts, tris[j+1])),
				common.ToVec3(common.GetVert3(verts, tris[j+2])))
			if ok && t < tmin {
				tmin = t
				hit = true
			}
		}
	}
	return tmin, hit
}

func intersectSegmentTriangle(sp, sq, a, b, c mgl32.Vec3) (float32, bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	qp := sp.Sub(sq)

	// Compute triangle normal. Can be precalculated or cached if
	// intersecting multiple segments against the same triangle
	norm := ab.Cross(ac)

	// Compute denominator d. If d <= 0, segment is parallel to or points
	// away from triangle, so exit early
	d := qp.Dot(norm)
	if d <= 0 {
		return 0, false
	}

	// Compute intersection t value of pq with plane of triangle. A ray
	// intersects iff 0 <= t. Segment intersects iff 0 <= t <= 1. Delay
	// dividing by d until intersection has been found to pierce triangle
	ap := sp.Sub(a)
	t := ap.Dot(norm)
	if t < 0 || t > d {
		return 0, false
	}

	// Compute barycentric coordinate components and test if within bounds
	e := qp.Cross(ap)
	v := ac.Dot(e)
	if v < 0 || v > d {
		return 0, false
	}
	w := -ab.Dot(e)
	if w < 0 || v+w > d {
		return 0, false
	}
	return t / d, true
}

func isectSegAABB(sp, sq []float32, amin, amax [3]float32) (tmin, tmax float32, ok bool) {
	const eps = 1e-6
	tmin, tmax = 0, 1
	for i := 0; i < 3; i++ {
		d := sq[i] - sp[i]
		if common.Abs(d) < eps {
			// Ray is parallel to slab. No hit if origin not within slab
			if sp[i] < amin[i] || sp[i] > amax[i] {
				return 0, 0, false
			}
			continue
		}
		ood := 1 / d
		t1 := (amin[i] - sp[i]) * ood
		t2 := (amax[i] - sp[i]) * ood
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}
