package geom

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gorustyt/gonavbake/recast"
)

// ChunkyTriMeshNode is a node of the xz bounding volume tree. Leaves have
// I >= 0 and own Tris[I*3 : (I+N)*3]; inner nodes store the negated number
// of nodes to skip to reach the next sibling.
type ChunkyTriMeshNode struct {
	Bmin [2]float32
	Bmax [2]float32
	I    int
	N    int
}

func (n *ChunkyTriMeshNode) IsLeaf() bool { return n.I >= 0 }

// ChunkyTriMesh groups triangles into spatial chunks so a tile only
// rasterizes the triangles near it.
type ChunkyTriMesh struct {
	Nodes           []ChunkyTriMeshNode
	Tris            []int
	MaxTrisPerChunk int
}

type boundsItem struct {
	bmin [2]float32
	bmax [2]float32
	i    int
}

func calcExtends(items []boundsItem) (bmin, bmax [2]float32) {
	bmin = items[0].bmin
	bmax = items[0].bmax
	for _, it := range items[1:] {
		bmin[0] = min(bmin[0], it.bmin[0])
		bmin[1] = min(bmin[1], it.bmin[1])
		bmax[0] = max(bmax[0], it.bmax[0])
		bmax[1] = max(bmax[1], it.bmax[1])
	}
	return
}

func longestAxis(x, y float32) int {
	if y > x {
		return 1
	}
	return 0
}

func (cm *ChunkyTriMesh) subdivide(items []boundsItem, trisPerChunk int, inTris []int) {
	icur := len(cm.Nodes)
	cm.Nodes = append(cm.Nodes, ChunkyTriMeshNode{})
	bmin, bmax := calcExtends(items)
	if len(items) <= trisPerChunk {
		// Leaf
		node := &cm.Nodes[icur]
		node.Bmin, node.Bmax = bmin, bmax
		node.I = len(cm.Tris) / 3
		node.N = len(items)
		for _, it := range items {
			cm.Tris = append(cm.Tris, inTris[it.i*3:it.i*3+3]...)
		}
		return
	}

	axis := longestAxis(bmax[0]-bmin[0], bmax[1]-bmin[1])
	slices.SortStableFunc(items, func(a, b boundsItem) int {
		return cmp.Compare(a.bmin[axis], b.bmin[axis])
	})
	isplit := len(items) / 2
	cm.subdivide(items[:isplit], trisPerChunk, inTris)
	cm.subdivide(items[isplit:], trisPerChunk, inTris)

	node := &cm.Nodes[icur]
	node.Bmin, node.Bmax = bmin, bmax
	// Negative index means escape.
	node.I = -(len(cm.Nodes) - icur)
}

// NewChunkyTriMesh builds the chunk tree over tris, at most trisPerChunk
// triangles per leaf.
func NewChunkyTriMesh(verts []float32, tris []int, trisPerChunk int) (*ChunkyTriMesh, error) {
	if trisPerChunk <= 0 {
		return nil, fmt.Errorf("%w: %d triangles per chunk", recast.ErrInvalidInput, trisPerChunk)
	}
	ntris := len(tris) / 3
	cm := &ChunkyTriMesh{Tris: make([]int, 0, ntris*3)}
	if ntris == 0 {
		return cm, nil
	}

	items := make([]boundsItem, ntris)
	for i := range items {
		t := tris[i*3 : i*3+3]
		it := &items[i]
		it.i = i
		// Calc triangle XZ bounds.
		it.bmin = [2]float32{verts[t[0]*3], verts[t[0]*3+2]}
		it.bmax = it.bmin
		for j := 1; j < 3; j++ {
			v := verts[t[j]*3:]
			it.bmin[0] = min(it.bmin[0], v[0])
			it.bmin[1] = min(it.bmin[1], v[2])
			it.bmax[0] = max(it.bmax[0], v[0])
			it.bmax[1] = max(it.bmax[1], v[2])
		}
	}
	nchunks := (ntris + trisPerChunk - 1) / trisPerChunk
	cm.Nodes = make([]ChunkyTriMeshNode, 0, nchunks*4)
	cm.subdivide(items, trisPerChunk, tris)

	for i := range cm.Nodes {
		if node := &cm.Nodes[i]; node.IsLeaf() {
			cm.MaxTrisPerChunk = max(cm.MaxTrisPerChunk, node.N)
		}
	}
	return cm, nil
}

// NodeTris returns the triangle indices owned by leaf i.
func (cm *ChunkyTriMesh) NodeTris(i int) []int {
	node := &cm.Nodes[i]
	return cm.Tris[node.I*3 : (node.I+node.N)*3]
}

func checkOverlapRect(amin, amax, bmin, bmax [2]float32) bool {
	return !(amin[0] > bmax[0] || amax[0] < bmin[0] || amin[1] > bmax[1] || amax[1] < bmin[1])
}

func checkOverlapSegment(p, q, bmin, bmax [2]float32) bool {
	const eps = 1e-6
	tmin, tmax := float32(0), float32(1)
	d := [2]float32{q[0] - p[0], q[1] - p[1]}
	for i := 0; i < 2; i++ {
		if d[i] < eps && d[i] > -eps {
			// Ray is parallel to slab. No hit if origin not within slab
			if p[i] < bmin[i] || p[i] > bmax[i] {
				return false
			}
			continue
		}
		ood := 1 / d[i]
		t1 := (bmin[i] - p[i]) * ood
		t2 := (bmax[i] - p[i]) * ood
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}

func (cm *ChunkyTriMesh) query(overlaps func(node *ChunkyTriMeshNode) bool) []int {
	var ids []int
	for i := 0; i < len(cm.Nodes); {
		node := &cm.Nodes[i]
		overlap := overlaps(node)
		isLeaf := node.IsLeaf()
		if isLeaf && overlap {
			ids = append(ids, i)
		}
		if overlap || isLeaf {
			i++
		} else {
			i += -node.I
		}
	}
	return ids
}

// ChunksOverlappingRect returns the leaves whose xz bounds touch the rectangle.
func (cm *ChunkyTriMesh) ChunksOverlappingRect(bmin, bmax [2]float32) []int {
	return cm.query(func(node *ChunkyTriMeshNode) bool {
		return checkOverlapRect(bmin, bmax, node.Bmin, node.Bmax)
	})
}

// ChunksOverlappingSegment returns the leaves whose xz bounds the segment pq crosses.
func (cm *ChunkyTriMesh) ChunksOverlappingSegment(p, q [2]float32) []int {
	return cm.query(func(node *ChunkyTriMeshNode) bool {
		return checkOverlapSegment(p, q, node.Bmin, node.Bmax)
	})
}
