package recast

import (
	"fmt"
	"math"

	"github.com/gorustyt/gonavbake/common"
)

// / Specifies a configuration to use when performing Recast builds.
// / @ingroup recast
type RcConfig struct {
	/// The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
	Width int

	/// The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
	Height int

	/// The width/height size of tile's on the xz-plane. [Limit: >= 0] [Units: vx]
	TileSize int

	/// The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	BorderSize int

	/// The xz-plane cell size to use for fields. [Limit: > 0] [Units: wu]
	Cs float32

	/// The y-axis cell size to use for fields. [Limit: > 0] [Units: wu]
	Ch float32

	/// The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmin [3]float32

	/// The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmax [3]float32

	/// The maximum slope that is considered walkable. [Limits: 0 <= value < 90] [Units: Degrees]
	WalkableSlopeAngle float32

	/// Minimum floor to 'ceiling' height that will still allow the floor area to
	/// be considered walkable. [Limit: >= 3] [Units: vx]
	WalkableHeight int

	/// Maximum ledge height that is considered to still be traversable. [Limit: >=0] [Units: vx]
	WalkableClimb int

	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions.  [Limit: >=0] [Units: vx]
	WalkableRadius int

	/// The maximum allowed length for contour edges along the border of the mesh. [Limit: >=0] [Units: vx]
	MaxEdgeLen int

	/// The maximum distance a simplified contour's border edges should deviate
	/// the original raw contour. [Limit: >=0] [Units: vx]
	MaxSimplificationError float32

	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MinRegionArea int

	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0] [Units: vx]
	MergeRegionArea int
}

// Validate checks the limits documented on each field.
func (cfg *RcConfig) Validate() error {
	switch {
	case cfg.Cs <= 0 || cfg.Ch <= 0:
		return fmt.Errorf("%w: cell size %v and cell height %v must be positive", ErrInvalidInput, cfg.Cs, cfg.Ch)
	case cfg.Width <= 0 || cfg.Height <= 0:
		return fmt.Errorf("%w: grid size %dx%d", ErrInvalidInput, cfg.Width, cfg.Height)
	case cfg.WalkableSlopeAngle < 0 || cfg.WalkableSlopeAngle >= 90:
		return fmt.Errorf("%w: walkable slope %v out of [0,90)", ErrInvalidInput, cfg.WalkableSlopeAngle)
	case cfg.WalkableHeight < 3:
		return fmt.Errorf("%w: walkable height %d < 3", ErrInvalidInput, cfg.WalkableHeight)
	case cfg.WalkableClimb < 0 || cfg.WalkableRadius < 0 || cfg.BorderSize < 0:
		return fmt.Errorf("%w: negative climb, radius or border", ErrInvalidInput)
	case cfg.MinRegionArea < 0 || cfg.MergeRegionArea < 0 || cfg.MaxEdgeLen < 0 || cfg.MaxSimplificationError < 0:
		return fmt.Errorf("%w: negative region or contour limits", ErrInvalidInput)
	}
	return nil
}

// / The default area id used to indicate a walkable polygon.
// / This is also the maximum allowed area id, and the only non-null area id
// / recognized by some steps in the build process.
const RC_WALKABLE_AREA = 63

// / Represents the null area.
// / When a data element is given this value it is considered to no longer be
// / assigned to a usable area.  (E.g. It is unwalkable.)
const RC_NULL_AREA = 0

// / Area ids live in the low bits, the rest may carry user flags.
const RC_AREA_FLAGS_MASK = 0x3F

// / The value returned by GetCon if the specified direction is not connected
// / to another span. (Has no neighbor.)
const RC_NOT_CONNECTED = 0x3f

// / Highest local span index a neighbour reference can encode.
const RC_MAX_LAYERS_PER_COLUMN = RC_NOT_CONNECTED - 1

// / Defines the number of bits allocated to RcSpan.Smin and RcSpan.Smax.
const RC_SPAN_HEIGHT_BITS = 13

// / Defines the maximum value for RcSpan.Smin and RcSpan.Smax.
const RC_SPAN_MAX_HEIGHT = (1 << RC_SPAN_HEIGHT_BITS) - 1

// / Heighfield border flag.
// / If a heightfield region ID has this bit set, then the region is a border
// / region and its spans are considered unwalkable.
const RC_BORDER_REG = 0x8000

// / Border vertex flag.
// / If a region ID has this bit set, then the associated element lies on
// / a tile border.
const RC_BORDER_VERTEX = 0x10000

// / Area border flag.
// / If a region ID has this bit set, then the associated element lies on
// / the border of an area.
const RC_AREA_BORDER = 0x20000

// / Applied to the region id field of contour vertices in order to extract the region id.
const RC_CONTOUR_REG_MASK = 0xffff

// / Contour build flags.
const (
	RC_CONTOUR_TESS_WALL_EDGES = 0x01 ///< Tessellate solid (impassable) edges during contour simplification.
	RC_CONTOUR_TESS_AREA_EDGES = 0x02 ///< Tessellate edges between areas during contour simplification.
)

// RcPartitionType selects the region partitioning strategy.
type RcPartitionType int

const (
	RC_PARTITION_WATERSHED RcPartitionType = iota
	RC_PARTITION_MONOTONE
	RC_PARTITION_LAYERS
)

func (p RcPartitionType) String() string {
	switch p {
	case RC_PARTITION_WATERSHED:
		return "watershed"
	case RC_PARTITION_MONOTONE:
		return "monotone"
	case RC_PARTITION_LAYERS:
		return "layers"
	}
	return fmt.Sprintf("partition(%d)", int(p))
}

// ParsePartitionType accepts the names returned by String.
func ParsePartitionType(s string) (RcPartitionType, error) {
	switch s {
	case "watershed", "":
		return RC_PARTITION_WATERSHED, nil
	case "monotone":
		return RC_PARTITION_MONOTONE, nil
	case "layers":
		return RC_PARTITION_LAYERS, nil
	}
	return 0, fmt.Errorf("%w: unknown partition type %q", ErrInvalidInput, s)
}

// RcCalcBounds returns the axis-aligned bounds of a flat (x, y, z) vertex list.
func RcCalcBounds(verts []float32) (bmin, bmax [3]float32) {
	if len(verts) < 3 {
		return
	}
	copy(bmin[:], verts[:3])
	copy(bmax[:], verts[:3])
	for i := 1; i < len(verts)/3; i++ {
		v := common.GetVert3(verts, i)
		common.Vmin(bmin[:], v)
		common.Vmax(bmax[:], v)
	}
	return
}

// RcCalcGridSize returns the voxel grid size covering the bounds.
func RcCalcGridSize(bmin, bmax [3]float32, cs float32) (sizeX, sizeZ int) {
	sizeX = int((bmax[0]-bmin[0])/cs + 0.5)
	sizeZ = int((bmax[2]-bmin[2])/cs + 0.5)
	return
}

// / Sets the area id of all triangles with a slope below the specified value
// / to RC_WALKABLE_AREA.
// /
// / Only sets the area id's for the walkable triangles.  Does not alter the
// / area id's for unwalkable triangles.
func RcMarkWalkableTriangles(ctx *RcContext, walkableSlopeAngle float32, verts []float32, tris []int, triAreaIDs []uint8) {
	walkableThr := float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))
	numTris := len(tris) / 3
	for i := 0; i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		norm := common.TriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]))
		// Check if the face is walkable.
		if norm.Y() > walkableThr {
			triAreaIDs[i] = RC_WALKABLE_AREA
		}
	}
}

// / Sets the area id of all triangles with a slope greater than or equal to the specified value to RC_NULL_AREA.
func RcClearUnwalkableTriangles(ctx *RcContext, walkableSlopeAngle float32, verts []float32, tris []int, triAreaIDs []uint8) {
	// The minimum Y value for a face normal of a triangle with a walkable slope.
	walkableLimitY := float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))
	numTris := len(tris) / 3
	for i := 0; i < numTris; i++ {
		tri := common.GetVert3(tris, i)
		norm := common.TriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]))
		if norm.Y() <= walkableLimitY {
			triAreaIDs[i] = RC_NULL_AREA
		}
	}
}
