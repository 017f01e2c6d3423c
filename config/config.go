package config

import (
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gorustyt/gonavbake/common"
	"github.com/gorustyt/gonavbake/recast"
)

// Volume shapes.
const (
	ShapePoly     = "poly"
	ShapeBox      = "box"
	ShapeCylinder = "cylinder"
)

// Volume is an area marking shape. Poly uses Points with Hmin/Hmax and an
// optional Offset, box uses Min/Max, cylinder uses Center/Radius/Height.
type Volume struct {
	Shape  string       `toml:"shape"`
	Area   uint8        `toml:"area"`
	Points [][3]float32 `toml:"points"`
	Hmin   float32      `toml:"hmin"`
	Hmax   float32      `toml:"hmax"`
	Offset float32      `toml:"offset"`
	Min    [3]float32   `toml:"min"`
	Max    [3]float32   `toml:"max"`
	Center [3]float32   `toml:"center"`
	Radius float32      `toml:"radius"`
	Height float32      `toml:"height"`
}

func (v *Volume) Validate() error {
	if v.Area > recast.RC_WALKABLE_AREA {
		return fmt.Errorf("%w: area %d above %d", recast.ErrInvalidInput, v.Area, recast.RC_WALKABLE_AREA)
	}
	switch v.Shape {
	case ShapePoly:
		if len(v.Points) < 3 {
			return fmt.Errorf("%w: poly volume with %d points", recast.ErrInvalidInput, len(v.Points))
		}
		if v.Hmin > v.Hmax {
			return fmt.Errorf("%w: poly volume hmin %v > hmax %v", recast.ErrInvalidInput, v.Hmin, v.Hmax)
		}
	case ShapeBox:
		if v.Min[0] > v.Max[0] || v.Min[1] > v.Max[1] || v.Min[2] > v.Max[2] {
			return fmt.Errorf("%w: box volume min %v above max %v", recast.ErrInvalidInput, v.Min, v.Max)
		}
	case ShapeCylinder:
		if v.Radius <= 0 || v.Height <= 0 {
			return fmt.Errorf("%w: cylinder radius %v height %v", recast.ErrInvalidInput, v.Radius, v.Height)
		}
	default:
		return fmt.Errorf("%w: unknown volume shape %q", recast.ErrInvalidInput, v.Shape)
	}
	return nil
}

// FlatPoints returns Points as x, y, z triples.
func (v *Volume) FlatPoints() []float32 {
	out := make([]float32, 0, len(v.Points)*3)
	for _, p := range v.Points {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// Settings are the bake parameters in world units, as exposed by the
// sample tools.
type Settings struct {
	CellSize   float32 `toml:"cell_size"`
	CellHeight float32 `toml:"cell_height"`

	AgentHeight   float32 `toml:"agent_height"`
	AgentRadius   float32 `toml:"agent_radius"`
	AgentMaxClimb float32 `toml:"agent_max_climb"`
	AgentMaxSlope float32 `toml:"agent_max_slope"`

	// Region sizes are edge lengths in voxels, area = size*size.
	RegionMinSize   float32 `toml:"region_min_size"`
	RegionMergeSize float32 `toml:"region_merge_size"`

	EdgeMaxLen    float32 `toml:"edge_max_len"`
	EdgeMaxError  float32 `toml:"edge_max_error"`
	TessAreaEdges bool    `toml:"tess_area_edges"`

	Partition string `toml:"partition"`

	FilterLowHangingObstacles    bool `toml:"filter_low_hanging_obstacles"`
	FilterLedgeSpans             bool `toml:"filter_ledge_spans"`
	FilterWalkableLowHeightSpans bool `toml:"filter_walkable_low_height_spans"`

	TileSize    int  `toml:"tile_size"`
	Workers     int  `toml:"workers"`
	BuildLayers bool `toml:"build_layers"`

	// Optional bake bounds, the mesh bounds are used when both are zero.
	NavMeshBMin [3]float32 `toml:"navmesh_bmin"`
	NavMeshBMax [3]float32 `toml:"navmesh_bmax"`

	Volumes []Volume          `toml:"volume"`
	Log     common.LogOptions `toml:"log"`
}

// Default returns the sample tool defaults.
func Default() Settings {
	return Settings{
		CellSize:                     0.3,
		CellHeight:                   0.2,
		AgentHeight:                  2,
		AgentRadius:                  0.6,
		AgentMaxClimb:                0.9,
		AgentMaxSlope:                45,
		RegionMinSize:                8,
		RegionMergeSize:              20,
		EdgeMaxLen:                   12,
		EdgeMaxError:                 1.3,
		Partition:                    recast.RC_PARTITION_WATERSHED.String(),
		FilterLowHangingObstacles:    true,
		FilterLedgeSpans:             true,
		FilterWalkableLowHeightSpans: true,
		TileSize:                     48,
		Log:                          common.DefaultLogOptions(),
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) Validate() error {
	switch {
	case s.CellSize <= 0 || s.CellHeight <= 0:
		return fmt.Errorf("%w: cell size %v and height %v must be positive", recast.ErrInvalidInput, s.CellSize, s.CellHeight)
	case s.AgentHeight <= 0 || s.AgentRadius < 0 || s.AgentMaxClimb < 0:
		return fmt.Errorf("%w: agent height %v radius %v climb %v", recast.ErrInvalidInput, s.AgentHeight, s.AgentRadius, s.AgentMaxClimb)
	case s.AgentMaxSlope < 0 || s.AgentMaxSlope >= 90:
		return fmt.Errorf("%w: agent slope %v out of [0,90)", recast.ErrInvalidInput, s.AgentMaxSlope)
	case s.RegionMinSize < 0 || s.RegionMergeSize < 0 || s.EdgeMaxLen < 0 || s.EdgeMaxError < 0:
		return fmt.Errorf("%w: negative region or edge limits", recast.ErrInvalidInput)
	case s.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d", recast.ErrInvalidInput, s.TileSize)
	case s.Workers < 0:
		return fmt.Errorf("%w: workers %d", recast.ErrInvalidInput, s.Workers)
	}
	if _, err := recast.ParsePartitionType(s.Partition); err != nil {
		return err
	}
	for i := range s.Volumes {
		if err := s.Volumes[i].Validate(); err != nil {
			return fmt.Errorf("volume %d: %w", i, err)
		}
	}
	return nil
}

// PartitionType returns the parsed partition name.
func (s *Settings) PartitionType() recast.RcPartitionType {
	p, _ := recast.ParsePartitionType(s.Partition)
	return p
}

// HasBounds reports whether the file overrides the mesh bounds.
func (s *Settings) HasBounds() bool {
	return s.NavMeshBMin != [3]float32{} || s.NavMeshBMax != [3]float32{}
}

// ContourFlags returns the contour tessellation flags.
func (s *Settings) ContourFlags() int {
	flags := recast.RC_CONTOUR_TESS_WALL_EDGES
	if s.TessAreaEdges {
		flags |= recast.RC_CONTOUR_TESS_AREA_EDGES
	}
	return flags
}

// ToRcConfig converts to voxel units for a single field covering bmin..bmax.
func (s *Settings) ToRcConfig(bmin, bmax [3]float32) recast.RcConfig {
	cfg := recast.RcConfig{
		Cs:                     s.CellSize,
		Ch:                     s.CellHeight,
		WalkableSlopeAngle:     s.AgentMaxSlope,
		WalkableHeight:         int(math.Ceil(float64(s.AgentHeight / s.CellHeight))),
		WalkableClimb:          int(math.Floor(float64(s.AgentMaxClimb / s.CellHeight))),
		WalkableRadius:         int(math.Ceil(float64(s.AgentRadius / s.CellSize))),
		MaxEdgeLen:             int(s.EdgeMaxLen / s.CellSize),
		MaxSimplificationError: s.EdgeMaxError,
		MinRegionArea:          int(common.Sqr(s.RegionMinSize)),
		MergeRegionArea:        int(common.Sqr(s.RegionMergeSize)),
		Bmin:                   bmin,
		Bmax:                   bmax,
	}
	cfg.Width, cfg.Height = recast.RcCalcGridSize(bmin, bmax, cfg.Cs)
	return cfg
}

// ToTileConfig returns the config of tile (tx, tz) of the grid laid over
// bmin..bmax. The field is padded by a border of WalkableRadius+3 cells so
// obstacles next to the tile edge erode correctly.
func (s *Settings) ToTileConfig(bmin, bmax [3]float32, tx, tz int) recast.RcConfig {
	tcs := float32(s.TileSize) * s.CellSize
	var tbmin, tbmax [3]float32
	tbmin[0] = bmin[0] + float32(tx)*tcs
	tbmin[1] = bmin[1]
	tbmin[2] = bmin[2] + float32(tz)*tcs
	tbmax[0] = bmin[0] + float32(tx+1)*tcs
	tbmax[1] = bmax[1]
	tbmax[2] = bmin[2] + float32(tz+1)*tcs

	cfg := s.ToRcConfig(tbmin, tbmax)
	cfg.TileSize = s.TileSize
	cfg.BorderSize = cfg.WalkableRadius + 3 // Reserve enough padding.
	cfg.Width = cfg.TileSize + cfg.BorderSize*2
	cfg.Height = cfg.TileSize + cfg.BorderSize*2
	pad := float32(cfg.BorderSize) * cfg.Cs
	cfg.Bmin[0] -= pad
	cfg.Bmin[2] -= pad
	cfg.Bmax[0] += pad
	cfg.Bmax[2] += pad
	return cfg
}

// TileGrid returns the number of tiles along x and z.
func (s *Settings) TileGrid(bmin, bmax [3]float32) (tw, th int) {
	gw, gh := recast.RcCalcGridSize(bmin, bmax, s.CellSize)
	ts := s.TileSize
	return (gw + ts - 1) / ts, (gh + ts - 1) / ts
}
