package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorustyt/gonavbake/recast"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Error(msg)
	}
}

const sampleToml = `
cell_size = 0.5
cell_height = 0.25
agent_max_climb = 0.9
agent_radius = 0.6
edge_max_len = 12.0
partition = "monotone"
tess_area_edges = true
tile_size = 48
workers = 4

[log]
level = "debug"

[[volume]]
shape = "poly"
area = 5
points = [[0.0, 0.0, 0.0], [4.0, 0.0, 0.0], [4.0, 0.0, 4.0]]
hmin = -1.0
hmax = 2.0

[[volume]]
shape = "cylinder"
area = 7
center = [10.0, 0.0, 10.0]
radius = 2.0
height = 3.0
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bake.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeConfig(t, sampleToml))
	if err != nil {
		t.Fatal(err)
	}
	assertTrue(t, s.CellSize == 0.5 && s.CellHeight == 0.25, "cell sizes read")
	assertTrue(t, s.AgentHeight == 2 && s.AgentMaxSlope == 45, "unset keys keep defaults")
	assertTrue(t, s.PartitionType() == recast.RC_PARTITION_MONOTONE, "partition parsed")
	assertTrue(t, s.ContourFlags() == recast.RC_CONTOUR_TESS_WALL_EDGES|recast.RC_CONTOUR_TESS_AREA_EDGES, "area edges tessellated")
	assertTrue(t, s.Workers == 4, "worker count read")
	assertTrue(t, s.Log.Level == "debug" && s.Log.MaxSizeMB == 64, "log table merged over defaults")
	assertTrue(t, !s.HasBounds(), "no bounds override")

	if len(s.Volumes) != 2 {
		t.Fatalf("got %d volumes, want 2", len(s.Volumes))
	}
	poly := s.Volumes[0]
	assertTrue(t, poly.Shape == ShapePoly && poly.Area == 5, "poly volume read")
	flat := poly.FlatPoints()
	assertTrue(t, len(flat) == 9 && flat[3] == 4 && flat[8] == 4, "points flattened in order")
	assertTrue(t, s.Volumes[1].Center == [3]float32{10, 0, 10}, "cylinder centre read")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assertTrue(t, errors.Is(err, os.ErrNotExist), "missing file reported")

	_, err = Load(writeConfig(t, "cell_size = [1"))
	assertTrue(t, err != nil, "syntax error reported")

	cases := map[string]string{
		"partition":  `partition = "spiral"`,
		"tile size":  `tile_size = 0`,
		"slope":      `agent_max_slope = 90.0`,
		"cell size":  `cell_size = 0.0`,
		"shape":      "[[volume]]\nshape = \"star\"",
		"poly":       "[[volume]]\nshape = \"poly\"\npoints = [[0.0, 0.0, 0.0]]",
		"box":        "[[volume]]\nshape = \"box\"\nmin = [1.0, 0.0, 0.0]\nmax = [0.0, 1.0, 1.0]",
		"cylinder":   "[[volume]]\nshape = \"cylinder\"\nradius = 0.0\nheight = 1.0",
		"area range": "[[volume]]\nshape = \"box\"\narea = 64\nmax = [1.0, 1.0, 1.0]",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assertTrue(t, errors.Is(err, recast.ErrInvalidInput), "invalid settings rejected")
		})
	}
}

func TestToRcConfig(t *testing.T) {
	s := Default()
	s.CellSize = 0.5
	s.CellHeight = 0.25
	cfg := s.ToRcConfig([3]float32{0, 0, 0}, [3]float32{10, 5, 20})

	assertTrue(t, cfg.Width == 20 && cfg.Height == 40, "grid size in cells")
	assertTrue(t, cfg.WalkableHeight == 8, "agent height rounded up to cells")
	assertTrue(t, cfg.WalkableClimb == 3, "agent climb rounded down to cells")
	assertTrue(t, cfg.WalkableRadius == 2, "agent radius rounded up to cells")
	assertTrue(t, cfg.MaxEdgeLen == 24, "edge length in cells")
	assertTrue(t, cfg.MinRegionArea == 64 && cfg.MergeRegionArea == 400, "region sizes squared")
	assertTrue(t, cfg.BorderSize == 0, "single field has no border")
	assertTrue(t, cfg.Validate() == nil, "converted config is valid")
}

func TestToTileConfig(t *testing.T) {
	s := Default()
	s.CellSize = 0.5
	s.CellHeight = 0.25
	bmin, bmax := [3]float32{0, 0, 0}, [3]float32{100, 10, 50}

	tw, th := s.TileGrid(bmin, bmax)
	assertTrue(t, tw == 5 && th == 3, "partial tiles rounded up")

	cfg := s.ToTileConfig(bmin, bmax, 1, 0)
	assertTrue(t, cfg.TileSize == 48, "tile size copied")
	assertTrue(t, cfg.BorderSize == cfg.WalkableRadius+3, "border pads the erosion radius")
	assertTrue(t, cfg.Width == 48+2*cfg.BorderSize && cfg.Height == cfg.Width, "field covers tile and border")
	assertTrue(t, cfg.Bmin[0] == 21.5 && cfg.Bmax[0] == 50.5, "x bounds padded by the border")
	assertTrue(t, cfg.Bmin[2] == -2.5 && cfg.Bmax[2] == 26.5, "z bounds padded by the border")
	assertTrue(t, cfg.Bmin[1] == 0 && cfg.Bmax[1] == 10, "height bounds untouched")
}
