// Package builder runs the voxel pipeline over an input mesh, either as one
// field or as a grid of tiles built concurrently.
package builder

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorustyt/gonavbake/config"
	"github.com/gorustyt/gonavbake/geom"
	"github.com/gorustyt/gonavbake/recast"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoGeometry is reported for a field with no triangles inside it.
var ErrNoGeometry = errors.New("builder: no geometry in bounds")

// TileResult is the output of one field. A solo build has a single result
// at tile (0, 0).
type TileResult struct {
	TX, TZ    int
	Config    recast.RcConfig
	TriCount  int
	Compact   *recast.RcCompactHeightfield
	Contours  *recast.RcContourSet
	Layers    *recast.RcHeightfieldLayerSet
	BuildTime time.Duration
	Err       error
}

type Builder struct {
	settings config.Settings
	geom     *geom.InputGeom
	logger   *zap.Logger

	done  atomic.Int64
	total atomic.Int64
}

// New prepares a builder. Poly volumes of the settings are added to g, grown
// by their offset.
func New(settings config.Settings, g *geom.InputGeom, logger *zap.Logger) (*Builder, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	for i := range settings.Volumes {
		vol := &settings.Volumes[i]
		if vol.Shape != config.ShapePoly {
			continue
		}
		verts := vol.FlatPoints()
		if vol.Offset > 0 {
			verts = recast.RcOffsetPoly(verts, vol.Offset, geom.MaxConvexVolumePts)
			if verts == nil {
				return nil, fmt.Errorf("%w: volume %d does not fit %d points once offset", recast.ErrInvalidInput, i, geom.MaxConvexVolumePts)
			}
		}
		if err := g.AddConvexVolume(verts, vol.Hmin, vol.Hmax, vol.Area); err != nil {
			return nil, fmt.Errorf("volume %d: %w", i, err)
		}
	}
	return &Builder{settings: settings, geom: g, logger: logger}, nil
}

// Bounds returns the bake bounds, the settings override or the mesh bounds.
func (b *Builder) Bounds() (bmin, bmax [3]float32) {
	if b.settings.HasBounds() {
		return b.settings.NavMeshBMin, b.settings.NavMeshBMax
	}
	return b.geom.MeshBoundsMin(), b.geom.MeshBoundsMax()
}

// Progress returns finished and scheduled field counts of the running build.
func (b *Builder) Progress() (done, total int) {
	return int(b.done.Load()), int(b.total.Load())
}

// BuildSolo builds one field over the whole mesh.
func (b *Builder) BuildSolo(ctx context.Context) (*TileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.done.Store(0)
	b.total.Store(1)
	bmin, bmax := b.Bounds()
	cfg := b.settings.ToRcConfig(bmin, bmax)
	mesh := b.geom.Mesh()

	res := &TileResult{Config: cfg}
	rctx := recast.NewRcContext(b.logger)
	res.Err = b.buildField(rctx, res, mesh.Tris)
	b.done.Add(1)
	if res.Err != nil {
		return nil, res.Err
	}
	return res, nil
}

// BuildTiles builds every tile of the grid with a bounded worker pool.
// Results come back ordered by row then column. Tiles without geometry are
// skipped. A failing tile does not stop the others: its error is kept on
// its result and all tile errors are combined into the returned error.
// Cancellation is checked before each tile starts.
func (b *Builder) BuildTiles(ctx context.Context) ([]*TileResult, error) {
	bmin, bmax := b.Bounds()
	tw, th := b.settings.TileGrid(bmin, bmax)
	b.done.Store(0)
	b.total.Store(int64(tw * th))

	workers := b.settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	b.logger.Info("building tiles",
		zap.Int("tiles_x", tw),
		zap.Int("tiles_z", th),
		zap.Int("tile_size", b.settings.TileSize),
		zap.Int("workers", workers))

	var (
		mu      sync.Mutex
		results []*TileResult
		errs    error
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	start := time.Now()
	for z := 0; z < th; z++ {
		for x := 0; x < tw; x++ {
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := b.buildTile(bmin, bmax, x, z)
				done := b.done.Add(1)
				b.logger.Debug("tile done", zap.Int("tx", x), zap.Int("tz", z),
					zap.Int64("done", done), zap.Int64("total", b.total.Load()))
				if errors.Is(err, ErrNoGeometry) {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				results = append(results, res)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("tile %d,%d: %w", x, z, err))
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}
	slices.SortFunc(results, func(p, q *TileResult) int {
		if p.TZ != q.TZ {
			return p.TZ - q.TZ
		}
		return p.TX - q.TX
	})
	b.logger.Info("tiles built",
		zap.Int("built", len(results)),
		zap.Int("failed", len(multierr.Errors(errs))),
		zap.Duration("elapsed", time.Since(start)))
	return results, errs
}

func (b *Builder) buildTile(bmin, bmax [3]float32, tx, tz int) (*TileResult, error) {
	cfg := b.settings.ToTileConfig(bmin, bmax, tx, tz)
	res := &TileResult{TX: tx, TZ: tz, Config: cfg}

	// Only chunks touching the padded tile are rasterized.
	cm := b.geom.ChunkyMesh()
	ids := cm.ChunksOverlappingRect(
		[2]float32{cfg.Bmin[0], cfg.Bmin[2]},
		[2]float32{cfg.Bmax[0], cfg.Bmax[2]})
	if len(ids) == 0 {
		return res, ErrNoGeometry
	}
	var tris []int
	for _, id := range ids {
		tris = append(tris, cm.NodeTris(id)...)
	}

	// Each tile owns its context so scratch buffers are never shared.
	rctx := recast.NewRcContext(b.logger.With(zap.Int("tx", tx), zap.Int("tz", tz)))
	res.Err = b.buildField(rctx, res, tris)
	return res, res.Err
}

// buildField runs the pipeline over tris using res.Config and fills res.
func (b *Builder) buildField(rctx *recast.RcContext, res *TileResult, tris []int) error {
	start := time.Now()
	rctx.ResetTimers()
	rctx.StartTimer(recast.RC_TIMER_TOTAL)
	defer func() {
		rctx.StopTimer(recast.RC_TIMER_TOTAL)
		res.BuildTime = time.Since(start)
		rctx.LogBuildTimes()
	}()

	cfg := &res.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	mesh := b.geom.Mesh()
	res.TriCount = len(tris) / 3
	rctx.Log(recast.RC_LOG_PROGRESS, "building field %d x %d cells, %d tris", cfg.Width, cfg.Height, res.TriCount)

	// Allocate voxel heightfield where we rasterize our input data to.
	solid, err := recast.RcCreateHeightfield(rctx, cfg.Width, cfg.Height, cfg.Bmin, cfg.Bmax, cfg.Cs, cfg.Ch)
	if err != nil {
		return fmt.Errorf("create heightfield: %w", err)
	}
	solid.BorderSize = cfg.BorderSize

	// Find triangles which are walkable based on their slope and rasterize them.
	areas := make([]uint8, res.TriCount)
	recast.RcMarkWalkableTriangles(rctx, cfg.WalkableSlopeAngle, mesh.Verts, tris, areas)
	if err := recast.RcRasterizeTriangles(rctx, mesh.Verts, tris, areas, solid, cfg.WalkableClimb); err != nil {
		return fmt.Errorf("rasterize: %w", err)
	}

	// Once all geometry is rasterized, we do initial pass of filtering to
	// remove unwanted overhangs caused by the conservative rasterization
	// as well as filter spans where the character cannot possibly stand.
	if b.settings.FilterLowHangingObstacles {
		recast.RcFilterLowHangingWalkableObstacles(rctx, cfg.WalkableClimb, solid)
	}
	if b.settings.FilterLedgeSpans {
		recast.RcFilterLedgeSpans(rctx, cfg.WalkableHeight, cfg.WalkableClimb, solid)
	}
	if b.settings.FilterWalkableLowHeightSpans {
		recast.RcFilterWalkableLowHeightSpans(rctx, cfg.WalkableHeight, solid)
	}

	// Compact the heightfield so that it is faster to handle from now on.
	chf, err := recast.RcBuildCompactHeightfield(rctx, cfg.WalkableHeight, cfg.WalkableClimb, solid)
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	res.Compact = chf

	// Erode the walkable area by agent radius.
	recast.RcErodeWalkableArea(rctx, cfg.WalkableRadius, chf)

	// (Optional) Mark areas.
	b.geom.MarkConvexVolumes(rctx, chf)
	for i := range b.settings.Volumes {
		vol := &b.settings.Volumes[i]
		mod := recast.NewAreaModification(vol.Area)
		switch vol.Shape {
		case config.ShapeBox:
			recast.RcMarkBoxArea(rctx, vol.Min[:], vol.Max[:], mod, chf)
		case config.ShapeCylinder:
			recast.RcMarkCylinderArea(rctx, vol.Center[:], vol.Radius, vol.Height, mod, chf)
		}
	}

	// Partition the heightfield so that we can use simple algorithm later to triangulate the walkable areas.
	partition := b.settings.PartitionType()
	if err := recast.RcBuildRegionsWithPartition(rctx, chf, partition,
		cfg.BorderSize, cfg.MinRegionArea, cfg.MergeRegionArea); err != nil {
		return fmt.Errorf("%s regions: %w", partition, err)
	}

	// Create contours.
	cset, err := recast.RcBuildContours(rctx, chf, cfg.MaxSimplificationError, cfg.MaxEdgeLen, b.settings.ContourFlags())
	if err != nil {
		return fmt.Errorf("contours: %w", err)
	}
	res.Contours = cset

	if b.settings.BuildLayers {
		lset, err := recast.RcBuildHeightfieldLayers(rctx, chf, cfg.BorderSize, cfg.WalkableHeight)
		if err != nil {
			return fmt.Errorf("layers: %w", err)
		}
		res.Layers = lset
	}

	rctx.Log(recast.RC_LOG_PROGRESS, "%d regions, %d contours", chf.MaxRegions, len(cset.Conts))
	return nil
}
