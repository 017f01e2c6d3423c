package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gorustyt/gonavbake/builder"
	"github.com/gorustyt/gonavbake/common"
	"github.com/gorustyt/gonavbake/common/message"
	"github.com/gorustyt/gonavbake/common/rw"
	"github.com/gorustyt/gonavbake/config"
	"github.com/gorustyt/gonavbake/debug_utils"
	"github.com/gorustyt/gonavbake/geom"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Dump file extensions.
const (
	extContours = ".cset"
	extCompact  = ".chf"
	extObj      = ".obj"
	extProto    = ".pb"
)

type buildOpts struct {
	config  string
	obj     string
	out     string
	tiled   bool
	logFile string
	verbose bool
	quiet   bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOpts
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build regions and contours for an OBJ mesh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML settings file, defaults when empty")
	cmd.Flags().StringVar(&opts.obj, "obj", "", "input OBJ mesh")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory for dumps")
	cmd.Flags().BoolVar(&opts.tiled, "tiled", false, "build a grid of tiles instead of one field")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "also log JSON to this rotated file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "no console logging")
	_ = cmd.MarkFlagRequired("obj")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func loadSettings(opts *buildOpts) (config.Settings, error) {
	s := config.Default()
	if opts.config != "" {
		var err error
		if s, err = config.Load(opts.config); err != nil {
			return s, err
		}
	}
	if opts.logFile != "" {
		s.Log.File = opts.logFile
	}
	if opts.verbose {
		s.Log.Level = "debug"
	}
	if opts.quiet {
		s.Log.Quiet = true
	}
	return s, nil
}

func runBuild(ctx context.Context, stdout io.Writer, opts *buildOpts) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}
	logger, err := common.NewLogger(settings.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	g, err := geom.LoadInputGeom(opts.obj)
	if err != nil {
		return err
	}
	logger.Info("mesh loaded",
		zap.String("file", g.Mesh().FileName),
		zap.Int("verts", g.Mesh().VertCount()),
		zap.Int("tris", g.Mesh().TriCount()))

	b, err := builder.New(settings, g, logger)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}

	if !opts.tiled {
		res, err := b.BuildSolo(ctx)
		if err != nil {
			return err
		}
		if err := writeResult(opts.out, "solo", res); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "solo: %d regions, %d contours in %v\n",
			res.Compact.MaxRegions, len(res.Contours.Conts), res.BuildTime)
		return nil
	}

	results, buildErr := b.BuildTiles(ctx)
	if errors.Is(buildErr, context.Canceled) {
		return buildErr
	}
	var errs error
	written := 0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		name := fmt.Sprintf("tile_%02d_%02d", res.TX, res.TZ)
		if err := writeResult(opts.out, name, res); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written++
	}
	done, total := b.Progress()
	fmt.Fprintf(stdout, "tiles: %d/%d visited, %d written, %d failed\n",
		done, total, written, len(multierr.Errors(buildErr)))
	return multierr.Combine(buildErr, errs)
}

// writeResult writes the contour and heightfield dumps of one field, the
// contour outlines as OBJ and the contours as a protobuf message.
func writeResult(dir, name string, res *builder.TileResult) error {
	base := filepath.Join(dir, name)

	w := rw.NewWriter()
	debug_utils.DuDumpContourSet(res.Contours, w)
	if err := os.WriteFile(base+extContours, w.GetWriteBytes(), 0o644); err != nil {
		return err
	}

	w = rw.NewWriter()
	debug_utils.DuDumpCompactHeightfield(res.Compact, w)
	if err := os.WriteFile(base+extCompact, w.GetWriteBytes(), 0o644); err != nil {
		return err
	}

	w = rw.NewWriter()
	debug_utils.DuDumpContourSetToObj(res.Contours, w)
	if err := os.WriteFile(base+extObj, w.GetWriteBytes(), 0o644); err != nil {
		return err
	}

	return os.WriteFile(base+extProto, message.EncodeContourSet(res.Contours), 0o644)
}
