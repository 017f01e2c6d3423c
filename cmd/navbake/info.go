package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gorustyt/gonavbake/common/message"
	"github.com/gorustyt/gonavbake/common/rw"
	"github.com/gorustyt/gonavbake/debug_utils"
	"github.com/gorustyt/gonavbake/recast"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <dump>",
		Short: "Summarize a contour set or compact heightfield dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInfo(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Protobuf messages carry no magic, go by extension.
	if filepath.Ext(path) == extProto {
		cset, err := message.DecodeContourSet(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printContourSet(out, cset)
		return nil
	}
	switch debug_utils.DuSniffMagic(data) {
	case debug_utils.CSET_MAGIC:
		cset, err := debug_utils.DuReadContourSet(rw.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printContourSet(out, cset)
	case debug_utils.CHF_MAGIC:
		chf, err := debug_utils.DuReadCompactHeightfield(rw.NewReader(data))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printCompact(out, chf)
	default:
		return fmt.Errorf("%s: %w", path, debug_utils.ErrBadMagic)
	}
	return nil
}

func printContourSet(out io.Writer, cset *recast.RcContourSet) {
	verts := 0
	areas := map[uint8]int{}
	for i := range cset.Conts {
		verts += cset.Conts[i].NVerts()
		areas[cset.Conts[i].Area]++
	}
	fmt.Fprintf(out, "contour set\n")
	fmt.Fprintf(out, "  grid:     %d x %d, border %d\n", cset.Width, cset.Height, cset.BorderSize)
	fmt.Fprintf(out, "  cell:     %g x %g\n", cset.Cs, cset.Ch)
	fmt.Fprintf(out, "  bounds:   %v .. %v\n", cset.Bmin, cset.Bmax)
	fmt.Fprintf(out, "  contours: %d, %d vertices, %d areas\n", len(cset.Conts), verts, len(areas))
}

func printCompact(out io.Writer, chf *recast.RcCompactHeightfield) {
	walkable := 0
	for _, a := range chf.Areas {
		if a != recast.RC_NULL_AREA {
			walkable++
		}
	}
	fmt.Fprintf(out, "compact heightfield\n")
	fmt.Fprintf(out, "  grid:     %d x %d, border %d\n", chf.Width, chf.Height, chf.BorderSize)
	fmt.Fprintf(out, "  cell:     %g x %g\n", chf.Cs, chf.Ch)
	fmt.Fprintf(out, "  bounds:   %v .. %v\n", chf.Bmin, chf.Bmax)
	fmt.Fprintf(out, "  spans:    %d, %d walkable\n", chf.SpanCount, walkable)
	fmt.Fprintf(out, "  regions:  %d, max distance %d\n", chf.MaxRegions, chf.MaxDistance)
}
