package recast

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// / Recast log categories.
type RcLogCategory int

const (
	RC_LOG_PROGRESS RcLogCategory = iota + 1 ///< A progress log entry.
	RC_LOG_WARNING                           ///< A warning log entry.
	RC_LOG_ERROR                             ///< An error log entry.
)

// / Recast performance timer categories.
type RcTimerLabel int

const (
	/// The user defined total time of the build.
	RC_TIMER_TOTAL RcTimerLabel = iota
	/// A user defined build time.
	RC_TIMER_TEMP
	/// The time to rasterize the triangles.
	RC_TIMER_RASTERIZE_TRIANGLES
	/// The time to build the compact heightfield.
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD
	/// The total time to build the contours.
	RC_TIMER_BUILD_CONTOURS
	/// The time to trace the boundaries of the contours.
	RC_TIMER_BUILD_CONTOURS_TRACE
	/// The time to simplify the contours.
	RC_TIMER_BUILD_CONTOURS_SIMPLIFY
	/// The time to filter ledge spans.
	RC_TIMER_FILTER_BORDER
	/// The time to filter low height spans.
	RC_TIMER_FILTER_WALKABLE
	/// The time to apply the median filter.
	RC_TIMER_MEDIAN_AREA
	/// The time to filter low obstacles.
	RC_TIMER_FILTER_LOW_OBSTACLES
	/// The time to erode the walkable area.
	RC_TIMER_ERODE_AREA
	/// The time to mark a box area.
	RC_TIMER_MARK_BOX_AREA
	/// The time to mark a cylinder area.
	RC_TIMER_MARK_CYLINDER_AREA
	/// The time to mark a convex polygon area.
	RC_TIMER_MARK_CONVEXPOLY_AREA
	/// The total time to build the distance field.
	RC_TIMER_BUILD_DISTANCEFIELD
	/// The time to build the distances of the distance field.
	RC_TIMER_BUILD_DISTANCEFIELD_DIST
	/// The time to blur the distance field.
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR
	/// The total time to build the regions.
	RC_TIMER_BUILD_REGIONS
	/// The total time to apply the watershed algorithm.
	RC_TIMER_BUILD_REGIONS_WATERSHED
	/// The time to expand regions while applying the watershed algorithm.
	RC_TIMER_BUILD_REGIONS_EXPAND
	/// The time to flood fill regions while applying the watershed algorithm.
	RC_TIMER_BUILD_REGIONS_FLOOD
	/// The time to filter out small regions.
	RC_TIMER_BUILD_REGIONS_FILTER
	/// The time to build heightfield layers.
	RC_TIMER_BUILD_LAYERS
	/// The maximum number of timers.  (Used for iterating timers.)
	RC_MAX_TIMERS
)

var timerNames = [RC_MAX_TIMERS]string{
	RC_TIMER_TOTAL:                    "Total",
	RC_TIMER_TEMP:                     "Temp",
	RC_TIMER_RASTERIZE_TRIANGLES:      "Rasterize",
	RC_TIMER_BUILD_COMPACTHEIGHTFIELD: "Build Compact",
	RC_TIMER_BUILD_CONTOURS:           "Build Contours",
	RC_TIMER_BUILD_CONTOURS_TRACE:     "Trace",
	RC_TIMER_BUILD_CONTOURS_SIMPLIFY:  "Simplify",
	RC_TIMER_FILTER_BORDER:            "Filter Border",
	RC_TIMER_FILTER_WALKABLE:          "Filter Walkable",
	RC_TIMER_MEDIAN_AREA:              "Median Area",
	RC_TIMER_FILTER_LOW_OBSTACLES:     "Filter Low Obstacles",
	RC_TIMER_ERODE_AREA:               "Erode Area",
	RC_TIMER_MARK_BOX_AREA:            "Mark Box Area",
	RC_TIMER_MARK_CYLINDER_AREA:       "Mark Cylinder Area",
	RC_TIMER_MARK_CONVEXPOLY_AREA:     "Mark Convex Area",
	RC_TIMER_BUILD_DISTANCEFIELD:      "Build Distance Field",
	RC_TIMER_BUILD_DISTANCEFIELD_DIST: "Distance",
	RC_TIMER_BUILD_DISTANCEFIELD_BLUR: "Blur",
	RC_TIMER_BUILD_REGIONS:            "Build Regions",
	RC_TIMER_BUILD_REGIONS_WATERSHED:  "Watershed",
	RC_TIMER_BUILD_REGIONS_EXPAND:     "Expand",
	RC_TIMER_BUILD_REGIONS_FLOOD:      "Find Basins",
	RC_TIMER_BUILD_REGIONS_FILTER:     "Filter",
	RC_TIMER_BUILD_LAYERS:             "Build Layers",
}

func (l RcTimerLabel) String() string {
	if l >= 0 && l < RC_MAX_TIMERS {
		return timerNames[l]
	}
	return fmt.Sprintf("timer(%d)", int(l))
}

// RcContext carries the logger, the stage timers and the scratch arena of a
// single build. A context must not be shared by concurrent builds.
type RcContext struct {
	logger       *zap.Logger
	logEnabled   bool
	timerEnabled bool
	startTime    [RC_MAX_TIMERS]time.Time
	accTime      [RC_MAX_TIMERS]time.Duration
	arena        rcArena
}

// NewRcContext wraps logger; a nil logger discards all messages.
func NewRcContext(logger *zap.Logger) *RcContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := &RcContext{logger: logger, logEnabled: true, timerEnabled: true}
	ctx.ResetTimers()
	return ctx
}

func (ctx *RcContext) Logger() *zap.Logger { return ctx.logger }

func (ctx *RcContext) EnableLog(state bool)   { ctx.logEnabled = state }
func (ctx *RcContext) EnableTimer(state bool) { ctx.timerEnabled = state }

// / Logs a message.
// /  @param[in]		category	The category of the message.
// /  @param[in]		format		The message.
func (ctx *RcContext) Log(category RcLogCategory, format string, args ...any) {
	if !ctx.logEnabled {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch category {
	case RC_LOG_WARNING:
		ctx.logger.Warn(msg)
	case RC_LOG_ERROR:
		ctx.logger.Error(msg)
	default:
		ctx.logger.Info(msg)
	}
}

// / Clears all timers. (Resets all to unused.)
func (ctx *RcContext) ResetTimers() {
	for i := range ctx.accTime {
		ctx.accTime[i] = -1
	}
}

func (ctx *RcContext) StartTimer(label RcTimerLabel) {
	if !ctx.timerEnabled {
		return
	}
	ctx.startTime[label] = time.Now()
}

func (ctx *RcContext) StopTimer(label RcTimerLabel) {
	if !ctx.timerEnabled {
		return
	}
	delta := time.Since(ctx.startTime[label])
	if ctx.accTime[label] < 0 {
		ctx.accTime[label] = delta
	} else {
		ctx.accTime[label] += delta
	}
}

// / Returns the total accumulated time of the specified performance timer.
// /  @return The accumulated time of the timer, or -1 if timers are disabled or the timer has never been started.
func (ctx *RcContext) GetAccumulatedTime(label RcTimerLabel) time.Duration {
	if !ctx.timerEnabled {
		return -1
	}
	return ctx.accTime[label]
}

// ScopedTimer starts label and returns the matching stop, for use with defer.
func (ctx *RcContext) ScopedTimer(label RcTimerLabel) func() {
	ctx.StartTimer(label)
	return func() { ctx.StopTimer(label) }
}

// LogBuildTimes writes every used timer as a share of RC_TIMER_TOTAL.
func (ctx *RcContext) LogBuildTimes() {
	total := ctx.GetAccumulatedTime(RC_TIMER_TOTAL)
	if total <= 0 {
		return
	}
	fields := make([]zap.Field, 0, RC_MAX_TIMERS)
	for l := RC_TIMER_RASTERIZE_TRIANGLES; l < RC_MAX_TIMERS; l++ {
		t := ctx.accTime[l]
		if t <= 0 {
			continue
		}
		fields = append(fields, zap.String(l.String(), fmt.Sprintf("%.2fms (%.1f%%)", float64(t.Microseconds())/1000.0, 100*float64(t)/float64(total))))
	}
	fields = append(fields, zap.Duration("total", total))
	ctx.logger.Info("build times", fields...)
}
