package recast

import "errors"

var (
	// ErrInvalidInput reports a configuration or argument outside its limits.
	ErrInvalidInput = errors.New("recast: invalid input")
	// ErrOutOfBounds reports a span or cell addressed outside the grid.
	ErrOutOfBounds = errors.New("recast: out of bounds")
	// ErrTooManyLayers reports a column holding more spans than a neighbour
	// reference can address.
	ErrTooManyLayers = errors.New("recast: too many layers")
	// ErrRegionIDOverflow reports a partition running out of region ids.
	ErrRegionIDOverflow = errors.New("recast: region id overflow")
	// ErrMissingOutline reports holes whose region produced no outline contour.
	ErrMissingOutline = errors.New("recast: region has holes but no outline")
)
