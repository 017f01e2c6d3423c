package common

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// / Returns the square of the value.
// / @param[in]		a	The value.
// / @return The square of the value.
func Sqr[T Number](a T) T {
	return a * a
}

// / Returns the absolute value.
// / @param[in]		a	The value.
// / @return The absolute value of the specified value.
func Abs[T Number](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// Clamp returns value limited to the closed range [minInclusive, maxInclusive].
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

// / Selects the minimum value of each element from the specified vectors.
// / @param[in,out]	mn	A vector.  (Will be updated with the result.) [(x, y, z)]
// / @param[in]		v	A vector. [(x, y, z)]
func Vmin[T float64 | float32](mn, v []T) {
	mn[0] = min(mn[0], v[0])
	mn[1] = min(mn[1], v[1])
	mn[2] = min(mn[2], v[2])
}

// / Selects the maximum value of each element from the specified vectors.
// / @param[in,out]	mx	A vector.  (Will be updated with the result.) [(x, y, z)]
// / @param[in]		v	A vector. [(x, y, z)]
func Vmax[T float64 | float32](mx, v []T) {
	mx[0] = max(mx[0], v[0])
	mx[1] = max(mx[1], v[1])
	mx[2] = max(mx[2], v[2])
}

func Vcopy[T float64 | float32](dest, v []T) {
	dest[0] = v[0]
	dest[1] = v[1]
	dest[2] = v[2]
}

// ToVec3 views the first three components of v as an mgl32 vector.
func ToVec3(v []float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[2]}
}

func Vcross(res, v1, v2 []float32) {
	c := ToVec3(v1).Cross(ToVec3(v2))
	res[0], res[1], res[2] = c[0], c[1], c[2]
}

func Vdot(v1, v2 []float32) float32 {
	return ToVec3(v1).Dot(ToVec3(v2))
}

// / Normalizes the vector.
// / @param[in,out]	v	The vector to normalize. [(x, y, z)]
func Vnormalize(v []float32) {
	n := ToVec3(v)
	l := n.Len()
	if l == 0 {
		return
	}
	n = n.Mul(1 / l)
	v[0], v[1], v[2] = n[0], n[1], n[2]
}

// / Returns the distance between two points.
// / @param[in]		v1	A point. [(x, y, z)]
// / @param[in]		v2	A point. [(x, y, z)]
// / @return The distance between the two points.
func Vdist(v1, v2 []float32) float32 {
	return ToVec3(v2).Sub(ToVec3(v1)).Len()
}

// TriNormal returns the unit normal of the triangle (v0, v1, v2).
// A degenerate triangle yields the zero vector.
func TriNormal(v0, v1, v2 []float32) mgl32.Vec3 {
	a := ToVec3(v0)
	e0 := ToVec3(v1).Sub(a)
	e1 := ToVec3(v2).Sub(a)
	n := e0.Cross(e1)
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return n
}

// OverlapBounds reports whether two axis-aligned boxes overlap, touching counts.
func OverlapBounds(amin, amax, bmin, bmax []float32) bool {
	if amin[0] > bmax[0] || amax[0] < bmin[0] {
		return false
	}
	if amin[1] > bmax[1] || amax[1] < bmin[1] {
		return false
	}
	if amin[2] > bmax[2] || amax[2] < bmin[2] {
		return false
	}
	return true
}

// / Gets the direction for the specified offset. One of x and y should be 0.
// /  @param[in]		offsetX		The x offset. [Limits: -1 <= value <= 1]
// /  @param[in]		offsetZ		The z offset. [Limits: -1 <= value <= 1]
// / @return The direction that represents the offset.
func GetDirForOffset(offsetX, offsetZ int) int {
	dirs := [5]int{3, 0, -1, 2, 1}
	return dirs[((offsetZ+1)<<1)+offsetX]
}

// / Gets the standard width (x-axis) offset for the specified direction.
// /  @param[in]		direction		The direction. [Limits: 0 <= value < 4]
// /  @return The width offset to apply to the current cell position to move in the direction.
func GetDirOffsetX(direction int) int {
	offset := [4]int{-1, 0, 1, 0}
	return offset[direction&0x03]
}

// / Gets the standard height (z-axis) offset for the specified direction.
// /  @param[in]		direction		The direction. [Limits: 0 <= value < 4]
// /  @return The height offset to apply to the current cell position to move in the direction.
func GetDirOffsetY(direction int) int {
	offset := [4]int{0, 1, 0, -1}
	return offset[direction&0x03]
}

func Sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
