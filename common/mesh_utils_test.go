package common

import "testing"

func TestLeftAndArea(t *testing.T) {
	a := []int{0, 0, 0, 0}
	b := []int{4, 0, 0, 0}
	assertTrue(t, Left(a, b, []int{2, 0, -1, 0}), "negative z side is left of +x")
	assertTrue(t, !Left(a, b, []int{2, 0, 1, 0}), "positive z side is not left of +x")
	assertTrue(t, LeftOn(a, b, []int{2, 0, 0, 0}), "collinear point is left-on")
	assertTrue(t, Collinear(a, b, []int{8, 0, 0, 0}), "point on the line is collinear")
}

func TestIntersect(t *testing.T) {
	a, b := []int{0, 0, 0, 0}, []int{4, 0, 4, 0}
	c, d := []int{0, 0, 4, 0}, []int{4, 0, 0, 0}
	assertTrue(t, IntersectProp(a, b, c, d), "diagonals cross properly")
	assertTrue(t, Intersect(a, b, []int{2, 0, 2, 0}, []int{5, 0, 2, 0}), "touching at an end point intersects")
	assertTrue(t, !IntersectProp(a, b, []int{2, 0, 2, 0}, []int{5, 0, 2, 0}), "touching is not a proper crossing")
	assertTrue(t, !Intersect(a, b, []int{5, 0, 0, 0}, []int{6, 0, 0, 0}), "disjoint segments")
}

func TestNextPrev(t *testing.T) {
	assertTrue(t, Next(3, 4) == 0 && Next(1, 4) == 2, "next wraps")
	assertTrue(t, Prev(0, 4) == 3 && Prev(2, 4) == 1, "prev wraps")
}

func TestDistancePtSegSqr2D(t *testing.T) {
	assertTrue(t, DistancePtSegSqr2D(2, 3, 0, 0, 4, 0) == 9, "perpendicular distance")
	assertTrue(t, DistancePtSegSqr2D(7, 4, 0, 0, 4, 0) == 25, "clamped to the end point")
	assertTrue(t, DistancePtSegSqr2D(1, 1, 0, 0, 0, 0) == 2, "degenerate segment")
}

func TestPointInPoly(t *testing.T) {
	square := []float32{
		0, 0, 0,
		4, 0, 0,
		4, 0, 4,
		0, 0, 4,
	}
	assertTrue(t, PointInPoly(square, []float32{2, 9, 2}), "height is ignored")
	assertTrue(t, !PointInPoly(square, []float32{5, 0, 2}), "outside on x")
	assertTrue(t, !PointInPoly(square, []float32{2, 0, -1}), "outside on z")
}
