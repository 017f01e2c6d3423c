package common

import (
	"fmt"
	"strconv"
	"testing"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Error(msg)
	}
}

func near(a, b float32) bool {
	return Abs(a-b) < 1e-5
}

func TestClamp(t *testing.T) {
	assertTrue(t, Clamp(2, 0, 1) == 1, "Higher than range error")
	assertTrue(t, Clamp(1, 0, 2) == 1, "Within range error")
	assertTrue(t, Clamp(0, 1, 2) == 1, "Lower than range error")
}

func TestSqr(t *testing.T) {
	assertTrue(t, Sqr(2) == 4, "Sqr squares a number")
	assertTrue(t, Sqr(-4) == 16, "Sqr squares a number")
	assertTrue(t, Sqr(0) == 0, "Sqr squares a number")
}

func TestVcross(t *testing.T) {
	v1 := []float32{3, -3, 1}
	v2 := []float32{4, 9, 2}
	result := make([]float32, 3)
	Vcross(result, v1, v2)
	assertTrue(t, result[0] == -15 && result[1] == -2 && result[2] == 39, "Computes cross product")

	result = make([]float32, 3)
	Vcross(result, v1, v1)
	assertTrue(t, result[0] == 0 && result[1] == 0 && result[2] == 0, "Cross product with itself is zero")
}

func TestVdot(t *testing.T) {
	v1 := []float32{1, 0, 0}
	assertTrue(t, Vdot(v1, v1) == 1, "Dot normalized vector with itself")

	v1 = []float32{1, 2, 3}
	v2 := []float32{0, 0, 0}
	assertTrue(t, Vdot(v1, v2) == 0, "Dot zero vector with anything is zero")
}

func TestVdist(t *testing.T) {
	v1 := []float32{3, 1, 3}
	v2 := []float32{1, 3, 1}
	result := Vdist(v1, v2)
	value, _ := strconv.ParseFloat(fmt.Sprintf("%.4f", result), 64)
	assertTrue(t, value == 3.4641, "distance between two vectors")

	v2 = []float32{0, 0, 0}
	magnitude := Sqrt32(Sqr(v1[0]) + Sqr(v1[1]) + Sqr(v1[2]))
	assertTrue(t, near(Vdist(v1, v2), magnitude), "Distance from zero is magnitude")
}

func TestVnormalize(t *testing.T) {
	v := []float32{3, 3, 3}
	Vnormalize(v)
	for i := range v {
		assertTrue(t, near(v[i], Sqrt32(1.0/3.0)), "normalizing reduces magnitude to 1")
	}
	assertTrue(t, near(Sqrt32(Sqr(v[0])+Sqr(v[1])+Sqr(v[2])), 1), "normalizing reduces magnitude to 1")

	zero := []float32{0, 0, 0}
	Vnormalize(zero)
	assertTrue(t, zero[0] == 0 && zero[1] == 0 && zero[2] == 0, "zero vector stays zero")
}

func TestVminVmax(t *testing.T) {
	mn := []float32{1, 5, 3}
	mx := []float32{1, 5, 3}
	v := []float32{0, 6, 3}
	Vmin(mn, v)
	Vmax(mx, v)
	assertTrue(t, mn[0] == 0 && mn[1] == 5 && mn[2] == 3, "component-wise minimum")
	assertTrue(t, mx[0] == 1 && mx[1] == 6 && mx[2] == 3, "component-wise maximum")
}

func TestTriNormal(t *testing.T) {
	n := TriNormal([]float32{0, 0, 0}, []float32{0, 0, 1}, []float32{1, 0, 0})
	assertTrue(t, near(n[0], 0) && near(n[1], 1) && near(n[2], 0), "floor triangle faces up")

	d := TriNormal([]float32{0, 0, 0}, []float32{1, 0, 0}, []float32{2, 0, 0})
	assertTrue(t, d.Len() == 0, "degenerate triangle has no normal")
}

func TestOverlapBounds(t *testing.T) {
	amin, amax := []float32{0, 0, 0}, []float32{1, 1, 1}
	assertTrue(t, OverlapBounds(amin, amax, []float32{1, 1, 1}, []float32{2, 2, 2}), "touching boxes overlap")
	assertTrue(t, !OverlapBounds(amin, amax, []float32{1.5, 0, 0}, []float32{2, 1, 1}), "separated boxes do not overlap")
}

func TestDirOffsets(t *testing.T) {
	for dir := 0; dir < 4; dir++ {
		dx, dz := GetDirOffsetX(dir), GetDirOffsetY(dir)
		assertTrue(t, Abs(dx)+Abs(dz) == 1, "one cardinal step")
		assertTrue(t, GetDirForOffset(dx, dz) == dir, "offset maps back to its direction")
	}
}
