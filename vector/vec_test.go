package vector

import (
	"math"
	"testing"
)

func TestVecAdd(t *testing.T) {
	x := Vec3{1.0, 1.0, 1.0}
	y := Vec3{1, 1, 1}
	eq := Vec3{2, 2, 2}

	if got := *x.Add(y); !Equals(got, eq) {
		t.Errorf("Vec3 addition failed: got %v want %v", got, eq)
	}
}

func TestVecCrossOrthogonal(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	z := Cross(x, y)

	if !Equals(z, Vec3{0, 0, 1}) {
		t.Errorf("Cross(x,y) = %v, want {0,0,1}", z)
	}
}

func TestVecNormalizeUnitLength(t *testing.T) {
	v := Normalize(Vec3{3, 4, 0})
	if math.Abs(float64(Length(v)-1.0)) > 1e-6 {
		t.Errorf("Normalize length = %f, want 1.0", Length(v))
	}
}

func TestReflectPreservesSpeed(t *testing.T) {
	v := Vec3{1, -1, 0}
	n := Vec3{0, 1, 0}
	r := Reflect(v, n)

	if math.Abs(float64(Length(r)-Length(v))) > 1e-6 {
		t.Errorf("Reflect changed speed: %v -> %v", v, r)
	}
	if r[1] <= 0 {
		t.Errorf("Reflect(%v, %v) = %v, expected positive y component", v, n, r)
	}
}

func TestMat4Identity(t *testing.T) {
	id := Identity4()
	p := Vec3{1, 2, 3}
	got := id.Transform(p)

	if !Equals(got, p) {
		t.Errorf("Identity4 transform = %v, want %v", got, p)
	}
}

func TestMat4MulAssociatesWithTranslation(t *testing.T) {
	tr := Translation(Vec3{1, 2, 3})
	combined := tr.Mul(tr)
	p := combined.Transform(Vec3{0, 0, 0})

	want := Vec3{2, 4, 6}
	if !Equals(p, want) {
		t.Errorf("translation composition = %v, want %v", p, want)
	}
}

func TestAxisAngleRotatesQuarterTurn(t *testing.T) {
	rot := AxisAngle(Vec3{0, 0, 1}, math.Pi/2)
	got := rot.TransformDir(Vec3{1, 0, 0})
	want := Vec3{0, 1, 0}

	if Length(Sub(got, want)) > 1e-5 {
		t.Errorf("AxisAngle rotation = %v, want %v", got, want)
	}
}

func TestOuterProductDiagonal(t *testing.T) {
	d := Vec3{2, 0, 0}
	m := Outer(d, d)
	if m[0] != 4 || m[4] != 0 || m[8] != 0 {
		t.Errorf("Outer({2,0,0}) = %v, want diag(4,0,0)", m)
	}
}
