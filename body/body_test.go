package body

import (
	"math"
	"testing"

	"omega3d.dev/omega3d/vector"
)

func TestStationaryBodyIsIdentity(t *testing.T) {
	b := New("ground", Motion{})
	pose := b.Pose(5.0)
	p := vector.Vec3{1, 2, 3}
	if got := pose.Transform(p); !vector.Equals(got, p) {
		t.Errorf("stationary body pose moved point: %v -> %v", p, got)
	}
}

func TestTranslatingBody(t *testing.T) {
	b := New("mover", Motion{LinearVelocity: vector.Vec3{1, 0, 0}})
	p := b.Pose(2.0).Transform(vector.Vec3{0, 0, 0})
	want := vector.Vec3{2, 0, 0}
	if !vector.Equals(p, want) {
		t.Errorf("translating body at t=2: got %v want %v", p, want)
	}

	lin, ang := b.Velocity(2.0)
	if !vector.Equals(lin, vector.Vec3{1, 0, 0}) || vector.LengthSq(ang) != 0 {
		t.Errorf("translating body velocity = (%v, %v)", lin, ang)
	}
}

func TestRotatingBodyQuarterTurn(t *testing.T) {
	b := New("spinner", Motion{Axis: vector.Vec3{0, 0, 1}, AngularRate: math.Pi / 2})
	p := b.Pose(1.0).Transform(vector.Vec3{1, 0, 0})
	want := vector.Vec3{0, 1, 0}
	if vector.Length(vector.Sub(p, want)) > 1e-5 {
		t.Errorf("rotating body at t=1: got %v want %v", p, want)
	}
}

func TestChildComposesWithParent(t *testing.T) {
	parent := New("carrier", Motion{LinearVelocity: vector.Vec3{0, 1, 0}})
	child := parent.Child("rider", Motion{LinearVelocity: vector.Vec3{1, 0, 0}})

	p := child.Pose(1.0).Transform(vector.Vec3{0, 0, 0})
	want := vector.Vec3{1, 1, 0}
	if !vector.Equals(p, want) {
		t.Errorf("child pose at t=1: got %v want %v", p, want)
	}
}

func TestVelocityAtRotationPivot(t *testing.T) {
	b := New("wheel", Motion{Axis: vector.Vec3{0, 0, 1}, AngularRate: 1.0, Center: vector.Vec3{0, 0, 0}})
	v := b.VelocityAt(0, vector.Vec3{1, 0, 0})
	want := vector.Vec3{0, 1, 0}
	if vector.Length(vector.Sub(v, want)) > 1e-5 {
		t.Errorf("VelocityAt = %v, want %v", v, want)
	}
}
