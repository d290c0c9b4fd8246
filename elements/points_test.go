package elements

import (
	"testing"

	"omega3d.dev/omega3d/vector"
)

func TestAddNewRejectsBadPacket(t *testing.T) {
	p := NewPoints(Active, Lagrangian, nil)
	if err := p.AddNew(Packet7{0, 0, 0, 1, 0, 0}); err == nil {
		t.Fatal("expected error for packet not a multiple of 7")
	}
	if err := p.AddNew(Packet7{0, 0, 0, 1, 0, 0, 0}); err == nil {
		t.Fatal("expected error for non-positive radius")
	}
}

func TestAddNewActiveStoresStrength(t *testing.T) {
	p := NewPoints(Active, Lagrangian, nil)
	if err := p.AddNew(Packet7{1, 2, 3, 0, 0, 1, 0.1}); err != nil {
		t.Fatalf("AddNew: %v", err)
	}
	if p.N() != 1 {
		t.Fatalf("N() = %d, want 1", p.N())
	}
	if !vector.Equals(p.X[0], vector.Vec3{1, 2, 3}) {
		t.Errorf("X[0] = %v", p.X[0])
	}
	if !vector.Equals(p.S[0], vector.Vec3{0, 0, 1}) {
		t.Errorf("S[0] = %v", p.S[0])
	}
	if p.E[0] != 1.0 {
		t.Errorf("E[0] = %f, want 1.0", p.E[0])
	}
}

func TestAddNewInertOmitsStrength(t *testing.T) {
	p := NewPoints(Inert, Lagrangian, nil)
	if err := p.AddNew(Packet7{1, 2, 3, 0, 0, 1, 0.1}); err != nil {
		t.Fatalf("AddNew: %v", err)
	}
	if len(p.S) != 0 {
		t.Errorf("inert points should carry no strength, got %d entries", len(p.S))
	}
	if p.TotalCirculation(0) != (vector.Vec3{}) {
		t.Errorf("inert points should report zero circulation")
	}
}

func TestResizeGrowsAndTruncates(t *testing.T) {
	p := NewPoints(Active, Lagrangian, nil)
	p.AddNew(Packet7{0, 0, 0, 0, 0, 1, 0.1, 1, 1, 1, 0, 0, 1, 0.1})

	p.Resize(1)
	if p.N() != 1 {
		t.Fatalf("after truncate N() = %d, want 1", p.N())
	}

	p.Resize(3)
	if p.N() != 3 {
		t.Fatalf("after grow N() = %d, want 3", p.N())
	}
	if p.E[2] != 1.0 {
		t.Errorf("grown particle should default elongation to 1.0, got %f", p.E[2])
	}
}

func TestRemoveIndicesCompacts(t *testing.T) {
	p := NewPoints(Active, Lagrangian, nil)
	p.AddNew(Packet7{
		0, 0, 0, 0, 0, 1, 0.1,
		1, 0, 0, 0, 0, 1, 0.1,
		2, 0, 0, 0, 0, 1, 0.1,
	})
	p.RemoveIndices([]int{1})
	if p.N() != 2 {
		t.Fatalf("N() = %d, want 2", p.N())
	}
	if p.X[0][0] != 0 || p.X[1][0] != 2 {
		t.Errorf("remaining positions = %v, %v", p.X[0], p.X[1])
	}
}

func TestTotalImpulseSumsCrossProducts(t *testing.T) {
	p := NewPoints(Active, Lagrangian, nil)
	p.AddNew(Packet7{1, 0, 0, 0, 0, 1, 0.1})
	want := vector.Cross(vector.Vec3{1, 0, 0}, vector.Vec3{0, 0, 1})
	got := p.TotalImpulse()
	if !vector.Equals(got, want) {
		t.Errorf("TotalImpulse() = %v, want %v", got, want)
	}
}

func TestMaxElongationTracksLargest(t *testing.T) {
	p := NewPoints(Active, Lagrangian, nil)
	p.AddNew(Packet7{0, 0, 0, 0, 0, 1, 0.1})
	p.E[0] = 2.5
	p.Append(vector.Vec3{1, 0, 0}, vector.Vec3{0, 0, 1}, 0.1)
	if got := p.MaxElongation(); got != 2.5 {
		t.Errorf("MaxElongation() = %f, want 2.5", got)
	}
}
