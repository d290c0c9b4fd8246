package elements

import (
	"sort"
	"testing"

	"omega3d.dev/omega3d/vector"
)

func TestGridNeighborsFindsWithinRadius(t *testing.T) {
	xs := []vector.Vec3{
		{0, 0, 0},
		{0.05, 0, 0},
		{5, 5, 5},
		{0, 0.05, 0},
	}
	g := NewGrid(0.5)
	g.Build(xs)

	got := g.Neighbors(xs, 0, 0.1)
	sort.Ints(got)
	want := []int{1, 3}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Neighbors(0)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGridNeighborsExcludesSelf(t *testing.T) {
	xs := []vector.Vec3{{0, 0, 0}}
	g := NewGrid(1.0)
	g.Build(xs)
	if got := g.Neighbors(xs, 0, 10); len(got) != 0 {
		t.Errorf("Neighbors should never include the query point itself, got %v", got)
	}
}

func TestGridHandlesNegativeCoordinates(t *testing.T) {
	xs := []vector.Vec3{{-1.2, -3.4, 0}, {-1.25, -3.4, 0}}
	g := NewGrid(0.1)
	g.Build(xs)
	if got := g.Neighbors(xs, 0, 0.2); len(got) != 1 || got[0] != 1 {
		t.Errorf("Neighbors across negative-coordinate cell boundary = %v, want [1]", got)
	}
}

func TestGridCrossesCellBoundary(t *testing.T) {
	// Points on either side of a cell boundary must still find each other.
	xs := []vector.Vec3{{0.99, 0, 0}, {1.01, 0, 0}}
	g := NewGrid(1.0)
	g.Build(xs)
	if got := g.Neighbors(xs, 0, 0.1); len(got) != 1 || got[0] != 1 {
		t.Errorf("Neighbors across cell boundary = %v, want [1]", got)
	}
}
