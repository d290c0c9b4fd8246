package bem

import (
	"errors"
	"testing"

	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

func flatPlate() *elements.Surfaces {
	s := elements.NewSurfaces(nil)
	s.Node = []vector.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	s.AddPanel(0, 1, 2, vector.Vec2{}, vector.Vec2{})
	s.AddPanel(0, 2, 3, vector.Vec2{}, vector.Vec2{})
	return s
}

func TestSolveNoPanelsIsNoop(t *testing.T) {
	cfg := Config{Core: core.RosenheadMoore{}, MaxDepth: 2}
	sys := System{Freestream: vector.Vec3{1, 0, 0}}
	if err := cfg.Solve(0, sys); err != nil {
		t.Fatalf("Solve with no surfaces: %v", err)
	}
}

func TestSolveRejectsTooManyPanels(t *testing.T) {
	cfg := Config{Core: core.RosenheadMoore{}, MaxDepth: 2, MaxPanels: 1}
	sys := System{Surfaces: []*elements.Surfaces{flatPlate()}, Freestream: vector.Vec3{1, 0, 0}}
	err := cfg.Solve(0, sys)
	if !errors.Is(err, ErrTooManyPanels) {
		t.Fatalf("Solve() error = %v, want ErrTooManyPanels", err)
	}
}

func TestSolveSatisfiesBoundaryCondition(t *testing.T) {
	plate := flatPlate()
	cfg := Config{Core: core.RosenheadMoore{}, MaxDepth: 3}
	sys := System{Surfaces: []*elements.Surfaces{plate}, Freestream: vector.Vec3{1, 0, 0}}

	if err := cfg.Solve(0, sys); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if got := cfg.Residual(0, sys); got > 1e-3 {
		t.Errorf("Residual() = %f, want < 1e-3 (BEM consistency, spec 8.1)", got)
	}
}
