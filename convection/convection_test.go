package convection

import (
	"math"
	"testing"

	"omega3d.dev/omega3d/bem"
	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

func singleParticleSystem() (System, *elements.Points) {
	vort := elements.NewPoints(elements.Active, elements.Lagrangian, nil)
	vort.AddNew(elements.Packet7{0, 0, 0, 0, 0, 1, 0.1})
	sys := System{
		Vort:       []*elements.Points{vort},
		Freestream: vector.Vec3{1, 0, 0},
		BEM:        bem.Config{Core: core.RosenheadMoore{}, MaxDepth: 2},
	}
	return sys, vort
}

// spec 8.3 scenario 1: single-particle self-convection.
func TestAdvect1SingleParticleSelfConvection(t *testing.T) {
	sys, vort := singleParticleSystem()
	tm := 0.0
	dt := 0.01
	for i := 0; i < 100; i++ {
		if err := Advect1(tm, dt, sys); err != nil {
			t.Fatalf("Advect1 step %d: %v", i, err)
		}
		tm += dt
	}

	want := vector.Vec3{1.0, 0, 0}
	if d := vector.Length(vector.Sub(vort.X[0], want)); d > 1e-6 {
		t.Errorf("final position = %v, want %v (within 1e-6), diff %g", vort.X[0], want, d)
	}
	if !vector.Equals(vort.S[0], vector.Vec3{0, 0, 1}) {
		t.Errorf("strength changed: %v, want unchanged {0,0,1}", vort.S[0])
	}
	if math.Abs(float64(vort.E[0]-1.0)) > 1e-6 {
		t.Errorf("elongation changed: %f, want 1.0", vort.E[0])
	}
}

func TestAdvect2SingleParticleSelfConvection(t *testing.T) {
	sys, vort := singleParticleSystem()
	tm := 0.0
	dt := 0.01
	for i := 0; i < 100; i++ {
		if err := Advect2(tm, dt, sys); err != nil {
			t.Fatalf("Advect2 step %d: %v", i, err)
		}
		tm += dt
	}

	want := vector.Vec3{1.0, 0, 0}
	if d := vector.Length(vector.Sub(vort.X[0], want)); d > 1e-6 {
		t.Errorf("final position = %v, want %v (within 1e-6), diff %g", vort.X[0], want, d)
	}
}

func TestZeroFreestreamZeroVorticityIsNoop(t *testing.T) {
	inert := elements.NewPoints(elements.Inert, elements.Lagrangian, nil)
	inert.AddNew(elements.Packet7{1, 2, 3, 0, 0, 0, 0.1})
	sys := System{
		FldPt: []*elements.Points{inert},
		BEM:   bem.Config{Core: core.RosenheadMoore{}, MaxDepth: 2},
	}
	before := inert.X[0]
	if err := Advect1(0, 0.01, sys); err != nil {
		t.Fatalf("Advect1: %v", err)
	}
	if !vector.Equals(inert.X[0], before) {
		t.Errorf("zero-freestream zero-vorticity moved a point: %v -> %v", before, inert.X[0])
	}
}

func TestFixedPointsNeverMove(t *testing.T) {
	fixed := elements.NewPoints(elements.Inert, elements.Fixed, nil)
	fixed.AddNew(elements.Packet7{5, 5, 5, 0, 0, 0, 0.1})
	sys := System{
		FldPt:      []*elements.Points{fixed},
		Freestream: vector.Vec3{1, 1, 1},
		BEM:        bem.Config{Core: core.RosenheadMoore{}, MaxDepth: 2},
	}
	if err := Advect1(0, 0.01, sys); err != nil {
		t.Fatalf("Advect1: %v", err)
	}
	if !vector.Equals(fixed.X[0], vector.Vec3{5, 5, 5}) {
		t.Errorf("fixed point moved: %v", fixed.X[0])
	}
}
