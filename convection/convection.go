// Package convection implements the Runge-Kutta advance of Lagrangian
// elements (spec 4.D): a BEM re-solve at each stage, velocity and
// velocity-gradient evaluation at every target from every source, vortex
// stretch, and the position/strength/elongation update.
package convection

import (
	"gonum.org/v1/gonum/floats"

	"omega3d.dev/omega3d/bem"
	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// System bundles everything one RK advance needs: the active vortex
// Collections being advected and stretched (vort), the reactive Surfaces
// solved by BEM (bdry — a velocity source, never itself advected here),
// and the inert field-point Collections (fldpt) along for the ride as
// pure targets.
type System struct {
	Vort       []*elements.Points
	Bdry       []*elements.Surfaces
	FldPt      []*elements.Points
	Freestream vector.Vec3
	BEM        bem.Config
}

func (sys System) bemSystem() bem.System {
	return bem.System{Surfaces: sys.Bdry, Sources: sys.Vort, Freestream: sys.Freestream}
}

// velocityAt sums the induced velocity (and, if grad is non-nil, velocity
// gradient) at world point p and core radius tr, from every vort particle
// and every bdry panel, plus the freestream (spec 4.D step 2).
// Self-influence (a particle appearing in its own target/source sum) is
// permitted, not filtered out: the velocity self-term vanishes exactly
// (d=0 makes the s x d cross product zero), and the gradient self-term
// reduces to a pure rotation (skew-symmetric, zero strain) — both are
// physically correct, per spec 4.D's contract.
func velocityAt(sys System, p vector.Vec3, tr float32, t float64, grad *vector.Mat3) vector.Vec3 {
	u := sys.Freestream
	c := sys.BEM.Core

	for _, src := range sys.Vort {
		for k := 0; k < src.N(); k++ {
			sp := src.WorldPos(k, t)
			if grad != nil {
				uu, gg := core.VelocityGrad(c, sp, p, src.S[k], src.R[k], tr)
				u.Add(uu)
				grad.Add(gg)
			} else {
				u.Add(core.Velocity(c, sp, p, src.S[k], src.R[k], tr))
			}
		}
	}

	for _, s := range sys.Bdry {
		for i := 0; i < s.N(); i++ {
			panel := s.Panel(i, t)
			if grad != nil {
				uu, gg := core.VelocityGradPanel(c, panel, p, tr, sys.BEM.MaxDepth)
				u.Add(uu)
				grad.Add(gg)
			} else {
				u.Add(core.VelocityPanel(c, panel, p, tr, sys.BEM.MaxDepth))
			}
		}
	}

	return u
}

func evaluateVort(sys System, t float64) {
	for _, col := range sys.Vort {
		for k := 0; k < col.N(); k++ {
			var grad vector.Mat3
			u := velocityAt(sys, col.WorldPos(k, t), col.R[k], t, &grad)
			col.U[k] = u
			col.GradU[k] = grad
		}
	}
}

func evaluateFldPt(sys System, t float64) {
	for _, col := range sys.FldPt {
		for k := 0; k < col.N(); k++ {
			col.U[k] = velocityAt(sys, col.WorldPos(k, t), col.R[k], t, nil)
		}
	}
}

// elongationFactor is the Open-Question-resolved rule e' = e * ||grad*dt +
// I|| applied to the strength direction (SPEC_FULL.md's decision).
func elongationFactor(grad vector.Mat3, s vector.Vec3, dt float64) float32 {
	dir := vector.Normalize(s)
	if vector.LengthSq(dir) == 0 {
		return 1
	}
	defGrad := grad.Scale(float32(dt))
	defGrad.Add(vector.Identity3())
	v := defGrad.MulVec(dir)
	return float32(floats.Norm([]float64{float64(v[0]), float64(v[1]), float64(v[2])}, 2))
}

// Advect1 is the first-order (Euler) advance (spec 4.D): BEM solve,
// velocity+gradient evaluation, vortex stretch, Euler update, elongation
// update.
func Advect1(t, dt float64, sys System) error {
	if err := sys.BEM.Solve(t, sys.bemSystem()); err != nil {
		return err
	}

	evaluateVort(sys, t)
	evaluateFldPt(sys, t)

	for _, col := range sys.Vort {
		for k := 0; k < col.N(); k++ {
			ds := col.GradU[k].MulVec(col.S[k])
			col.E[k] *= elongationFactor(col.GradU[k], col.S[k], dt)
			col.S[k].Add(vector.Scale(ds, float32(dt)))
		}
	}

	advectPositions(sys.Vort, dt)
	advectPositions(sys.FldPt, dt)
	return nil
}

func advectPositions(cols []*elements.Points, dt float64) {
	for _, col := range cols {
		if col.Move != elements.Lagrangian {
			continue
		}
		for k := 0; k < col.N(); k++ {
			col.X[k].Add(vector.Scale(col.U[k], float32(dt)))
		}
	}
}

type snapshot struct {
	x []vector.Vec3
	s []vector.Vec3
	e []float32
}

func snapshotAll(cols []*elements.Points) []snapshot {
	out := make([]snapshot, len(cols))
	for i, col := range cols {
		out[i] = snapshot{
			x: append([]vector.Vec3(nil), col.X...),
			s: append([]vector.Vec3(nil), col.S...),
			e: append([]float32(nil), col.E...),
		}
	}
	return out
}

func restoreAll(cols []*elements.Points, snaps []snapshot) {
	for i, col := range cols {
		copy(col.X, snaps[i].x)
		if !col.IsInert() {
			copy(col.S, snaps[i].s)
		}
		copy(col.E, snaps[i].e)
	}
}

func collectU(cols []*elements.Points) [][]vector.Vec3 {
	out := make([][]vector.Vec3, len(cols))
	for i, col := range cols {
		out[i] = append([]vector.Vec3(nil), col.U...)
	}
	return out
}

func collectGrad(cols []*elements.Points) [][]vector.Mat3 {
	out := make([][]vector.Mat3, len(cols))
	for i, col := range cols {
		out[i] = append([]vector.Mat3(nil), col.GradU...)
	}
	return out
}

// Advect2 is the second-order (midpoint) advance (spec 4.D): velocities
// at t, predict to t+dt/2, re-solve BEM, evaluate at the midpoint state,
// then update the original state with the midpoint derivative. On any
// failure the original state is restored and no array is half-updated.
func Advect2(t, dt float64, sys System) error {
	vortSnap := snapshotAll(sys.Vort)
	fldSnap := snapshotAll(sys.FldPt)

	if err := sys.BEM.Solve(t, sys.bemSystem()); err != nil {
		return err
	}
	evaluateVort(sys, t)
	evaluateFldPt(sys, t)

	u0Vort := collectU(sys.Vort)
	g0Vort := collectGrad(sys.Vort)
	u0Fld := collectU(sys.FldPt)

	half := float32(dt / 2)
	for ci, col := range sys.Vort {
		for k := 0; k < col.N(); k++ {
			if col.Move == elements.Lagrangian {
				col.X[k] = vector.Add(vortSnap[ci].x[k], vector.Scale(u0Vort[ci][k], half))
			}
			ds := g0Vort[ci][k].MulVec(vortSnap[ci].s[k])
			col.S[k] = vector.Add(vortSnap[ci].s[k], vector.Scale(ds, half))
		}
	}
	for ci, col := range sys.FldPt {
		if col.Move != elements.Lagrangian {
			continue
		}
		for k := 0; k < col.N(); k++ {
			col.X[k] = vector.Add(fldSnap[ci].x[k], vector.Scale(u0Fld[ci][k], half))
		}
	}

	tMid := t + dt/2
	if err := sys.BEM.Solve(tMid, sys.bemSystem()); err != nil {
		restoreAll(sys.Vort, vortSnap)
		restoreAll(sys.FldPt, fldSnap)
		return err
	}
	evaluateVort(sys, tMid)
	evaluateFldPt(sys, tMid)

	full := float32(dt)
	for ci, col := range sys.Vort {
		for k := 0; k < col.N(); k++ {
			if col.Move == elements.Lagrangian {
				col.X[k] = vector.Add(vortSnap[ci].x[k], vector.Scale(col.U[k], full))
			}
			ds := col.GradU[k].MulVec(col.S[k])
			factor := elongationFactor(col.GradU[k], col.S[k], dt)
			col.S[k] = vector.Add(vortSnap[ci].s[k], vector.Scale(ds, full))
			col.E[k] = vortSnap[ci].e[k] * factor
		}
	}
	for ci, col := range sys.FldPt {
		if col.Move != elements.Lagrangian {
			continue
		}
		for k := 0; k < col.N(); k++ {
			col.X[k] = vector.Add(fldSnap[ci].x[k], vector.Scale(col.U[k], full))
		}
	}

	return nil
}
