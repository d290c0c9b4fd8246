package core

import (
	"math"

	"omega3d.dev/omega3d/vector"
)

// Panel is a flat triangular vortex-sheet source: three vertices and a
// uniform vector strength already multiplied by panel area (spec 3.4's
// per-panel vs*area), to be integrated over the panel's surface.
type Panel struct {
	V0, V1, V2 vector.Vec3
	Strength   vector.Vec3
}

// stations returns the 4 quadrature points (centroid + 3 edge-midpoint
// biased points) of the reference kernel_2v_0p 4-point rule; each station
// carries equal weight, so callers apply a quarter of the strength to each.
func (p Panel) stations() [4]vector.Vec3 {
	return [4]vector.Vec3{
		vector.Scale(vector.Add(vector.Add(p.V0, p.V1), p.V2), 1.0/3.0),
		vector.Scale(vector.Add(vector.Add(vector.Scale(p.V0, 4.0), p.V1), p.V2), 1.0/6.0),
		vector.Scale(vector.Add(vector.Add(p.V0, vector.Scale(p.V1, 4.0)), p.V2), 1.0/6.0),
		vector.Scale(vector.Add(vector.Add(p.V0, p.V1), vector.Scale(p.V2, 4.0)), 1.0/6.0),
	}
}

// lengthScale is a representative size for the panel, used to decide when
// adaptive refinement subdivides it (spec 4.A: subdivide when the target
// is closer than 4x the panel's length scale).
func (p Panel) lengthScale() float32 {
	a := vector.Length(vector.Sub(p.V1, p.V0))
	b := vector.Length(vector.Sub(p.V2, p.V1))
	c := vector.Length(vector.Sub(p.V0, p.V2))
	return (a + b + c) / 3.0
}

func (p Panel) centroid() vector.Vec3 {
	return vector.Scale(vector.Add(vector.Add(p.V0, p.V1), p.V2), 1.0/3.0)
}

// subdivide splits p into the 4 standard sub-triangles at its edge
// midpoints, distributing a quarter of the strength to each.
func (p Panel) subdivide() [4]Panel {
	m01 := vector.Scale(vector.Add(p.V0, p.V1), 0.5)
	m12 := vector.Scale(vector.Add(p.V1, p.V2), 0.5)
	m20 := vector.Scale(vector.Add(p.V2, p.V0), 0.5)
	quarter := vector.Scale(p.Strength, 0.25)
	return [4]Panel{
		{p.V0, m01, m20, quarter},
		{m01, p.V1, m12, quarter},
		{m20, m12, p.V2, quarter},
		{m01, m12, m20, quarter},
	}
}

// DefaultMaxRecursionDepth bounds the adaptive panel refinement.
const DefaultMaxRecursionDepth = 4

// VelocityPanel returns the velocity induced at target by the panel p,
// using adaptive recursive refinement when target is nearer than 4x the
// panel's length scale, down to maxDepth, and the 4-point quadrature
// otherwise. tr is the target's core radius (panels carry no radius of
// their own, matching the reference's sr=0.0 panel calls).
func VelocityPanel(c Core, p Panel, target vector.Vec3, tr float32, maxDepth int) vector.Vec3 {
	d := vector.Length(vector.Sub(p.centroid(), target))
	if maxDepth > 0 && d < 4.0*p.lengthScale() {
		var sum vector.Vec3
		for _, sub := range p.subdivide() {
			sum.Add(VelocityPanel(c, sub, target, tr, maxDepth-1))
		}
		return sum
	}

	quarter := vector.Scale(p.Strength, 0.25)
	var sum vector.Vec3
	for _, s := range p.stations() {
		sum.Add(Velocity(c, s, target, quarter, 0, tr))
	}
	return sum
}

// VelocityGradPanel is the gradient-carrying counterpart of VelocityPanel.
func VelocityGradPanel(c Core, p Panel, target vector.Vec3, tr float32, maxDepth int) (vector.Vec3, vector.Mat3) {
	d := vector.Length(vector.Sub(p.centroid(), target))
	if maxDepth > 0 && d < 4.0*p.lengthScale() {
		var uSum vector.Vec3
		var gSum vector.Mat3
		for _, sub := range p.subdivide() {
			u, g := VelocityGradPanel(c, sub, target, tr, maxDepth-1)
			uSum.Add(u)
			gSum.Add(g)
		}
		return uSum, gSum
	}

	quarter := vector.Scale(p.Strength, 0.25)
	var uSum vector.Vec3
	var gSum vector.Mat3
	for _, s := range p.stations() {
		u, g := VelocityGrad(c, s, target, quarter, 0, tr)
		uSum.Add(u)
		gSum.Add(g)
	}
	return uSum, gSum
}

// Area is the geometric area of the panel's triangle.
func (p Panel) Area() float32 {
	return 0.5 * vector.Length(vector.Cross(vector.Sub(p.V1, p.V0), vector.Sub(p.V2, p.V0)))
}

// IsFinite reports whether every component of v is neither NaN nor Inf
// (spec 7: "any NaN in positions or strengths after a step"). No package
// in this module calls it.
func IsFinite(v vector.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}
