// Package core implements the regularized Biot-Savart influence kernels
// (spec 4.A): point and panel sources, velocity-only and velocity+gradient
// forms, for the two supported regularizations (Rosenhead-Moore and compact
// exponential). Every function here is pure, accumulates nothing on its
// own (callers add into their own accumulators), and is safe to call
// concurrently across independent target/source pairs.
package core

import (
	"math"

	"omega3d.dev/omega3d/vector"
)

// Core is a regularization law: given the squared source-target distance
// and the combined-core-radius squared, it returns the scalar coefficient
// G (and, for the gradient form, the auxiliary term B = dG/dr2 * 2 used to
// build the velocity-gradient tensor). This mirrors the teacher's
// fluid.Kernel interface (F/O1D/O2D/Grad) generalized from a scalar SPH
// smoothing weight to a vector Biot-Savart regularization.
type Core interface {
	G(r2, sigma2 float32) float32
	GGrad(r2, sigma2 float32) (g, b float32)
}

// RosenheadMoore implements G(r2;sigma) = 1/(r2+sigma2)^(3/2).
type RosenheadMoore struct{}

func (RosenheadMoore) G(r2, sigma2 float32) float32 {
	rr := r2 + sigma2
	return 1.0 / float32(math.Sqrt(float64(rr))*float64(rr))
}

func (RosenheadMoore) GGrad(r2, sigma2 float32) (float32, float32) {
	rr := r2 + sigma2
	g := 1.0 / float32(math.Sqrt(float64(rr))*float64(rr))
	b := -3.0 * g / rr
	return g, b
}

// CompactExponential implements the far-field/mid-field/singular-limit
// blended core: 1/d3 far away, (1-exp(-d3/sigma3))/d3 in the mid-field, and
// 1/sigma3 at zero distance, switching at d3/sigma3 thresholds of 16 and
// 0.001 (spec 4.A).
type CompactExponential struct{}

func (CompactExponential) G(r2, sigma2 float32) float32 {
	g, _ := (CompactExponential{}).GGrad(r2, sigma2)
	return g
}

func (CompactExponential) GGrad(r2, sigma2 float32) (float32, float32) {
	dist := float32(math.Sqrt(float64(r2)))
	sigma3 := sigma2 * float32(math.Sqrt(float64(sigma2)))
	corefac := float32(1.0)
	if sigma3 != 0 {
		corefac = 1.0 / sigma3
	}
	d3 := r2 * dist
	reld3 := d3 * corefac

	switch {
	case reld3 > 16.0:
		g := float32(1.0)
		if d3 != 0 {
			g = 1.0 / d3
		}
		b := float32(0)
		if d3 != 0 && r2 != 0 {
			b = -3.0 / (d3 * r2)
		}
		return g, b
	case reld3 < 0.001:
		g := corefac
		b := -1.5 * dist * corefac * corefac
		return g, b
	default:
		expreld3 := float32(math.Exp(float64(-reld3)))
		g := float32(0)
		if d3 != 0 {
			g = (1.0 - expreld3) / d3
		}
		b := float32(0)
		if r2 != 0 {
			b = 3.0 * (corefac*expreld3 - g) / r2
		}
		return g, b
	}
}

// sigma2 combines source and target core radii, spec 4.A: sigma2 = sr2+tr2.
func sigma2(sr, tr float32) float32 { return sr*sr + tr*tr }

// Velocity returns the velocity induced at target by a point vortex source
// at src with vector strength, radii sr (source) and tr (target).
// d = target - source; u = G(|d|^2; sigma) * (strength x d), following
// the reference kernel_0v_0p convention.
func Velocity(c Core, src, target, strength vector.Vec3, sr, tr float32) vector.Vec3 {
	d := vector.Sub(target, src)
	g := c.G(vector.LengthSq(d), sigma2(sr, tr))
	return vector.Scale(vector.Cross(strength, d), g)
}

// VelocitySource adds the scalar source-strength term s*(sigma*d) used by
// vortex+source combined elements.
func VelocitySource(c Core, src, target, strength vector.Vec3, sourceStrength, sr, tr float32) vector.Vec3 {
	d := vector.Sub(target, src)
	g := c.G(vector.LengthSq(d), sigma2(sr, tr))
	u := vector.Cross(strength, d)
	u = vector.Add(u, vector.Scale(d, sourceStrength))
	return vector.Scale(u, g)
}

// VelocityGrad returns both the induced velocity and the velocity-gradient
// tensor grad[i][j] = du_i/dx_j at target, for a point vortex source,
// following kernel_0v_0pg.
func VelocityGrad(c Core, src, target, strength vector.Vec3, sr, tr float32) (vector.Vec3, vector.Mat3) {
	d := vector.Sub(target, src)
	g, b := c.GGrad(vector.LengthSq(d), sigma2(sr, tr))

	dxw := d[2]*strength[1] - d[1]*strength[2]
	dyw := d[0]*strength[2] - d[2]*strength[0]
	dzw := d[1]*strength[0] - d[0]*strength[1]

	u := vector.Vec3{g * dxw, g * dyw, g * dzw}

	dxw *= b
	dyw *= b
	dzw *= b

	var grad vector.Mat3
	// row 0 = du/dx,du/dy,du/dz ; row1=dv/.. ; row2=dw/..
	grad[0] = d[0] * dxw
	grad[3] = d[0]*dyw + strength[2]*g
	grad[6] = d[0]*dzw - strength[1]*g
	grad[1] = d[1]*dxw - strength[2]*g
	grad[4] = d[1] * dyw
	grad[7] = d[1]*dzw + strength[0]*g
	grad[2] = d[2]*dxw + strength[1]*g
	grad[5] = d[2]*dyw - strength[0]*g
	grad[8] = d[2] * dzw

	return u, grad
}

// VelocitySourceGrad is the vortex+source combined version of VelocityGrad,
// following kernel_0vs_0pg.
func VelocitySourceGrad(c Core, src, target, strength vector.Vec3, sourceStrength, sr, tr float32) (vector.Vec3, vector.Mat3) {
	u, grad := VelocityGrad(c, src, target, strength, sr, tr)

	d := vector.Sub(target, src)
	g, b := c.GGrad(vector.LengthSq(d), sigma2(sr, tr))

	u[0] += g * d[0] * sourceStrength
	u[1] += g * d[1] * sourceStrength
	u[2] += g * d[2] * sourceStrength

	dxs := d[0] * b * sourceStrength
	dys := d[1] * b * sourceStrength
	dzs := d[2] * b * sourceStrength
	dss := sourceStrength * g

	grad[0] += d[0]*dxs + dss
	grad[3] += d[0] * dys
	grad[6] += d[0] * dzs
	grad[1] += d[1] * dxs
	grad[4] += d[1]*dys + dss
	grad[7] += d[1] * dzs
	grad[2] += d[2] * dxs
	grad[5] += d[2] * dys
	grad[8] += d[2]*dzs + dss

	return u, grad
}
