// Package diffusion implements the Vorticity Redistribution Method pass
// (spec 4.E): clear the boundary-adjacent layer, shed new particles from
// reactive surfaces, redistribute strength to neighbors by non-negative
// moment matching, reflect particles that ended up inside a body, and
// merge particles that collapsed too close together.
package diffusion

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"omega3d.dev/omega3d/bem"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// Config bundles the VRM tuning constants (spec 4.E step 1).
type Config struct {
	Viscosity float64 // Re
	Overlap   float32 // omega, default 1.5 if zero

	// MergeThresh is m_thresh: particles closer than MergeThresh*v_delta
	// are merged (spec 4.E step 7 / 4.E.3).
	MergeThresh float32

	// IgnoreThresh is the absolute strength magnitude below which a
	// particle is dropped after VRM, its strength redistributed to
	// neighbors first (spec 4.E.1 contract).
	IgnoreThresh float32

	// InnerLayer is the clear-inner-layer threshold distance from a
	// reactive surface (spec 4.E steps 2, 8).
	InnerLayer float32

	// ShedOffset scales h_nu for the shed standoff distance (spec 4.E
	// step 4, "e.g. 0.01*h_nu").
	ShedOffset float32

	// RadiusAdapter is the optional adaptive-radii plug-in (spec 4.E.1
	// "Adaptive radii (optional)"). Nil disables it.
	RadiusAdapter RadiusAdapter
}

// RadiusAdapter lets a particle below the adapt-strength threshold grow
// its core radius to match a local spatial lapse rate. It is consulted
// only inside VRM, which Step runs only when Viscosity > 0; setting an
// adapter does not turn viscous mode on.
type RadiusAdapter interface {
	AdaptRadius(col *elements.Points, i int, neighbors []int) float32
}

func (cfg Config) overlap() float32 {
	if cfg.Overlap > 0 {
		return cfg.Overlap
	}
	return 1.5
}

// Scales computes h_nu, sigma_nom and v_delta from the timestep and
// viscosity (spec 4.E step 1): h_nu = sqrt(dt/Re), sigma_nom = k*h_nu
// with k = sqrt(8), v_delta = omega*sigma_nom.
func (cfg Config) Scales(dt float64) (hNu, sigmaNom, vDelta float32) {
	hNu = float32(math.Sqrt(dt / cfg.Viscosity))
	sigmaNom = float32(math.Sqrt(8)) * hNu
	vDelta = cfg.overlap() * sigmaNom
	return
}

// ClearInnerLayer checks every particle in cols against every panel plane
// of the reactive surfaces in turn: a particle on a panel's exterior side
// and closer than threshold to its plane is pushed out to threshold along
// that panel's normal (spec 4.E steps 2, 8). Particles further than
// threshold from every panel are left untouched. It reports whether any
// particle moved.
func ClearInnerLayer(cols []*elements.Points, bdry []*elements.Surfaces, t float64, threshold float32) bool {
	if threshold <= 0 {
		return false
	}
	moved := false
	for _, col := range cols {
		for i := 0; i < col.N(); i++ {
			p := col.WorldPos(i, t)
			for _, s := range bdry {
				for pi := 0; pi < s.N(); pi++ {
					c := s.Centroid(pi, t)
					n := s.Normal[pi]
					d := vector.Dot(vector.Sub(p, c), n)
					if d >= 0 && d < threshold {
						col.X[i] = vector.Add(col.X[i], vector.Scale(n, threshold-d))
						moved = true
					}
				}
			}
		}
	}
	return moved
}

// Shed converts every reactive panel's sheet strength into candidate
// particles at a small standoff and appends them to dst (spec 4.E step
// 4). Shed particles carry v_delta as their radius, per the packet-7
// ingestion rule that radius is overwritten with v_delta.
func Shed(bdry []*elements.Surfaces, dst *elements.Points, offset, vDelta float32, t float64) error {
	for _, s := range bdry {
		packet := s.RepresentAsParticles(offset, vDelta, t)
		if err := dst.AddNew(packet); err != nil {
			return err
		}
	}
	return nil
}

// moment assembles the 10-row moment matrix (1 zeroth + 3 first + 6
// second order spatial moments, about particle i) for particle i's
// neighbor set idx (which always includes i itself, at zero offset),
// plus the target vector for a Gaussian core diffused by dt over
// viscosity Re: the zeroth moment is conserved, the first moment stays
// centered, and the second moment grows by 6*dt/Re (isotropic diffusion
// of sigma^2) above the reference spread already present in the
// neighbor offsets.
func moment(xs []vector.Vec3, center vector.Vec3, idx []int, spread float32) (*mat.Dense, *mat.VecDense) {
	n := len(idx)
	A := mat.NewDense(10, n, nil)
	for c, j := range idx {
		d := vector.Sub(xs[j], center)
		A.Set(0, c, 1)
		A.Set(1, c, float64(d[0]))
		A.Set(2, c, float64(d[1]))
		A.Set(3, c, float64(d[2]))
		A.Set(4, c, float64(d[0]*d[0]))
		A.Set(5, c, float64(d[1]*d[1]))
		A.Set(6, c, float64(d[2]*d[2]))
		A.Set(7, c, float64(d[0]*d[1]))
		A.Set(8, c, float64(d[0]*d[2]))
		A.Set(9, c, float64(d[1]*d[2]))
	}
	b := mat.NewVecDense(10, []float64{1, 0, 0, 0, float64(spread), float64(spread), float64(spread), 0, 0, 0})
	return A, b
}

// VRM redistributes every particle's strength in col onto its neighbors
// by non-negative moment matching (spec 4.E.1): for each particle, solve
// an NNLS problem for fractions f_j >= 0 (including f_i, the particle
// keeping some of its own strength) over its neighborhood so the
// redistributed zeroth/first/second spatial moments match the target
// diffused spread, then renormalize the fractions to sum to exactly 1 so
// total strength is conserved to machine precision regardless of the
// NNLS residual. New strengths are accumulated into a scratch buffer and
// swapped in at the end so no particle's redistribution depends on
// another's already having happened this pass.
func VRM(col *elements.Points, grid *elements.Grid, radius float32, dt float64, cfg Config) {
	if col.IsInert() || col.N() == 0 {
		return
	}
	n := col.N()
	grid.Build(col.X)
	spread := float32(6 * dt / cfg.Viscosity)

	next := make([]vector.Vec3, n)
	for i := 0; i < n; i++ {
		neigh := grid.Neighbors(col.X, i, radius)
		idx := append([]int{i}, neigh...)

		A, b := moment(col.X, col.X[i], idx, spread)
		f := nnls(A, b, 2*len(idx)+10)

		sum := floats.Sum(f.RawVector().Data)
		if sum <= 1e-15 {
			next[i] = vector.Add(next[i], col.S[i])
			continue
		}
		for c, j := range idx {
			frac := float32(f.AtVec(c) / sum)
			next[j] = vector.Add(next[j], vector.Scale(col.S[i], frac))
		}

		if cfg.RadiusAdapter != nil {
			col.R[i] = cfg.RadiusAdapter.AdaptRadius(col, i, neigh)
		}
	}
	copy(col.S, next)

	if cfg.IgnoreThresh > 0 {
		dropIgnored(col, grid, radius, cfg.IgnoreThresh)
	}
}

// dropIgnored redistributes the strength of every particle whose
// magnitude falls below thresh to its nearest neighbors, then removes it
// (spec 4.E.1 contract: "particles dropped ... have their strength
// redistributed to neighbors before removal"). Only neighbors not already
// dropped receive a share; a particle with no such neighbor is kept.
func dropIgnored(col *elements.Points, grid *elements.Grid, radius, thresh float32) {
	grid.Build(col.X)
	var drop []int
	dropped := make([]bool, col.N())
	for i := 0; i < col.N(); i++ {
		if vector.Length(col.S[i]) >= thresh {
			continue
		}
		var neigh []int
		for _, j := range grid.Neighbors(col.X, i, radius) {
			if !dropped[j] {
				neigh = append(neigh, j)
			}
		}
		if len(neigh) == 0 {
			continue
		}
		share := vector.Scale(col.S[i], 1.0/float32(len(neigh)))
		for _, j := range neigh {
			col.S[j] = vector.Add(col.S[j], share)
		}
		col.S[i] = vector.Vec3{}
		dropped[i] = true
		drop = append(drop, i)
	}
	col.RemoveIndices(drop)
}

// Reflect moves any particle that ended up on the interior side of a
// reactive panel's plane back out along that panel's normal (spec 4.E
// step 6). This tests against each panel's own plane rather than a full
// point-in-mesh query, matching the teacher's particle/plane collision
// check in spirit (fluid.Particle's boundary collide step) — adequate
// for the thin, locally-flat shells this solver targets.
func Reflect(cols []*elements.Points, bdry []*elements.Surfaces, t float64) {
	for _, col := range cols {
		for i := 0; i < col.N(); i++ {
			for _, s := range bdry {
				for pi := 0; pi < s.N(); pi++ {
					c := s.Centroid(pi, t)
					n := s.Normal[pi]
					d := vector.Dot(vector.Sub(col.X[i], c), n)
					if d < 0 {
						col.X[i] = vector.Add(col.X[i], vector.Scale(n, -2*d))
					}
				}
			}
		}
	}
}

// Merge combines any pair of particles in col closer than thresh, whose
// larger radius is at most 1.3 times the smaller, into a single particle
// at their strength-weighted centroid, with summed strength and a radius
// preserving their combined second moment (spec 4.E step 7 / 4.E.3).
// Indices are invalidated by a merge, so each time one occurs the grid is
// rebuilt and the scan restarts from the first particle.
func Merge(col *elements.Points, grid *elements.Grid, thresh float32) {
	if col.IsInert() {
		return
	}
	for {
		grid.Build(col.X)
		merged := false
		for i := 0; i < col.N(); i++ {
			neigh := grid.Neighbors(col.X, i, thresh)
			for _, j := range neigh {
				if j <= i {
					continue
				}
				if ri, rj := col.R[i], col.R[j]; ri > 1.3*rj || rj > 1.3*ri {
					continue
				}
				mergePair(col, i, j)
				merged = true
				break
			}
			if merged {
				break
			}
		}
		if !merged {
			return
		}
	}
}

func mergePair(col *elements.Points, i, j int) {
	wi, wj := vector.Length(col.S[i]), vector.Length(col.S[j])
	total := wi + wj
	var centroid vector.Vec3
	if total > 1e-15 {
		centroid = vector.Add(vector.Scale(col.X[i], wi/total), vector.Scale(col.X[j], wj/total))
	} else {
		centroid = vector.Scale(vector.Add(col.X[i], col.X[j]), 0.5)
	}
	strength := vector.Add(col.S[i], col.S[j])

	m2i := wi * col.R[i] * col.R[i]
	m2j := wj * col.R[j] * col.R[j]
	r2 := float32(0)
	if total > 1e-15 {
		r2 = (m2i + m2j) / total
	}
	radius := float32(math.Sqrt(float64(r2)))
	if radius <= 0 {
		radius = col.R[i]
	}

	col.X[i] = centroid
	col.S[i] = strength
	col.R[i] = radius
	col.E[i] = 1
	col.RemoveIndices([]int{j})
}

// Split breaks every active particle whose elongation exceeds the
// relative threshold (spec default 1.2) into two children half the
// strength, offset +-0.5*sigmaNom along the stretch direction, with
// elongation reset to 1 (spec 4.E.2 — performed at the end of
// convection, not as part of a diffusion Step).
func Split(col *elements.Points, sigmaNom float32, threshold float32) {
	if col.IsInert() {
		return
	}
	if threshold <= 0 {
		threshold = 1.2
	}
	for i := 0; i < col.N(); i++ {
		if col.E[i] <= threshold {
			continue
		}
		dir := vector.Normalize(col.S[i])
		if vector.LengthSq(dir) == 0 {
			continue
		}
		offset := vector.Scale(dir, 0.5*sigmaNom)
		half := vector.Scale(col.S[i], 0.5)

		x0 := vector.Sub(col.X[i], offset)
		x1 := vector.Add(col.X[i], offset)
		r := col.R[i]

		col.X[i] = x0
		col.S[i] = half
		col.E[i] = 1
		col.Append(x1, half, r)
		col.E[col.N()-1] = 1
	}
}

// Step runs the full per-step VRM sequence (spec 4.E steps 2-10):
// clear inner layer, BEM solve, shed, VRM diffuse, reflect, merge, clear
// inner layer again, merge once more if that clearing moved anything.
// The single BEM solve runs before shedding, so particles shed into dst
// this step do not take part in it.
func Step(t, dt float64, cfg Config, bemCfg bem.Config, bsys bem.System, vort []*elements.Points, bdry []*elements.Surfaces, dst *elements.Points) error {
	if cfg.Viscosity <= 0 {
		return nil
	}
	hNu, _, vDelta := cfg.Scales(dt)
	radius := 2 * hNu

	for _, s := range bdry {
		if err := s.ComputeFrames(t); err != nil {
			return err
		}
	}
	ClearInnerLayer(vort, bdry, t, cfg.InnerLayer)

	if err := bemCfg.Solve(t, bsys); err != nil {
		return err
	}

	if err := Shed(bdry, dst, cfg.ShedOffset*hNu, vDelta, t); err != nil {
		return err
	}

	grid := elements.NewGrid(radius)
	for _, col := range vort {
		VRM(col, grid, radius, dt, cfg)
	}

	Reflect(vort, bdry, t)

	mergeGrid := elements.NewGrid(cfg.MergeThresh * vDelta)
	for _, col := range vort {
		Merge(col, mergeGrid, cfg.MergeThresh*vDelta)
	}

	if cleared := ClearInnerLayer(vort, bdry, t, cfg.InnerLayer); cleared {
		for _, col := range vort {
			Merge(col, mergeGrid, cfg.MergeThresh*vDelta)
		}
	}

	for _, col := range vort {
		col.UpdateMaxStrength()
	}

	return nil
}
