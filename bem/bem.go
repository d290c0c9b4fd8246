// Package bem implements the boundary element solve (spec 4.C): assembling
// the dense panel-influence matrix for unknown vortex-sheet strengths on
// reactive surfaces and solving it so the tangential velocity on every
// panel matches its prescribed boundary condition.
package bem

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// DefaultMaxPanels is the panel-count ceiling above which assembly is
// refused upstream (spec 4.C's failure modes).
const DefaultMaxPanels = 21000

var (
	// ErrTooManyPanels is returned when the combined panel count of all
	// reactive surfaces exceeds the configured ceiling.
	ErrTooManyPanels = errors.New("bem: panel count exceeds ceiling")
	// ErrSingular is returned when the assembled system is near-singular
	// rather than silently solved (spec 4.C, spec 7's divergence errors).
	ErrSingular = errors.New("bem: near-singular influence matrix")
)

// Config bundles the regularization core and adaptive-refinement depth
// used for every panel-panel influence evaluation.
type Config struct {
	Core      core.Core
	MaxDepth  int
	MaxPanels int // 0 means DefaultMaxPanels
}

func (cfg Config) maxPanels() int {
	if cfg.MaxPanels > 0 {
		return cfg.MaxPanels
	}
	return DefaultMaxPanels
}

// System is the current problem: the reactive surfaces whose vs is being
// solved for, the active Collections inducing a known background
// velocity, and the ambient freestream.
type System struct {
	Surfaces   []*elements.Surfaces
	Sources    []*elements.Points
	Freestream vector.Vec3
}

// panelRef locates one panel within the flattened row/column ordering
// used by the assembled matrix.
type panelRef struct {
	s *elements.Surfaces
	i int
}

func flatten(surfaces []*elements.Surfaces) []panelRef {
	refs := make([]panelRef, 0)
	for _, s := range surfaces {
		for i := 0; i < s.N(); i++ {
			refs = append(refs, panelRef{s, i})
		}
	}
	return refs
}

func panelCount(surfaces []*elements.Surfaces) int {
	n := 0
	for _, s := range surfaces {
		n += s.N()
	}
	return n
}

// backgroundVelocity sums the freestream, the panel's own Body velocity at
// its centroid, and the induced velocity from every source Collection's
// particles, at world point p and time t (spec 4.C step 3's "particles +
// freestream + body velocity at panel centroid").
func backgroundVelocity(cfg Config, sys System, ref panelRef, p vector.Vec3, t float64) vector.Vec3 {
	u := sys.Freestream
	if ref.s.Body != nil {
		u.Add(ref.s.Body.VelocityAt(t, p))
	}
	for _, src := range sys.Sources {
		for k := 0; k < src.N(); k++ {
			u.Add(core.Velocity(cfg.Core, src.WorldPos(k, t), p, src.S[k], src.R[k], 0))
		}
	}
	return u
}

// Solve assembles the dense 2np x 2np panel-influence matrix and solves it
// for each reactive panel's unknown sheet strength (spec 4.C). It rebuilds
// every surface's per-panel frame at time t first.
func (cfg Config) Solve(t float64, sys System) error {
	np := panelCount(sys.Surfaces)
	if np == 0 {
		return nil
	}
	if np > cfg.maxPanels() {
		return fmt.Errorf("%w: %d panels (ceiling %d)", ErrTooManyPanels, np, cfg.maxPanels())
	}
	for _, s := range sys.Surfaces {
		if err := s.ComputeFrames(t); err != nil {
			return err
		}
	}

	refs := flatten(sys.Surfaces)
	n := 2 * np
	M := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)

	for row, pr := range refs {
		centroid := pr.s.Centroid(pr.i, t)
		x1, x2 := pr.s.X1[pr.i], pr.s.X2[pr.i]

		u := backgroundVelocity(cfg, sys, pr, centroid, t)
		bc := pr.s.BC[pr.i]
		b.SetVec(2*row+0, float64(-vector.Dot(u, x1)+bc[0]))
		b.SetVec(2*row+1, float64(-vector.Dot(u, x2)+bc[1]))

		for col, pc := range refs {
			if row == col {
				// A flat constant-strength sheet induces zero average
				// tangential velocity at its own centroid by the symmetry
				// of the quadrature stations about the centroid; only
				// cross-panel coefficients are nonzero.
				continue
			}
			for comp := 0; comp < 2; comp++ {
				var vs vector.Vec2
				vs[comp] = 1
				panel := pc.s.UnitPanel(pc.i, vs, t)
				vel := core.VelocityPanel(cfg.Core, panel, centroid, 0, cfg.MaxDepth)
				M.Set(2*row+0, 2*col+comp, float64(vector.Dot(vel, x1)))
				M.Set(2*row+1, 2*col+comp, float64(vector.Dot(vel, x2)))
			}
		}
	}

	var lu mat.LU
	lu.Factorize(M)
	if cond := lu.Cond(); cond > 1e14 {
		return fmt.Errorf("%w: condition number %g", ErrSingular, cond)
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}

	for row, pr := range refs {
		pr.s.VS[pr.i][0] = float32(x.AtVec(2 * row))
		pr.s.VS[pr.i][1] = float32(x.AtVec(2*row + 1))
	}
	return nil
}

// Residual returns the largest tangential-velocity boundary-condition
// error over every reactive panel, evaluated from the currently-solved vs
// (spec 8.1's "BEM consistency" property, and spec 7's "BEM residual above
// tolerance" divergence check). It uses the same self-term convention as
// Solve (a panel's own sheet contributes nothing to its own centroid).
func (cfg Config) Residual(t float64, sys System) float32 {
	refs := flatten(sys.Surfaces)
	var maxResidual float32
	for row, pr := range refs {
		centroid := pr.s.Centroid(pr.i, t)
		x1, x2 := pr.s.X1[pr.i], pr.s.X2[pr.i]
		u := backgroundVelocity(cfg, sys, pr, centroid, t)

		for col, pc := range refs {
			if row == col {
				continue
			}
			panel := pc.s.Panel(pc.i, t)
			u.Add(core.VelocityPanel(cfg.Core, panel, centroid, 0, cfg.MaxDepth))
		}

		bc := pr.s.BC[pr.i]
		r0 := vector.Dot(u, x1) - bc[0]
		r1 := vector.Dot(u, x2) - bc[1]
		if r0 < 0 {
			r0 = -r0
		}
		if r1 < 0 {
			r1 = -r1
		}
		if r0 > maxResidual {
			maxResidual = r0
		}
		if r1 > maxResidual {
			maxResidual = r1
		}
	}
	return maxResidual
}
