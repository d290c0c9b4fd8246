// Package simulation composes bem, convection and diffusion into the
// stepping driver (spec 4.F): the public surface that a scene or CLI
// entry point drives one step at a time, plus the async wrapper used by
// a polling caller (spec 5).
package simulation

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"omega3d.dev/omega3d/bem"
	"omega3d.dev/omega3d/body"
	"omega3d.dev/omega3d/convection"
	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/diffusion"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// Error kinds (spec 7): configuration errors are init-time and refuse to
// start; divergence errors are step-time and leave state inspectable.
var (
	ErrConfiguration = errors.New("simulation: configuration error")
	ErrDivergence    = errors.New("simulation: numerical divergence")
	ErrStepInFlight  = errors.New("simulation: step already in flight")
)

// Simulation is the top-level driver: it owns every Collection and
// drives diffusion then convection each step (spec 4.F's step sequence).
// All mutating/reading operations take mu so a Step running on the async
// worker goroutine can't race with a concurrent accessor.
type Simulation struct {
	mu sync.Mutex

	viscosity  float64 // Re; <= 0 means inviscid
	dt         float64
	freestream vector.Vec3

	core         core.Core
	bemMaxDepth  int
	bemMaxPanels int
	bemTol       float32

	diffCfg diffusion.Config

	vort    []*elements.Points
	bdry    []*elements.Surfaces
	fldpt   []*elements.Points
	primary *elements.Points // first Active/Lagrangian collection, lazily created by AddParticles

	time  float64
	nstep int

	maxStepsEnabled bool
	maxSteps        int
	endTimeEnabled  bool
	endTime         float64

	maxElongationLimit float32 // divergence threshold, spec default 1.5 area

	haveImpulse bool
	lastImpulse vector.Vec3
	lastForces  vector.Vec3

	statusLog *log.Logger // tab-separated status file (spec 6.4)
	eventLog  *log.Logger // structured step-lifecycle logging (stderr)

	async asyncState
}

// New builds a Simulation using the Rosenhead-Moore core and the
// defaults named throughout spec 4 and 7 (BEM panel ceiling, divergence
// elongation threshold). statusOut receives the append-only status
// lines (spec 6.4); eventOut receives step-lifecycle log lines.
func New(statusOut, eventOut io.Writer) *Simulation {
	return &Simulation{
		core:               core.RosenheadMoore{},
		bemMaxDepth:        3,
		bemMaxPanels:       bem.DefaultMaxPanels,
		bemTol:             1e-3,
		maxElongationLimit: 1.5,
		statusLog:          log.New(statusOut, "", 0),
		eventLog:           log.New(eventOut, "simulation: ", log.LstdFlags),
	}
}

// SetViscosity sets Re; Re <= 0 disables diffusion (inviscid mode).
func (sim *Simulation) SetViscosity(re float64) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.viscosity = re
	sim.diffCfg.Viscosity = re
	return nil
}

// SetDt sets the fixed timestep used by every subsequent Step.
func (sim *Simulation) SetDt(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrConfiguration, dt)
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.dt = dt
	return nil
}

// SetFreestream sets the ambient velocity U_inf.
func (sim *Simulation) SetFreestream(u vector.Vec3) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.freestream = u
}

// SetCore selects the regularization kernel used by every BEM assembly and
// convection velocity evaluation (spec 4.A's two variants).
func (sim *Simulation) SetCore(c core.Core) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.core = c
}

// SetBEMTuning overrides the adaptive-refinement depth, panel ceiling (0
// keeps bem.DefaultMaxPanels) and residual tolerance used by CheckSimulation.
func (sim *Simulation) SetBEMTuning(maxDepth, maxPanels int, tol float32) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.bemMaxDepth = maxDepth
	sim.bemMaxPanels = maxPanels
	sim.bemTol = tol
}

// SetStopConditions configures the stop-condition thresholds checked by
// TestVsStop (spec 4.F): a zero/disabled value leaves that condition off.
func (sim *Simulation) SetStopConditions(maxSteps int, maxStepsEnabled bool, endTime float64, endTimeEnabled bool) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.maxSteps, sim.maxStepsEnabled = maxSteps, maxStepsEnabled
	sim.endTime, sim.endTimeEnabled = endTime, endTimeEnabled
}

// SetVRM configures the diffusion tuning constants (spec 4.E step 1);
// Viscosity is managed separately by SetViscosity.
func (sim *Simulation) SetVRM(cfg diffusion.Config) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	cfg.Viscosity = sim.viscosity
	sim.diffCfg = cfg
}

// AddParticles appends a packet-7 of active vortex particles to the
// primary active Lagrangian Collection, creating it on first use.
func (sim *Simulation) AddParticles(packet elements.Packet7) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.primary == nil {
		sim.primary = elements.NewPoints(elements.Active, elements.Lagrangian, nil)
		sim.vort = append(sim.vort, sim.primary)
	}
	return sim.primary.AddNew(packet)
}

// AddFieldPoints appends a packet-3 of inert field points, following the
// spec 4.F matching rule: Lagrangian points join the first Lagrangian
// inert Collection (creating one if none exists); Fixed or BodyBound
// points always start a new Collection, keeping distinct families
// separable.
func (sim *Simulation) AddFieldPoints(packet elements.Packet3, move elements.MoveKind, b *body.Body) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	r := float32(1e-3) // field points carry no dynamics of their own; radius only matters for kernel self-softening

	if move == elements.Lagrangian {
		for _, col := range sim.fldpt {
			if col.Move == elements.Lagrangian {
				return col.AddPositions(packet, r)
			}
		}
	}

	col := elements.NewPoints(elements.Inert, move, b)
	if err := col.AddPositions(packet, r); err != nil {
		return err
	}
	sim.fldpt = append(sim.fldpt, col)
	return nil
}

// AddBoundary appends a triangulated mesh to the reactive Surfaces bound
// to b, following the spec 4.F matching rule: search existing reactive
// Collections for one referencing the same body, appending if found,
// else creating a new one.
func (sim *Simulation) AddBoundary(b *body.Body, nodes []vector.Vec3, tris [][3]int, bc vector.Vec2) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	var target *elements.Surfaces
	for _, s := range sim.bdry {
		if s.Body == b {
			target = s
			break
		}
	}
	if target == nil {
		target = elements.NewSurfaces(b)
		sim.bdry = append(sim.bdry, target)
	}

	base := len(target.Node)
	target.Node = append(target.Node, nodes...)
	for _, tri := range tris {
		if err := target.AddPanel(base+tri[0], base+tri[1], base+tri[2], vector.Vec2{}, bc); err != nil {
			return err
		}
	}
	return nil
}

func (sim *Simulation) bemConfig() bem.Config {
	return bem.Config{Core: sim.core, MaxDepth: sim.bemMaxDepth, MaxPanels: sim.bemMaxPanels}
}

func (sim *Simulation) bemSystem() bem.System {
	return bem.System{Surfaces: sim.bdry, Sources: sim.vort, Freestream: sim.freestream}
}

// Step advances the simulation by one dt (spec 4.F's step sequence):
// diffusion (no-op if inviscid), convection, periodic field-point
// clearing, splitting, time/step bookkeeping, and a status record.
func (sim *Simulation) Step() error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	dst := sim.primary
	if dst == nil {
		dst = elements.NewPoints(elements.Active, elements.Lagrangian, nil)
		sim.vort = append(sim.vort, dst)
		sim.primary = dst
	}

	if err := diffusion.Step(sim.time, sim.dt, sim.diffCfg, sim.bemConfig(), sim.bemSystem(), sim.vort, sim.bdry, dst); err != nil {
		sim.eventLog.Printf("step %d: diffusion failed: %v", sim.nstep, err)
		return err
	}

	csys := convection.System{
		Vort: sim.vort, Bdry: sim.bdry, FldPt: sim.fldpt,
		Freestream: sim.freestream, BEM: sim.bemConfig(),
	}
	if err := convection.Advect2(sim.time, sim.dt, csys); err != nil {
		sim.eventLog.Printf("step %d: convection failed: %v", sim.nstep, err)
		return err
	}

	if (sim.nstep+1)%5 == 0 {
		diffusion.ClearInnerLayer(sim.fldpt, sim.bdry, sim.time, sim.diffCfg.InnerLayer)
	}

	if sim.viscosity > 0 {
		_, sigmaNom, _ := sim.diffCfg.Scales(sim.dt)
		for _, col := range sim.vort {
			diffusion.Split(col, sigmaNom, 1.2)
		}
	}

	sim.time += sim.dt
	sim.nstep++

	impulse := sim.totalImpulseLocked()
	if sim.haveImpulse {
		sim.lastForces = vector.Scale(vector.Sub(impulse, sim.lastImpulse), float32(1/sim.dt))
	}
	sim.lastImpulse = impulse
	sim.haveImpulse = true

	circ := sim.totalCirculationLocked()
	sim.statusLog.Printf("%g\t%d\t%g\t%g\t%g\t%g\t%g\t%g",
		sim.time, sim.totalParticleCountLocked(),
		circ[0], circ[1], circ[2],
		sim.lastForces[0], sim.lastForces[1], sim.lastForces[2])

	return nil
}

// Reset clears all state back to empty, waiting for any in-flight async
// step to finish first (spec 5's ordering guarantee).
func (sim *Simulation) Reset() {
	sim.async.wait()

	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.vort = nil
	sim.bdry = nil
	sim.fldpt = nil
	sim.primary = nil
	sim.time = 0
	sim.nstep = 0
	sim.haveImpulse = false
	sim.lastImpulse = vector.Vec3{}
	sim.lastForces = vector.Vec3{}
}

func (sim *Simulation) allCollections() []elements.Collection {
	cols := make([]elements.Collection, 0, len(sim.vort)+len(sim.bdry)+len(sim.fldpt))
	for _, c := range sim.vort {
		cols = append(cols, c)
	}
	for _, c := range sim.bdry {
		cols = append(cols, c)
	}
	for _, c := range sim.fldpt {
		cols = append(cols, c)
	}
	return cols
}

// sumVec3 reduces one component across many vectors via gonum/floats,
// rather than an accumulating loop, matching the scalar-slice-reduction
// idiom used elsewhere in the pack for diagnostic sums.
func sumVec3(vs []vector.Vec3) vector.Vec3 {
	if len(vs) == 0 {
		return vector.Vec3{}
	}
	xs := make([]float64, len(vs))
	ys := make([]float64, len(vs))
	zs := make([]float64, len(vs))
	for i, v := range vs {
		xs[i], ys[i], zs[i] = float64(v[0]), float64(v[1]), float64(v[2])
	}
	return vector.Vec3{float32(floats.Sum(xs)), float32(floats.Sum(ys)), float32(floats.Sum(zs))}
}

func (sim *Simulation) totalCirculationLocked() vector.Vec3 {
	cols := sim.allCollections()
	parts := make([]vector.Vec3, len(cols))
	for i, c := range cols {
		parts[i] = c.TotalCirculation(sim.time)
	}
	return sumVec3(parts)
}

func (sim *Simulation) totalImpulseLocked() vector.Vec3 {
	parts := make([]vector.Vec3, 0, len(sim.vort)+len(sim.bdry))
	for _, c := range sim.vort {
		parts = append(parts, c.TotalImpulse())
	}
	for _, c := range sim.bdry {
		parts = append(parts, c.TotalImpulse())
	}
	return sumVec3(parts)
}

func (sim *Simulation) totalParticleCountLocked() int {
	n := 0
	for _, c := range sim.vort {
		n += c.N()
	}
	return n
}

// TotalCirculation is the vector sum of every Collection's circulation
// at the current time (spec 4.F).
func (sim *Simulation) TotalCirculation() vector.Vec3 {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.totalCirculationLocked()
}

// TotalImpulse is the vector sum of every Collection's linear impulse.
func (sim *Simulation) TotalImpulse() vector.Vec3 {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.totalImpulseLocked()
}

// SimpleForces returns the most recently finite-differenced hydrodynamic
// force, cached from the last Step (spec 6.4).
func (sim *Simulation) SimpleForces() vector.Vec3 {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.lastForces
}

// TestVsStop reports whether a configured stop condition has been
// reached (spec 4.F): nstep >= maxSteps, or time + 0.5*dt >= endTime.
func (sim *Simulation) TestVsStop() bool {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.maxStepsEnabled && sim.nstep >= sim.maxSteps {
		return true
	}
	if sim.endTimeEnabled && sim.time+0.5*sim.dt >= sim.endTime {
		return true
	}
	return false
}

func (sim *Simulation) panelCountLocked() int {
	n := 0
	for _, s := range sim.bdry {
		n += s.N()
	}
	return n
}

// CheckInitialization validates the configuration before the first Step
// (spec 4.F, 7): no flow features and no boundary; a boundary with
// nothing that would ever shed (no viscosity, freestream, moving body,
// or nonzero BC); panel count above the configured ceiling; or a
// particle already elongated past 1.5 at seed time.
func (sim *Simulation) CheckInitialization() error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	if len(sim.vort) == 0 && len(sim.bdry) == 0 {
		return fmt.Errorf("%w: no flow features and no boundary", ErrConfiguration)
	}

	if len(sim.bdry) > 0 {
		movingBody := false
		var maxBC float32
		for _, s := range sim.bdry {
			if bc := s.MaxBCValue(); bc > maxBC {
				maxBC = bc
			}
			if s.Body != nil {
				lin, ang := s.Body.Velocity(sim.time)
				if vector.LengthSq(lin) > 0 || vector.LengthSq(ang) > 0 {
					movingBody = true
				}
			}
		}
		if sim.viscosity <= 0 && vector.LengthSq(sim.freestream) == 0 && !movingBody && maxBC == 0 {
			return fmt.Errorf("%w: boundary present but no viscosity, freestream, moving body, or BC — nothing would shed", ErrConfiguration)
		}
		if n := sim.panelCountLocked(); n > sim.bemMaxPanels {
			return fmt.Errorf("%w: %d panels exceeds ceiling %d", ErrConfiguration, n, sim.bemMaxPanels)
		}
	}

	for _, col := range sim.vort {
		if e := col.MaxElongation(); e > 1.5 {
			return fmt.Errorf("%w: particle max elongation %g already exceeds 1.5", ErrConfiguration, e)
		}
	}
	return nil
}

// CheckSimulation validates the running state after a Step (spec 4.F,
// 7): max elongation past the divergence threshold, any NaN in
// positions or strengths, or a BEM residual above tolerance.
func (sim *Simulation) CheckSimulation() error {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	for _, col := range sim.vort {
		if e := col.MaxElongation(); e > sim.maxElongationLimit {
			return fmt.Errorf("%w: max elongation %g exceeds %g", ErrDivergence, e, sim.maxElongationLimit)
		}
		if i, ok := firstNaN(col.X); ok {
			return fmt.Errorf("%w: NaN position at particle %d", ErrDivergence, i)
		}
		if i, ok := firstNaN(col.S); ok {
			return fmt.Errorf("%w: NaN strength at particle %d", ErrDivergence, i)
		}
	}

	if len(sim.bdry) > 0 {
		res := sim.bemConfig().Residual(sim.time, sim.bemSystem())
		if res > sim.bemTol {
			return fmt.Errorf("%w: BEM residual %g exceeds tolerance %g", ErrDivergence, res, sim.bemTol)
		}
	}
	return nil
}

func firstNaN(xs []vector.Vec3) (int, bool) {
	for i, x := range xs {
		for _, c := range x {
			if math.IsNaN(float64(c)) {
				return i, true
			}
		}
	}
	return 0, false
}
