package scene

import (
	"encoding/json"
	"fmt"
	"io"

	"omega3d.dev/omega3d/body"
	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/diffusion"
	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/simulation"
	"omega3d.dev/omega3d/vector"
)

// Running bundles a built Simulation with the live flow/measurement
// features a batch driver must tick every step (spec 6.3's main loop,
// generalizing original_source/main_batch.cpp's per-iteration emitter
// calls).
type Running struct {
	Sim     *simulation.Simulation
	Flow    []FlowFeature
	Measure []MeasureFeature
	IPS     float32
	Runtime RuntimeParams
}

// Build parses scene JSON, wires bodies/boundaries into a Simulation, seeds
// it from every enabled flow and measurement feature, and returns a Running
// ready to step (spec 4.G, 6.1).
func Build(data []byte, statusOut, eventOut io.Writer) (*Running, error) {
	var sc Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return sc.build(statusOut, eventOut)
}

func (sc *Scene) build(statusOut, eventOut io.Writer) (*Running, error) {
	if sc.SimParams.NominalDt <= 0 {
		return nil, fmt.Errorf("scene: simparams.nominalDt is required and must be positive")
	}

	sim := simulation.New(statusOut, eventOut)
	if err := sim.SetDt(sc.SimParams.NominalDt); err != nil {
		return nil, err
	}
	if sc.FlowParams.Re > 0 {
		if err := sim.SetViscosity(sc.FlowParams.Re); err != nil {
			return nil, err
		}
	}
	sim.SetFreestream(sc.FlowParams.Uinf.V)

	switch sc.SimParams.Core {
	case "compact-exponential":
		sim.SetCore(core.CompactExponential{})
	case "", "rosenhead-moore":
	default:
		return nil, fmt.Errorf("scene: simparams.core %q not recognized", sc.SimParams.Core)
	}

	if sc.SimParams.VRM != nil {
		v := sc.SimParams.VRM
		sim.SetVRM(diffusion.Config{
			Overlap:      v.Overlap,
			MergeThresh:  v.MergeThreshold,
			IgnoreThresh: v.IgnoreThresh,
			InnerLayer:   v.InnerLayer,
			ShedOffset:   v.ShedOffset,
		})
	}

	bodies, err := sc.buildBodies()
	if err != nil {
		return nil, err
	}

	ips := float32(0.1)
	switch {
	case sc.SimParams.IPS != nil:
		ips = *sc.SimParams.IPS
	case sc.FlowParams.Re > 0:
		_, sigmaNom, _ := (diffusion.Config{Viscosity: sc.FlowParams.Re}).Scales(sc.SimParams.NominalDt)
		ips = sigmaNom
	}

	for _, bd := range sc.Boundaries {
		b, ok := bodies[bd.Body]
		if bd.Body != "" && !ok {
			return nil, fmt.Errorf("scene: boundary references undeclared body %q", bd.Body)
		}
		nodes, tris, err := bd.mesh()
		if err != nil {
			return nil, err
		}
		bc := vector.Vec2{bd.BC[0], bd.BC[1]}
		if err := sim.AddBoundary(b, nodes, tris, bc); err != nil {
			return nil, err
		}
	}

	flow := make([]FlowFeature, 0, len(sc.FlowStructures))
	for _, raw := range sc.FlowStructures {
		f, err := decodeFlowFeature(raw)
		if err != nil {
			return nil, err
		}
		flow = append(flow, f)
		if p := f.InitParticles(ips); len(p) > 0 {
			if err := sim.AddParticles(p); err != nil {
				return nil, err
			}
		}
	}

	measure := make([]MeasureFeature, 0, len(sc.Measurements))
	for _, raw := range sc.Measurements {
		m, err := decodeMeasureFeature(raw)
		if err != nil {
			return nil, err
		}
		measure = append(measure, m)
		if err := addFieldPoints(sim, m, m.InitPoints()); err != nil {
			return nil, err
		}
	}

	sim.SetStopConditions(sc.Runtime.MaxSteps, sc.Runtime.HasMaxSteps, sc.Runtime.EndTime, sc.Runtime.HasEndTime)

	return &Running{Sim: sim, Flow: flow, Measure: measure, IPS: ips, Runtime: sc.Runtime}, nil
}

// buildBodies resolves the parent chain named by each BodySpec into a
// kinematic tree of body.Body nodes (spec 6.1's "bodies[].parent").
func (sc *Scene) buildBodies() (map[string]*body.Body, error) {
	specs := make(map[string]BodySpec, len(sc.Bodies))
	for _, bs := range sc.Bodies {
		if bs.Name == "" {
			return nil, fmt.Errorf("scene: body with empty name")
		}
		specs[bs.Name] = bs
	}

	built := make(map[string]*body.Body, len(specs))
	var resolve func(name string, seen map[string]bool) (*body.Body, error)
	resolve = func(name string, seen map[string]bool) (*body.Body, error) {
		if b, ok := built[name]; ok {
			return b, nil
		}
		bs, ok := specs[name]
		if !ok {
			return nil, fmt.Errorf("scene: body %q not declared", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("scene: body %q participates in a parent cycle", name)
		}
		seen[name] = true

		if bs.Parent == "" {
			b := body.New(bs.Name, bs.motion())
			built[name] = b
			return b, nil
		}
		parent, err := resolve(bs.Parent, seen)
		if err != nil {
			return nil, err
		}
		b := parent.Child(bs.Name, bs.motion())
		built[name] = b
		return b, nil
	}

	for name := range specs {
		if _, err := resolve(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	return built, nil
}

func addFieldPoints(sim *simulation.Simulation, m MeasureFeature, p elements.Packet3) error {
	if len(p) == 0 {
		return nil
	}
	move := elements.Fixed
	if m.Moves() {
		move = elements.Lagrangian
	}
	return sim.AddFieldPoints(p, move, nil)
}

// Tick generates this step's emitter particles and points (spec 4.G: only
// particle emitters and tracer emitters are non-empty here) without
// advancing the simulation clock — callers call Sim.Step afterward.
func (r *Running) Tick() error {
	for _, f := range r.Flow {
		if p := f.StepParticles(r.IPS); len(p) > 0 {
			if err := r.Sim.AddParticles(p); err != nil {
				return err
			}
		}
	}
	for _, m := range r.Measure {
		if err := addFieldPoints(r.Sim, m, m.StepPoints()); err != nil {
			return err
		}
	}
	return nil
}
