// Package scene decodes the JSON scene format (spec 4.G, 6.1) into the flow
// and measurement features, bodies and boundaries that seed a
// simulation.Simulation. Parsing uses encoding/json struct tags throughout,
// the same convention the one pack repo that loads a JSON-shaped simulation
// config (other_examples/BoltyTheDog-boltzmann-sim) uses: a flat Config
// struct with json tags, no schema-validation library.
package scene

import (
	"encoding/json"
	"fmt"

	"omega3d.dev/omega3d/body"
	"omega3d.dev/omega3d/vector"
)

// Scene is the top-level JSON document (spec 6.1). Every key is optional
// unless its field comment says otherwise.
type Scene struct {
	Description string `json:"description"`

	Runtime    RuntimeParams `json:"runtime"`
	FlowParams FlowParams    `json:"flowparams"`
	SimParams  SimParams     `json:"simparams"`

	Bodies         []BodySpec        `json:"bodies"`
	Boundaries     []BoundarySpec    `json:"boundaries"`
	FlowStructures []json.RawMessage `json:"flowstructures"`
	Measurements   []json.RawMessage `json:"measurements"`
}

// RuntimeParams controls the batch driver loop (spec 6.1, 6.3); zero values
// leave the corresponding stop condition disabled.
type RuntimeParams struct {
	MaxSteps    int
	EndTime     float64
	OutputDt    float64
	AutoStart   bool
	QuitOnStop  bool
	HasEndTime  bool
	HasMaxSteps bool
}

// UnmarshalJSON records which optional runtime fields were actually present,
// so Build can tell "endTime omitted" from "endTime: 0".
func (r *RuntimeParams) UnmarshalJSON(data []byte) error {
	type alias struct {
		MaxSteps   *int     `json:"maxSteps"`
		EndTime    *float64 `json:"endTime"`
		OutputDt   float64  `json:"outputDt"`
		AutoStart  bool     `json:"autoStart"`
		QuitOnStop bool     `json:"quitOnStop"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.MaxSteps != nil {
		r.MaxSteps = *a.MaxSteps
		r.HasMaxSteps = true
	}
	if a.EndTime != nil {
		r.EndTime = *a.EndTime
		r.HasEndTime = true
	}
	r.OutputDt, r.AutoStart, r.QuitOnStop = a.OutputDt, a.AutoStart, a.QuitOnStop
	return nil
}

// FlowParams carries Re and the ambient velocity (spec 6.1): Uinf accepts
// either a bare number (interpreted as the x-component) or a 3-vector.
type FlowParams struct {
	Re   float64  `json:"Re"`
	Uinf UinfSpec `json:"Uinf"`
}

// UinfSpec unmarshals a scalar or a [3]number JSON value into a Vec3.
type UinfSpec struct {
	V vector.Vec3
}

func (u *UinfSpec) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		u.V = vector.Vec3{float32(scalar), 0, 0}
		return nil
	}
	var triple [3]float64
	if err := json.Unmarshal(data, &triple); err != nil {
		return fmt.Errorf("scene: Uinf must be a number or a 3-element array: %w", err)
	}
	u.V = vector.Vec3{float32(triple[0]), float32(triple[1]), float32(triple[2])}
	return nil
}

// VRMParams maps onto diffusion.Config's tuning constants (spec 4.E step 1).
type VRMParams struct {
	Overlap        float32 `json:"overlap"`
	MergeThreshold float32 `json:"mergeThreshold"`
	IgnoreThresh   float32 `json:"ignoreThreshold"`
	InnerLayer     float32 `json:"innerLayer"`
	ShedOffset     float32 `json:"shedOffset"`
}

// SimParams carries the fixed timestep and viscous-mode selection (spec
// 6.1). IPS overrides the inter-particle spacing flow features use to seed
// lattice-based structures; when absent, Build derives it from the VRM
// nominal spacing (sigma_nom) when viscous, or falls back to a constant.
// AMR is accepted but not parsed further — the spec leaves its shape
// unspecified ("AMR?: {...}") and no [MODULE] names an AMR algorithm.
type SimParams struct {
	NominalDt    float64         `json:"nominalDt"`
	Viscous      string          `json:"viscous"` // "vrm" | "none"
	AdaptiveSize bool            `json:"adaptiveSize"`
	IPS          *float32        `json:"ips"`
	VRM          *VRMParams      `json:"VRM"`
	AMR          json.RawMessage `json:"AMR"`
	Core         string          `json:"core"` // "rosenhead-moore" | "compact-exponential"
}

// BodySpec describes one node of the kinematic tree (spec 6.1's
// "bodies: array of { name, parent?, ... }"), carrying a prescribed rigid
// Motion (spec 3.2). A body with no motion fields is stationary.
type BodySpec struct {
	Name        string     `json:"name"`
	Parent      string     `json:"parent"`
	LinearVel   [3]float32 `json:"linearVelocity"`
	Center      [3]float32 `json:"center"`
	Axis        [3]float32 `json:"axis"`
	AngularRate float64    `json:"angularRate"`
}

func (b BodySpec) motion() body.Motion {
	return body.Motion{
		LinearVelocity: vector.Vec3{b.LinearVel[0], b.LinearVel[1], b.LinearVel[2]},
		Center:         vector.Vec3{b.Center[0], b.Center[1], b.Center[2]},
		Axis:           vector.Vec3{b.Axis[0], b.Axis[1], b.Axis[2]},
		AngularRate:    b.AngularRate,
	}
}

// BoundarySpec describes one reactive surface (spec 6.1's "boundaries:
// array ... referencing a body by name and providing geometry"). External
// mesh-file geometry is an explicit Non-goal; the one primitive supported
// here is a flat rectangular plate, gridded into nx*ny*2 triangles, enough
// to drive spec 8.3 scenario 4 (flat-plate shedding).
type BoundarySpec struct {
	Body   string     `json:"body"`
	Type   string     `json:"type"` // currently only "plate"
	Center [3]float32 `json:"center"`
	Normal [3]float32 `json:"normal"`
	Size   [2]float32 `json:"size"` // width along a tangent, height along the other
	Nx     int        `json:"nx"`
	Ny     int        `json:"ny"`
	BC     [2]float32 `json:"bc"`
}
