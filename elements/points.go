package elements

import (
	"fmt"

	"omega3d.dev/omega3d/body"
	"omega3d.dev/omega3d/vector"
)

// Points is a collection of free particles: active vortons, passive
// tracers, or fixed measurement points, stored as parallel arrays (spec
// 3.3). S, GradU and E are left empty for inert points since they carry
// no strength.
type Points struct {
	Elem ElemKind
	Move MoveKind
	Body *body.Body

	X     []vector.Vec3
	S     []vector.Vec3
	R     []float32
	U     []vector.Vec3
	GradU []vector.Mat3
	E     []float32

	// maxStrength is the cached largest per-particle strength magnitude,
	// refreshed by UpdateMaxStrength at the end of a diffusion pass
	// (spec 4.E step 10) rather than recomputed on every query.
	maxStrength float32
}

// NewPoints builds an empty collection of the given kind.
func NewPoints(elem ElemKind, move MoveKind, b *body.Body) *Points {
	return &Points{Elem: elem, Move: move, Body: b}
}

// WorldPos returns the world-space position of particle i at time t: for
// Lagrangian and Fixed points this is just X[i]; for BodyBound points, X
// is stored in the referenced Body's local frame and is transformed
// through the Body's current pose, mirroring Surfaces' node storage.
func (p *Points) WorldPos(i int, t float64) vector.Vec3 {
	if p.Move != BodyBound || p.Body == nil {
		return p.X[i]
	}
	return p.Body.Pose(t).Transform(p.X[i])
}

func (p *Points) N() int               { return len(p.X) }
func (p *Points) Kind() ElemKind       { return p.Elem }
func (p *Points) MoveKind() MoveKind   { return p.Move }
func (p *Points) BodyRef() *body.Body  { return p.Body }
func (p *Points) IsInert() bool        { return p.Elem == Inert }

// AddNew appends particles from a packet7: [x,y,z,sx,sy,sz,r] repeated.
// Inert collections ignore the strength fields but still require them in
// the packet, keeping callers uniform across kinds (spec 4.F).
func (p *Points) AddNew(packet Packet7) error {
	if len(packet)%7 != 0 {
		return fmt.Errorf("elements: packet7 length %d not a multiple of 7", len(packet))
	}
	for i := 0; i+7 <= len(packet); i += 7 {
		r := packet[i+6]
		if r <= 0 {
			return fmt.Errorf("elements: non-positive radius %f in packet", r)
		}
		p.X = append(p.X, vector.Vec3{packet[i], packet[i+1], packet[i+2]})
		p.R = append(p.R, r)
		p.U = append(p.U, vector.Vec3{})
		p.E = append(p.E, 1.0)
		if !p.IsInert() {
			p.S = append(p.S, vector.Vec3{packet[i+3], packet[i+4], packet[i+5]})
			p.GradU = append(p.GradU, vector.Mat3{})
		}
	}
	return nil
}

// AddPositions appends inert points from a packet3 [x,y,z] x n, all
// sharing radius r (spec 4.F's add_field_points, which carries no
// per-point radius or strength).
func (p *Points) AddPositions(packet Packet3, r float32) error {
	if len(packet)%3 != 0 {
		return fmt.Errorf("elements: packet3 length %d not a multiple of 3", len(packet))
	}
	if r <= 0 {
		return fmt.Errorf("elements: non-positive radius %f", r)
	}
	for i := 0; i+3 <= len(packet); i += 3 {
		p.X = append(p.X, vector.Vec3{packet[i], packet[i+1], packet[i+2]})
		p.R = append(p.R, r)
		p.U = append(p.U, vector.Vec3{})
		p.E = append(p.E, 1.0)
	}
	return nil
}

// Resize truncates or zero-extends every parallel array to n elements.
func (p *Points) Resize(n int) {
	p.X = resizeVec3(p.X, n)
	p.R = resizeF32(p.R, n)
	p.U = resizeVec3(p.U, n)
	if n > len(p.E) {
		for len(p.E) < n {
			p.E = append(p.E, 1.0)
		}
	} else {
		p.E = p.E[:n]
	}
	if !p.IsInert() {
		p.S = resizeVec3(p.S, n)
		p.GradU = resizeMat3(p.GradU, n)
	}
}

func resizeVec3(s []vector.Vec3, n int) []vector.Vec3 {
	if n <= len(s) {
		return s[:n]
	}
	return append(s, make([]vector.Vec3, n-len(s))...)
}

func resizeMat3(s []vector.Mat3, n int) []vector.Mat3 {
	if n <= len(s) {
		return s[:n]
	}
	return append(s, make([]vector.Mat3, n-len(s))...)
}

func resizeF32(s []float32, n int) []float32 {
	if n <= len(s) {
		return s[:n]
	}
	return append(s, make([]float32, n-len(s))...)
}

// RemoveIndices deletes the particles at the given indices (assumed
// already sorted ascending, as produced by the diffusion merge pass),
// compacting the parallel arrays in place.
func (p *Points) RemoveIndices(idx []int) {
	if len(idx) == 0 {
		return
	}
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	w := 0
	for r := 0; r < p.N(); r++ {
		if drop[r] {
			continue
		}
		p.X[w] = p.X[r]
		p.R[w] = p.R[r]
		p.U[w] = p.U[r]
		p.E[w] = p.E[r]
		if !p.IsInert() {
			p.S[w] = p.S[r]
			p.GradU[w] = p.GradU[r]
		}
		w++
	}
	p.Resize(w)
}

// Append adds a single particle and returns its index.
func (p *Points) Append(x, s vector.Vec3, r float32) int {
	idx := p.N()
	p.X = append(p.X, x)
	p.R = append(p.R, r)
	p.U = append(p.U, vector.Vec3{})
	p.E = append(p.E, 1.0)
	if !p.IsInert() {
		p.S = append(p.S, s)
		p.GradU = append(p.GradU, vector.Mat3{})
	}
	return idx
}

// TotalCirculation is the vector sum of particle strengths (t is unused
// for Points, which carry no time-dependent motion of their own strength;
// it is part of the Collection trait because Surfaces need it).
func (p *Points) TotalCirculation(t float64) vector.Vec3 {
	var sum vector.Vec3
	if p.IsInert() {
		return sum
	}
	for _, s := range p.S {
		sum.Add(s)
	}
	return sum
}

// TotalImpulse is sum(x cross s), the linear impulse of the vorticity
// field represented by this collection (spec 4.B).
func (p *Points) TotalImpulse() vector.Vec3 {
	var sum vector.Vec3
	if p.IsInert() {
		return sum
	}
	for i := range p.X {
		sum.Add(vector.Cross(p.X[i], p.S[i]))
	}
	return sum
}

// MaxElongation is the largest per-particle elongation factor currently
// tracked, used by the simulation's initialization and divergence checks
// (spec 4.E).
func (p *Points) MaxElongation() float32 {
	var m float32
	for _, e := range p.E {
		if e > m {
			m = e
		}
	}
	return m
}

// UpdateMaxStrength recomputes the cached largest strength magnitude
// (spec 4.E step 10, "update each Collection's cached max-strength").
func (p *Points) UpdateMaxStrength() {
	var m float32
	for _, s := range p.S {
		if l := vector.Length(s); l > m {
			m = l
		}
	}
	p.maxStrength = m
}

// MaxStrength returns the cached value last set by UpdateMaxStrength.
func (p *Points) MaxStrength() float32 { return p.maxStrength }
