// Package elements implements the Collection data model (spec 3.2-3.4,
// 4.B): Points for Lagrangian/inert particle sets and Surfaces for
// reactive boundary panels, both stored as parallel arrays rather than a
// single particle struct (struct-of-arrays, following the teacher's
// fluid.ParticleSystem layout), plus the common capability trait every
// simulation loop queries regardless of concrete kind.
package elements

import (
	"omega3d.dev/omega3d/body"
	"omega3d.dev/omega3d/vector"
)

// ElemKind classifies what a Collection's strength represents (spec 3.2):
// Active elements carry free vorticity that convects and diffuses,
// Reactive elements (surfaces only) carry an unknown strength solved for
// by the BEM system, and Inert elements are passive tracers with no
// strength at all.
type ElemKind int

const (
	Active ElemKind = iota
	Reactive
	Inert
)

func (k ElemKind) String() string {
	switch k {
	case Active:
		return "active"
	case Reactive:
		return "reactive"
	case Inert:
		return "inert"
	default:
		return "unknown"
	}
}

// MoveKind classifies how a Collection's elements move between steps
// (spec 3.2): Lagrangian elements are carried by the local velocity
// field, BodyBound elements are carried rigidly by a referenced Body, and
// Fixed elements never move.
type MoveKind int

const (
	Lagrangian MoveKind = iota
	BodyBound
	Fixed
)

func (k MoveKind) String() string {
	switch k {
	case Lagrangian:
		return "lagrangian"
	case BodyBound:
		return "bodybound"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Packet7 is the flat [x,y,z,sx,sy,sz,r] x n transfer format used to move
// particles between collections (spec 4.F's shed/merge/split packets).
type Packet7 []float32

// Packet3 is a flat [x,y,z] x n position-only transfer format.
type Packet3 []float32

// Collection is the small capability trait every simulation-level query
// needs regardless of whether the concrete element set is Points or
// Surfaces (spec design note 9).
type Collection interface {
	N() int
	Kind() ElemKind
	MoveKind() MoveKind
	BodyRef() *body.Body
	IsInert() bool
	TotalCirculation(t float64) vector.Vec3
	TotalImpulse() vector.Vec3
	MaxElongation() float32
}
