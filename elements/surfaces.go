package elements

import (
	"fmt"

	"omega3d.dev/omega3d/body"
	"omega3d.dev/omega3d/core"
	"omega3d.dev/omega3d/vector"
)

// Surfaces is a triangulated reactive boundary: a node list in the
// referenced Body's local frame plus triangle index triples, with
// per-panel tangent/normal frames, areas, sheet strengths and boundary
// conditions rebuilt every step from the Body's current pose (spec
// 3.4, 4.C).
type Surfaces struct {
	Elem ElemKind
	Move MoveKind
	Body *body.Body

	// Node is the panel mesh in the Body's local frame; Idx triples index
	// into Node to form each triangular panel.
	Node []vector.Vec3
	Idx  [][3]int

	// Per-panel quantities, rebuilt by ComputeFrames at the current time.
	X1, X2, Normal []vector.Vec3
	Area           []float32

	// VS is the panel's piecewise-constant vortex sheet strength in the
	// (x1, x2) tangential basis; BC is the prescribed tangential velocity
	// in the same basis that the BEM solve makes the total velocity match.
	VS []vector.Vec2
	BC []vector.Vec2
}

// NewSurfaces builds an empty reactive surface bound to b.
func NewSurfaces(b *body.Body) *Surfaces {
	return &Surfaces{Elem: Reactive, Move: BodyBound, Body: b}
}

func (s *Surfaces) N() int              { return len(s.Idx) }
func (s *Surfaces) Kind() ElemKind      { return s.Elem }
func (s *Surfaces) MoveKind() MoveKind  { return s.Move }
func (s *Surfaces) BodyRef() *body.Body { return s.Body }
func (s *Surfaces) IsInert() bool       { return s.Elem == Inert }

// AddPanel appends a triangular panel referencing three existing node
// indices, along with its initial sheet strength and boundary condition.
func (s *Surfaces) AddPanel(i0, i1, i2 int, vs, bc vector.Vec2) error {
	n := len(s.Node)
	if i0 < 0 || i0 >= n || i1 < 0 || i1 >= n || i2 < 0 || i2 >= n {
		return fmt.Errorf("elements: panel node index out of range [0,%d)", n)
	}
	s.Idx = append(s.Idx, [3]int{i0, i1, i2})
	s.VS = append(s.VS, vs)
	s.BC = append(s.BC, bc)
	return nil
}

// worldVerts returns the world-space vertices of panel i at time t.
func (s *Surfaces) worldVerts(i int, t float64) (v0, v1, v2 vector.Vec3) {
	v0, v1, v2 = s.Node[s.Idx[i][0]], s.Node[s.Idx[i][1]], s.Node[s.Idx[i][2]]
	if s.Body == nil {
		return v0, v1, v2
	}
	pose := s.Body.Pose(t)
	return pose.Transform(v0), pose.Transform(v1), pose.Transform(v2)
}

// Centroid is panel i's world-space centroid at time t.
func (s *Surfaces) Centroid(i int, t float64) vector.Vec3 {
	v0, v1, v2 := s.worldVerts(i, t)
	return vector.Scale(vector.Add(vector.Add(v0, v1), v2), 1.0/3.0)
}

// Panel builds a core.Panel for panel i using its currently-solved sheet
// strength. ComputeFrames must have been called at the same time t first.
func (s *Surfaces) Panel(i int, t float64) core.Panel {
	return s.UnitPanel(i, s.VS[i], t)
}

// UnitPanel builds a core.Panel for panel i with sheet strength vs in the
// panel's (x1, x2) tangential basis, overriding whatever is currently
// stored in VS. Used by the BEM assembly to probe each panel's influence
// coefficient for a unit strength in each tangential direction.
func (s *Surfaces) UnitPanel(i int, vs vector.Vec2, t float64) core.Panel {
	v0, v1, v2 := s.worldVerts(i, t)
	sheet := vector.Add(vector.Scale(s.X1[i], vs[0]), vector.Scale(s.X2[i], vs[1]))
	return core.Panel{V0: v0, V1: v1, V2: v2, Strength: vector.Scale(sheet, s.Area[i])}
}

// ComputeFrames rebuilds the per-panel tangent/normal frame and area from
// the current node positions at time t (spec 4.C step 1). It returns an
// error if any panel has collapsed to zero area.
func (s *Surfaces) ComputeFrames(t float64) error {
	n := len(s.Idx)
	s.X1 = resizeVec3(s.X1, n)
	s.X2 = resizeVec3(s.X2, n)
	s.Normal = resizeVec3(s.Normal, n)
	s.Area = resizeF32(s.Area, n)

	for i := 0; i < n; i++ {
		v0, v1, v2 := s.worldVerts(i, t)
		e1 := vector.Sub(v1, v0)
		e2 := vector.Sub(v2, v0)
		cr := vector.Cross(e1, e2)
		area := 0.5 * vector.Length(cr)
		if area <= 1e-12 {
			return fmt.Errorf("elements: panel %d degenerate (area %g)", i, area)
		}
		normal := vector.Normalize(cr)
		x1 := vector.Normalize(e1)
		x2 := vector.Normalize(vector.Cross(normal, x1))
		s.Normal[i], s.X1[i], s.X2[i], s.Area[i] = normal, x1, x2, area
	}
	return nil
}

// RepresentAsParticles converts every panel into an equivalent point
// vortex, offset outward along its normal by offset and tagged with
// radius vDelta, for shedding into a Points collection (spec 4.E step 3 /
// 4.F).
func (s *Surfaces) RepresentAsParticles(offset, vDelta float32, t float64) Packet7 {
	out := make(Packet7, 0, len(s.Idx)*7)
	for i := range s.Idx {
		c := vector.Add(s.Centroid(i, t), vector.Scale(s.Normal[i], offset))
		sheet := vector.Add(vector.Scale(s.X1[i], s.VS[i][0]), vector.Scale(s.X2[i], s.VS[i][1]))
		strength := vector.Scale(sheet, s.Area[i])
		out = append(out, c[0], c[1], c[2], strength[0], strength[1], strength[2], vDelta)
	}
	return out
}

// TotalCirculation is the vector sum of panel sheet strengths (expressed
// in world tangential components, times area), plus the circulation
// implied by the body's own rigid rotation at time t.
func (s *Surfaces) TotalCirculation(t float64) vector.Vec3 {
	var sum vector.Vec3
	for i := range s.Idx {
		sheet := vector.Add(vector.Scale(s.X1[i], s.VS[i][0]), vector.Scale(s.X2[i], s.VS[i][1]))
		sum.Add(vector.Scale(sheet, s.Area[i]))
	}
	sum.Add(s.BodyCirculation(t))
	return sum
}

// BodyCirculation is the circulation a rigidly rotating body implies
// through its own boundary: for v = omega x r, curl(v) = 2*omega, so by
// Stokes' theorem the circulation around any loop bounding this surface
// is 2*omega . areaVector, reported as a vector along the rotation axis.
func (s *Surfaces) BodyCirculation(t float64) vector.Vec3 {
	if s.Body == nil {
		return vector.Vec3{}
	}
	_, angular := s.Body.Velocity(t)
	if vector.LengthSq(angular) == 0 {
		return vector.Vec3{}
	}
	var areaVec vector.Vec3
	for i := range s.Area {
		areaVec.Add(vector.Scale(s.Normal[i], s.Area[i]))
	}
	axis := vector.Normalize(angular)
	mag := 2.0 * vector.Dot(angular, areaVec)
	return vector.Scale(axis, mag)
}

// TotalImpulse is sum(centroid cross strength) over panels at t=0, used
// only as a diagnostic baseline; callers needing the time-accurate value
// should integrate panel centroids at their own t via Centroid+Panel.
func (s *Surfaces) TotalImpulse() vector.Vec3 {
	var sum vector.Vec3
	for i := range s.Idx {
		p := s.Panel(i, 0)
		c := s.Centroid(i, 0)
		sum.Add(vector.Cross(c, p.Strength))
	}
	return sum
}

// MaxElongation is always 0 for surfaces: panels do not stretch.
func (s *Surfaces) MaxElongation() float32 { return 0 }

// MaxBCValue is the largest boundary-condition component magnitude
// across all panels, used to report BEM solve quality (spec 4.B).
func (s *Surfaces) MaxBCValue() float32 {
	var m float32
	for _, bc := range s.BC {
		for _, v := range bc {
			if v < 0 {
				v = -v
			}
			if v > m {
				m = v
			}
		}
	}
	return m
}
