// Package vtkexport flattens Points and Surfaces collections into the flat
// arrays an external VTK/XML writer would consume (spec 6.2). No
// serialization happens here — that writer is an external collaborator and
// out of scope. This generalizes the teacher's
// utils.TransferPositionData buffer-flattening idiom: copy a []Vec3 field
// into a flat []float32 slice. Each export call allocates fresh slices.
package vtkexport

import (
	"fmt"

	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

// PointsArrays flattens a Points collection into the (pos, vel, strength,
// radius) buffers a point-cloud VTK export wants, at world time t.
// Each slice is 3*n long for pos/vel/strength, n long for radius;
// Strength is nil for an inert collection.
type PointsArrays struct {
	Pos      []float32
	Vel      []float32
	Strength []float32
	Radius   []float32
}

// ExportPoints builds a PointsArrays for col at time t.
func ExportPoints(col *elements.Points, t float64) PointsArrays {
	n := col.N()
	out := PointsArrays{
		Pos:    make([]float32, 3*n),
		Vel:    make([]float32, 3*n),
		Radius: make([]float32, n),
	}
	transferVec3(out.Pos, worldPositions(col, t))
	transferVec3(out.Vel, col.U)
	if !col.IsInert() {
		out.Strength = make([]float32, 3*n)
		transferVec3(out.Strength, col.S)
	}
	copy(out.Radius, col.R)
	return out
}

func worldPositions(col *elements.Points, t float64) []vector.Vec3 {
	n := col.N()
	if col.MoveKind() != elements.BodyBound {
		return col.X
	}
	out := make([]vector.Vec3, n)
	for i := range out {
		out[i] = col.WorldPos(i, t)
	}
	return out
}

// SurfacesArrays flattens a Surfaces collection into the (pos, idx, vs,
// area) buffers a triangulated-mesh VTK export wants, at world time t.
type SurfacesArrays struct {
	Pos  []float32
	Idx  []int32
	VS   []float32
	Area []float32
}

// ExportSurfaces builds a SurfacesArrays for s at time t.
func ExportSurfaces(s *elements.Surfaces, t float64) (SurfacesArrays, error) {
	if err := s.ComputeFrames(t); err != nil {
		return SurfacesArrays{}, fmt.Errorf("vtkexport: %w", err)
	}

	nodes := make([]vector.Vec3, len(s.Node))
	for i, p := range s.Node {
		if s.Body != nil {
			nodes[i] = s.Body.Pose(t).Transform(p)
		} else {
			nodes[i] = p
		}
	}

	out := SurfacesArrays{
		Pos:  make([]float32, 3*len(nodes)),
		Idx:  make([]int32, 3*s.N()),
		VS:   make([]float32, 2*s.N()),
		Area: make([]float32, s.N()),
	}
	transferVec3(out.Pos, nodes)
	for i, tri := range s.Idx {
		out.Idx[3*i], out.Idx[3*i+1], out.Idx[3*i+2] = int32(tri[0]), int32(tri[1]), int32(tri[2])
	}
	for i, vs := range s.VS {
		out.VS[2*i], out.VS[2*i+1] = vs[0], vs[1]
	}
	copy(out.Area, s.Area)
	return out, nil
}

// transferVec3 copies src's components into dst (3*len(src) long), the
// same element-by-element buffer transfer the teacher performs with an
// unsafe pointer walk — done here with a plain index since the
// destination is already a Go slice, not a foreign graphics buffer.
func transferVec3(dst []float32, src []vector.Vec3) {
	for i, v := range src {
		dst[3*i], dst[3*i+1], dst[3*i+2] = v[0], v[1], v[2]
	}
}
