package scene

import (
	"fmt"

	"omega3d.dev/omega3d/vector"
)

// mesh builds the triangulated node/index arrays for this boundary's
// primitive. External mesh-file loading is an explicit Non-goal (spec 1);
// "plate" is the one primitive needed to drive spec 8.3 scenario 4
// (flat-plate shedding): a flat rectangular grid of panels centered at
// Center, spanning Size in the plane normal to Normal.
func (bd BoundarySpec) mesh() ([]vector.Vec3, [][3]int, error) {
	switch bd.Type {
	case "", "plate":
		return bd.plateMesh()
	default:
		return nil, nil, fmt.Errorf("scene: boundary type %q not recognized", bd.Type)
	}
}

func (bd BoundarySpec) plateMesh() ([]vector.Vec3, [][3]int, error) {
	nx, ny := bd.Nx, bd.Ny
	if nx <= 0 {
		nx = 4
	}
	if ny <= 0 {
		ny = 4
	}
	normal := vector.Vec3{bd.Normal[0], bd.Normal[1], bd.Normal[2]}
	if vector.LengthSq(normal) == 0 {
		normal = vector.Vec3{0, 0, 1}
	}
	normal = vector.Normalize(normal)
	b1, b2 := onb(normal)
	center := vector.Vec3{bd.Center[0], bd.Center[1], bd.Center[2]}
	w, h := bd.Size[0], bd.Size[1]
	if w <= 0 || h <= 0 {
		return nil, nil, fmt.Errorf("scene: plate boundary requires positive size")
	}

	nodes := make([]vector.Vec3, 0, (nx+1)*(ny+1))
	idx := func(i, j int) int { return i*(ny+1) + j }
	for i := 0; i <= nx; i++ {
		u := w * (float32(i)/float32(nx) - 0.5)
		for j := 0; j <= ny; j++ {
			v := h * (float32(j)/float32(ny) - 0.5)
			p := vector.Add(center, vector.Add(vector.Scale(b1, u), vector.Scale(b2, v)))
			nodes = append(nodes, p)
		}
	}

	var tris [][3]int
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return nodes, tris, nil
}
