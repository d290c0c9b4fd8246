package scene

import "testing"

func TestPlateMeshCounts(t *testing.T) {
	bd := BoundarySpec{
		Type:   "plate",
		Center: [3]float32{0, 0, 0},
		Normal: [3]float32{0, 0, 1},
		Size:   [2]float32{2, 2},
		Nx:     3,
		Ny:     2,
	}
	nodes, tris, err := bd.mesh()
	if err != nil {
		t.Fatalf("mesh: %v", err)
	}
	if len(nodes) != (3+1)*(2+1) {
		t.Errorf("len(nodes) = %d, want %d", len(nodes), (3+1)*(2+1))
	}
	if len(tris) != 2*3*2 {
		t.Errorf("len(tris) = %d, want %d", len(tris), 2*3*2)
	}
	for _, tri := range tris {
		for _, idx := range tri {
			if idx < 0 || idx >= len(nodes) {
				t.Fatalf("triangle index %d out of range [0,%d)", idx, len(nodes))
			}
		}
	}
}

func TestPlateMeshRejectsZeroSize(t *testing.T) {
	bd := BoundarySpec{Type: "plate", Normal: [3]float32{0, 0, 1}}
	if _, _, err := bd.mesh(); err == nil {
		t.Errorf("zero-size plate should error")
	}
}

func TestUnknownBoundaryType(t *testing.T) {
	bd := BoundarySpec{Type: "mesh-file"}
	if _, _, err := bd.mesh(); err == nil {
		t.Errorf("unsupported boundary type should error, not silently ignore")
	}
}
