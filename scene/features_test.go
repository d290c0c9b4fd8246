package scene

import (
	"encoding/json"
	"testing"

	"omega3d.dev/omega3d/vector"
)

func TestDecodeFlowFeatureEnabledDefault(t *testing.T) {
	f, err := decodeFlowFeature(json.RawMessage(`{"type": "single particle", "center": [1,2,3], "strength": [0,0,1]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !f.Enabled() {
		t.Errorf("enabled should default to true when the key is absent")
	}
}

func TestDecodeFlowFeatureEnabledExplicitFalse(t *testing.T) {
	f, err := decodeFlowFeature(json.RawMessage(`{"type": "single particle", "enabled": false}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Enabled() {
		t.Errorf("enabled: false should be honored")
	}
	if p := f.InitParticles(0.1); p != nil {
		t.Errorf("disabled feature should seed nothing, got %v", p)
	}
}

func TestDecodeFlowFeatureUnknownType(t *testing.T) {
	if _, err := decodeFlowFeature(json.RawMessage(`{"type": "nonsense"}`)); err == nil {
		t.Errorf("unrecognized type should error")
	}
}

func TestSingleParticleInitParticles(t *testing.T) {
	f, err := decodeFlowFeature(json.RawMessage(`{"type": "single particle", "center": [1,2,3], "strength": [4,5,6]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := f.InitParticles(0.1)
	want := []float32{1, 2, 3, 4, 5, 6, 0}
	if len(p) != 7 {
		t.Fatalf("len(packet) = %d, want 7", len(p))
	}
	for i, w := range want {
		if p[i] != w {
			t.Errorf("packet[%d] = %g, want %g", i, p[i], w)
		}
	}
}

func TestParticleEmitterOnlyStepsNotInits(t *testing.T) {
	f, err := decodeFlowFeature(json.RawMessage(`{"type": "particle emitter", "center": [0,0,0], "strength": [1,0,0]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p := f.InitParticles(0.1); p != nil {
		t.Errorf("particle emitter should not seed at init, got %v", p)
	}
	if p := f.StepParticles(0.1); len(p) != 7 {
		t.Errorf("particle emitter should emit one particle per step, got %v", p)
	}
}

func TestVortexBlobConservesStrength(t *testing.T) {
	f, err := decodeFlowFeature(json.RawMessage(
		`{"type": "vortex blob", "center": [0,0,0], "strength": [0,0,1], "radius": 1.0, "softness": 0.2}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := f.InitParticles(0.2)
	if len(p)%7 != 0 || len(p) == 0 {
		t.Fatalf("unexpected packet length %d", len(p))
	}
	var total [3]float32
	for i := 0; i < len(p); i += 7 {
		total[0] += p[i+3]
		total[1] += p[i+4]
		total[2] += p[i+5]
	}
	if diff := total[2] - 1; diff > 1e-3 || diff < -1e-3 {
		t.Errorf("integrated strength z = %g, want ~1", total[2])
	}
}

func TestSingularRingTangentStrength(t *testing.T) {
	f, err := decodeFlowFeature(json.RawMessage(
		`{"type": "singular ring", "center": [0,0,0], "normal": [0,0,1], "major radius": 1.0, "circulation": 1.0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := f.InitParticles(0.2)
	if len(p) == 0 || len(p)%7 != 0 {
		t.Fatalf("unexpected packet length %d", len(p))
	}
	// every particle should sit at distance ~1 from the origin in the xy-plane
	for i := 0; i < len(p); i += 7 {
		x, y, z := p[i], p[i+1], p[i+2]
		r := x*x + y*y
		if r < 0.9*0.9 || r > 1.1*1.1 {
			t.Errorf("particle at (%g,%g,%g) not on ring of radius 1", x, y, z)
		}
		if z != 0 {
			t.Errorf("ring in the z=0 plane should have z=0 points, got %g", z)
		}
		sx, sy, sz := p[i+3], p[i+4], p[i+5]
		if d := x*sx + y*sy + z*sz; d > 1e-4 || d < -1e-4 {
			t.Errorf("particle at (%g,%g,%g) has strength (%g,%g,%g) not tangent to the ring", x, y, z, sx, sy, sz)
		}
	}
}

func TestOnbOrthonormal(t *testing.T) {
	cases := []vector.Vec3{{0, 0, 1}, {0, 0, -1}, {1, 0, 0}, vector.Normalize(vector.Vec3{0.5, 0.5, 0.707})}
	for _, n := range cases {
		b1, b2 := onb(n)
		if d := vector.Dot(b1, b2); d > 1e-4 || d < -1e-4 {
			t.Errorf("onb(%v) not orthogonal: b1.b2 = %g", n, d)
		}
	}
}
