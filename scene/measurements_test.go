package scene

import (
	"encoding/json"
	"testing"
)

func TestDecodeMeasureFeatureMoves(t *testing.T) {
	cases := []struct {
		raw   string
		moves bool
	}{
		{`{"type": "single point", "center": [0,0,0]}`, false},
		{`{"type": "tracer emitter", "center": [0,0,0]}`, false},
		{`{"type": "tracer blob", "center": [0,0,0], "radius": 1, "num": 8}`, true},
		{`{"type": "tracer line", "center": [0,0,0], "end": [1,0,0], "num": 4}`, true},
		{`{"type": "measurement line", "center": [0,0,0], "end": [1,0,0], "num": 4}`, false},
	}
	for _, c := range cases {
		m, err := decodeMeasureFeature(json.RawMessage(c.raw))
		if err != nil {
			t.Fatalf("decode %s: %v", c.raw, err)
		}
		if m.Moves() != c.moves {
			t.Errorf("%s: Moves() = %v, want %v", c.raw, m.Moves(), c.moves)
		}
	}
}

func TestMeasurementLineSampleCount(t *testing.T) {
	m, err := decodeMeasureFeature(json.RawMessage(
		`{"type": "measurement line", "center": [0,0,0], "end": [10,0,0], "num": 5}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := m.InitPoints()
	if len(p) != 15 {
		t.Fatalf("len(packet) = %d, want 15 (5 points * 3)", len(p))
	}
	if p[0] != 0 || p[12] != 10 {
		t.Errorf("endpoints = %g, %g, want 0, 10", p[0], p[12])
	}
}

func TestTracerEmitterOnlySteps(t *testing.T) {
	m, err := decodeMeasureFeature(json.RawMessage(`{"type": "tracer emitter", "center": [1,1,1]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p := m.InitPoints(); p != nil {
		t.Errorf("tracer emitter should not seed at init, got %v", p)
	}
	if p := m.StepPoints(); len(p) != 3 {
		t.Errorf("tracer emitter should drop one point per step, got %v", p)
	}
}
