package scene

import (
	"encoding/json"
	"testing"
)

func TestUinfScalar(t *testing.T) {
	var u UinfSpec
	if err := json.Unmarshal([]byte(`1.5`), &u); err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if u.V[0] != 1.5 || u.V[1] != 0 || u.V[2] != 0 {
		t.Errorf("scalar Uinf = %v, want [1.5 0 0]", u.V)
	}
}

func TestUinfTriple(t *testing.T) {
	var u UinfSpec
	if err := json.Unmarshal([]byte(`[1, 2, 3]`), &u); err != nil {
		t.Fatalf("unmarshal triple: %v", err)
	}
	if u.V[0] != 1 || u.V[1] != 2 || u.V[2] != 3 {
		t.Errorf("triple Uinf = %v, want [1 2 3]", u.V)
	}
}

func TestRuntimeParamsPresence(t *testing.T) {
	var r RuntimeParams
	if err := json.Unmarshal([]byte(`{"maxSteps": 0, "autoStart": true}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !r.HasMaxSteps {
		t.Errorf("maxSteps: 0 should count as present")
	}
	if r.HasEndTime {
		t.Errorf("endTime absent should not be marked present")
	}
	if !r.AutoStart {
		t.Errorf("autoStart not decoded")
	}
}

func TestRuntimeParamsAbsent(t *testing.T) {
	var r RuntimeParams
	if err := json.Unmarshal([]byte(`{}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.HasMaxSteps || r.HasEndTime {
		t.Errorf("empty object should leave both stop conditions absent, got %+v", r)
	}
}

func TestBodyMotionFields(t *testing.T) {
	bs := BodySpec{
		Name:        "rotor",
		Axis:        [3]float32{0, 0, 1},
		AngularRate: 2.5,
	}
	m := bs.motion()
	if m.AngularRate != 2.5 {
		t.Errorf("angularRate = %g, want 2.5", m.AngularRate)
	}
	if m.Axis[2] != 1 {
		t.Errorf("axis = %v, want [0 0 1]", m.Axis)
	}
}
