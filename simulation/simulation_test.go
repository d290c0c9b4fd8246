package simulation

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"omega3d.dev/omega3d/elements"
	"omega3d.dev/omega3d/vector"
)

func newSim() *Simulation {
	return New(&bytes.Buffer{}, &bytes.Buffer{})
}

// spec 8.3 scenario 5: empty scene refuses to start.
func TestCheckInitializationRejectsEmptyScene(t *testing.T) {
	sim := newSim()
	if err := sim.CheckInitialization(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("CheckInitialization() = %v, want ErrConfiguration", err)
	}
}

// spec 8.3 scenario 1, driven through the Simulation surface rather than
// convection directly.
func TestStepSingleParticleSelfConvection(t *testing.T) {
	sim := newSim()
	sim.SetDt(0.01)
	sim.SetFreestream(vector.Vec3{1, 0, 0})
	if err := sim.AddParticles(elements.Packet7{0, 0, 0, 0, 0, 1, 0.1}); err != nil {
		t.Fatalf("AddParticles: %v", err)
	}
	if err := sim.CheckInitialization(); err != nil {
		t.Fatalf("CheckInitialization: %v", err)
	}

	for i := 0; i < 100; i++ {
		if err := sim.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	got := sim.primary.X[0]
	want := vector.Vec3{1.0, 0, 0}
	if d := vector.Length(vector.Sub(got, want)); d > 1e-6 {
		t.Errorf("final position = %v, want %v within 1e-6 (diff %g)", got, want, d)
	}
}

func TestTestVsStopMaxSteps(t *testing.T) {
	sim := newSim()
	sim.SetDt(0.01)
	sim.SetStopConditions(3, true, 0, false)
	if sim.TestVsStop() {
		t.Fatalf("TestVsStop() true at nstep=0")
	}
	sim.AddParticles(elements.Packet7{0, 0, 0, 0, 0, 1, 0.1})
	for i := 0; i < 3; i++ {
		if sim.TestVsStop() {
			t.Fatalf("TestVsStop() true before reaching maxSteps (step %d)", i)
		}
		if err := sim.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if !sim.TestVsStop() {
		t.Errorf("TestVsStop() false after reaching maxSteps")
	}
}

func TestTestVsStopEndTime(t *testing.T) {
	sim := newSim()
	sim.SetDt(0.1)
	sim.SetStopConditions(0, false, 0.25, true)
	sim.AddParticles(elements.Packet7{0, 0, 0, 0, 0, 1, 0.1})
	for i := 0; i < 2; i++ {
		if sim.TestVsStop() {
			t.Fatalf("TestVsStop() true too early (step %d)", i)
		}
		sim.Step()
	}
	if !sim.TestVsStop() {
		t.Errorf("TestVsStop() false once time+0.5dt >= endTime")
	}
}

// spec 8.3 scenario 6: two consecutive async steps without an
// intervening poll must be rejected.
func TestAsyncStepRejectsOverlap(t *testing.T) {
	sim := newSim()
	sim.SetDt(0.01)
	sim.AddParticles(elements.Packet7{0, 0, 0, 0, 0, 1, 0.1})

	if err := sim.AsyncStep(); err != nil {
		t.Fatalf("first AsyncStep: %v", err)
	}
	if err := sim.AsyncStep(); !errors.Is(err, ErrStepInFlight) {
		t.Fatalf("second AsyncStep() = %v, want ErrStepInFlight", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		done, err := sim.PollStepDone()
		if done {
			if err != nil {
				t.Fatalf("async step failed: %v", err)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("async step never completed")
		default:
		}
	}

	if err := sim.AsyncStep(); err != nil {
		t.Fatalf("AsyncStep after poll done: %v", err)
	}
	for {
		done, _ := sim.PollStepDone()
		if done {
			break
		}
	}
}

func TestResetClearsState(t *testing.T) {
	sim := newSim()
	sim.SetDt(0.01)
	sim.AddParticles(elements.Packet7{0, 0, 0, 0, 0, 1, 0.1})
	sim.Step()
	sim.Reset()

	if err := sim.CheckInitialization(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("CheckInitialization() after Reset = %v, want ErrConfiguration (empty scene)", err)
	}
}
