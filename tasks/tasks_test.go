package tasks

import (
	"math"
	"testing"

	"lipm-stabilizer-go/spatial"
)

type fakeSolver struct {
	added   []string
	removed []string
}

func (f *fakeSolver) AddTask(name string, dim int) { f.added = append(f.added, name) }
func (f *fakeSolver) RemoveTask(name string)        { f.removed = append(f.removed, name) }

func TestCoMTaskUpdateComputesError(t *testing.T) {
	c := NewCoMTask(1, 1)
	c.Target = spatial.Vec3{X: 1, Y: 2, Z: 3}
	c.Measured = spatial.Vec3{X: 0.5}
	c.Update()
	e := c.Eval()
	if e[0] != 0.5 || e[1] != 2 || e[2] != 3 {
		t.Fatalf("unexpected eval: %v", e)
	}
}

func TestFootCoPTaskUpdateWritesTargetCoP(t *testing.T) {
	f := NewFootCoPTask("left", 1, 1)
	f.TargetCoP = spatial.Vec3{X: 0.02, Y: -0.01}
	f.Update()
	e := f.Eval()
	if e[3] != 0.02 || e[4] != -0.01 {
		t.Fatalf("expected CoP in eval[3:5], got %v", e)
	}
}

func TestOrientationTaskZeroErrorWhenAligned(t *testing.T) {
	o := NewOrientationTask("torso", 1, 1)
	o.Target = spatial.IdentityRotation
	o.Measured = spatial.IdentityRotation
	o.Update()
	for _, v := range o.Eval() {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("expected zero orientation error when aligned, got %v", o.Eval())
		}
	}
}

func TestAggregateEvalConcatenatesInOrder(t *testing.T) {
	a := &Aggregate{
		CoM:   NewCoMTask(1, 1),
		Left:  NewFootCoPTask("left", 1, 1),
		Right: NewFootCoPTask("right", 1, 1),
	}
	a.CoM.Target = spatial.Vec3{X: 9}
	a.Update()
	e := a.Eval()
	if len(e) != 3+6+6 {
		t.Fatalf("expected concatenated length 15, got %d", len(e))
	}
	if e[0] != 9 {
		t.Fatalf("expected CoM eval first, got %v", e[0])
	}
}

func TestAggregateAddToSolverRegistersAllLeaves(t *testing.T) {
	a := &Aggregate{
		CoM:   NewCoMTask(1, 1),
		Left:  NewFootCoPTask("left", 1, 1),
		Right: NewFootCoPTask("right", 1, 1),
	}
	s := &fakeSolver{}
	a.AddToSolver(s)
	if len(s.added) != 3 {
		t.Fatalf("expected 3 registrations, got %d: %v", len(s.added), s.added)
	}
}
