// Package tasks models the polymorphic tracking-objective contract every
// foot/CoM admittance target implements: update, addToSolver,
// removeFromSolver, eval, speed. Concrete leaves (CoM, per-foot CoP,
// orientation) plug into the downstream whole-body QP the stabilizer never
// constructs itself — only its targets. The aggregate concatenates leaf
// eval/speed vectors in a fixed order (CoM, Left, Right, then Pelvis, Torso
// and any extra tasks), the same
// layer-manager pattern of combining independently-updated sub-components
// into one ordered output used elsewhere in this codebase.
package tasks

import "lipm-stabilizer-go/spatial"

// Solver is the downstream whole-body QP's registration surface. The
// stabilizer never implements it — only calls it — keeping the QP itself
// out of scope.
type Solver interface {
	AddTask(name string, dim int)
	RemoveTask(name string)
}

// Task is the capability set every tracking objective exposes.
type Task interface {
	Name() string
	Update()
	AddToSolver(s Solver)
	RemoveFromSolver(s Solver)
	Eval() []float64
	Speed() []float64
}

// base holds the fields every leaf shares: name, stiffness, damping, and the
// last computed error/speed the aggregate reads.
type base struct {
	name      string
	stiffness float64
	damping   float64
	eval      []float64
	speed     []float64
}

func (b *base) Name() string      { return b.name }
func (b *base) Eval() []float64   { return b.eval }
func (b *base) Speed() []float64  { return b.speed }
func (b *base) AddToSolver(s Solver) {
	if s != nil {
		s.AddTask(b.name, len(b.eval))
	}
}
func (b *base) RemoveFromSolver(s Solver) {
	if s != nil {
		s.RemoveTask(b.name)
	}
}

// CoMTask tracks a target CoM position/velocity against a measured one.
type CoMTask struct {
	base
	Target       spatial.Vec3
	TargetVel    spatial.Vec3
	Measured     spatial.Vec3
	MeasuredVel  spatial.Vec3
	Admittance   spatial.Vec3
}

// NewCoMTask builds a CoM tracking task with the given stiffness/damping.
func NewCoMTask(stiffness, damping float64) *CoMTask {
	t := &CoMTask{}
	t.name, t.stiffness, t.damping = "com", stiffness, damping
	t.eval = make([]float64, 3)
	t.speed = make([]float64, 3)
	return t
}

// Update recomputes eval (position error) and speed (velocity error) from
// the current Target/Measured fields.
func (t *CoMTask) Update() {
	e := t.Target.Sub(t.Measured)
	v := t.TargetVel.Sub(t.MeasuredVel)
	t.eval[0], t.eval[1], t.eval[2] = e.X, e.Y, e.Z
	t.speed[0], t.speed[1], t.speed[2] = v.X, v.Y, v.Z
}

// FootCoPTask tracks a foot's target surface pose, CoP, and wrench: the
// per-foot admittance contract.
type FootCoPTask struct {
	base
	TargetPose     spatial.Pose
	TargetCoP      spatial.Vec3 // sole-frame
	TargetWrench   [6]float64
	CoPAdmittance  spatial.Vec3
	MeasuredPose   spatial.Pose
}

// NewFootCoPTask builds a foot CoP tracking task.
func NewFootCoPTask(name string, stiffness, damping float64) *FootCoPTask {
	t := &FootCoPTask{}
	t.name, t.stiffness, t.damping = name, stiffness, damping
	t.eval = make([]float64, 6)
	t.speed = make([]float64, 6)
	return t
}

// Update writes the 3D position error (orientation is not tracked here) to
// eval[0:3] and the sole-frame target CoP to eval[3:6]; speed[0:3] holds the
// CoP admittance gains and speed[3:6] is left unchanged.
func (t *FootCoPTask) Update() {
	e := t.TargetPose.Position.Sub(t.MeasuredPose.Position)
	t.eval[0], t.eval[1], t.eval[2] = e.X, e.Y, e.Z
	t.eval[3], t.eval[4], t.eval[5] = t.TargetCoP.X, t.TargetCoP.Y, t.TargetCoP.Z
	t.speed[0] = t.CoPAdmittance.X
	t.speed[1] = t.CoPAdmittance.Y
	t.speed[2] = t.CoPAdmittance.Z
}

// OrientationTask tracks a target orientation for the pelvis or torso.
type OrientationTask struct {
	base
	Target   spatial.Rotation
	Measured spatial.Rotation
}

// NewOrientationTask builds a pelvis/torso orientation task.
func NewOrientationTask(name string, stiffness, damping float64) *OrientationTask {
	t := &OrientationTask{}
	t.name, t.stiffness, t.damping = name, stiffness, damping
	t.eval = make([]float64, 3)
	t.speed = make([]float64, 3)
	return t
}

// Update recomputes the orientation error as the classic SO(3) vector-cross
// metric e = -1/2 * sum_i (row_meas_i x row_target_i), a small-angle-exact
// approximation used when only rotation matrices (not quaternions) are
// available.
func (t *OrientationTask) Update() {
	var e spatial.Vec3
	for i := 0; i < 3; i++ {
		e = e.Add(t.Measured.Rows[i].Cross(t.Target.Rows[i]))
	}
	e = e.Scale(-0.5)
	t.eval[0], t.eval[1], t.eval[2] = e.X, e.Y, e.Z
	t.speed[0], t.speed[1], t.speed[2] = 0, 0, 0
}

// Aggregate is the composite objective: CoM + two foot CoP tasks + pelvis
// and torso orientation tasks. Eval/Speed concatenate leaf vectors in the
// fixed order CoM, Left, Right, Pelvis, Torso, then Extra. Pelvis/Torso are
// nil-safe: an Aggregate built without them (the downstream whole-body QP
// is not always given an orientation objective) behaves exactly as if they
// were absent from the order. evalBuf/speedBuf are pre-sized once and
// reused across ticks so Eval/Speed stay allocation-free after the first
// call.
type Aggregate struct {
	CoM    *CoMTask
	Left   *FootCoPTask
	Right  *FootCoPTask
	Pelvis *OrientationTask
	Torso  *OrientationTask
	Extra  []Task

	evalBuf  []float64
	speedBuf []float64
}

// Update refreshes every leaf task.
func (a *Aggregate) Update() {
	a.CoM.Update()
	a.Left.Update()
	a.Right.Update()
	if a.Pelvis != nil {
		a.Pelvis.Update()
	}
	if a.Torso != nil {
		a.Torso.Update()
	}
	for _, t := range a.Extra {
		t.Update()
	}
}

// AddToSolver registers every leaf with the solver.
func (a *Aggregate) AddToSolver(s Solver) {
	a.CoM.AddToSolver(s)
	a.Left.AddToSolver(s)
	a.Right.AddToSolver(s)
	if a.Pelvis != nil {
		a.Pelvis.AddToSolver(s)
	}
	if a.Torso != nil {
		a.Torso.AddToSolver(s)
	}
	for _, t := range a.Extra {
		t.AddToSolver(s)
	}
}

// RemoveFromSolver unregisters every leaf from the solver.
func (a *Aggregate) RemoveFromSolver(s Solver) {
	a.CoM.RemoveFromSolver(s)
	a.Left.RemoveFromSolver(s)
	a.Right.RemoveFromSolver(s)
	if a.Pelvis != nil {
		a.Pelvis.RemoveFromSolver(s)
	}
	if a.Torso != nil {
		a.Torso.RemoveFromSolver(s)
	}
	for _, t := range a.Extra {
		t.RemoveFromSolver(s)
	}
}

// Eval concatenates CoM, Left, Right, Pelvis, Torso (then Extra) eval
// vectors in order, into a buffer reused across calls.
func (a *Aggregate) Eval() []float64 {
	buf := a.evalBuf[:0]
	buf = append(buf, a.CoM.Eval()...)
	buf = append(buf, a.Left.Eval()...)
	buf = append(buf, a.Right.Eval()...)
	if a.Pelvis != nil {
		buf = append(buf, a.Pelvis.Eval()...)
	}
	if a.Torso != nil {
		buf = append(buf, a.Torso.Eval()...)
	}
	for _, t := range a.Extra {
		buf = append(buf, t.Eval()...)
	}
	a.evalBuf = buf
	return a.evalBuf
}

// Speed concatenates CoM, Left, Right, Pelvis, Torso (then Extra) speed
// vectors in order, into a buffer reused across calls.
func (a *Aggregate) Speed() []float64 {
	buf := a.speedBuf[:0]
	buf = append(buf, a.CoM.Speed()...)
	buf = append(buf, a.Left.Speed()...)
	buf = append(buf, a.Right.Speed()...)
	if a.Pelvis != nil {
		buf = append(buf, a.Pelvis.Speed()...)
	}
	if a.Torso != nil {
		buf = append(buf, a.Torso.Speed()...)
	}
	for _, t := range a.Extra {
		buf = append(buf, t.Speed()...)
	}
	a.speedBuf = buf
	return a.speedBuf
}
