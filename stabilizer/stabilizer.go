// Package stabilizer wires the filters, DCM feedback law, wrench
// distributor, foot force-difference controller, and contact state machine
// into one per-tick pipeline. It is the orchestrator: it owns no I/O,
// spawns no goroutines, and never blocks in Run — the same
// single-threaded-loop discipline this codebase's other per-sample update
// pipelines enforce around their own tick.
package stabilizer

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/contact"
	"lipm-stabilizer-go/dcm"
	"lipm-stabilizer-go/fdc"
	"lipm-stabilizer-go/qp"
	"lipm-stabilizer-go/spatial"
	"lipm-stabilizer-go/tasks"
	"lipm-stabilizer-go/telemetry"
	"lipm-stabilizer-go/wrench"
)

// State is the orchestrator's lifecycle state.
type State int

const (
	Disabled State = iota
	Enabled
	Airborne
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case Airborne:
		return "airborne"
	default:
		return "unknown"
	}
}

// MinNetTotalForceZMP is the net vertical force below which a measured ZMP is
// considered degenerate. MinDSPressure is the minimum normal force per foot
// in double support; the wrench distributor applies the same 15 N bound.
const (
	MinNetTotalForceZMP = 1.0
	MinDSPressure       = 15.0
)

// FootMeasurement is one foot's sensed wrench and surface pose this tick.
type FootMeasurement struct {
	Wrench wrench.Wrench // in the surface frame
	Pose   spatial.Pose
}

// Stabilizer is the walking-stabilization control loop. Construct with New,
// drive with Run once per tick.
type Stabilizer struct {
	log  *logrus.Entry
	dt   float64
	mass float64

	state State
	cfg   config.Config

	law     *dcm.Law
	fdcCtrl *fdc.Controller

	contacts contact.Map
	zmpFrame contact.Frame

	ref         dcm.Reference
	measurement dcm.Measurement
	footMeas    map[contact.State]FootMeasurement

	lastResults        map[contact.State]wrench.Wrench
	feetBuf            []qp.Foot
	leftFootRatio      float64
	leftCoPAdmittance  spatial.Vec3
	rightCoPAdmittance spatial.Vec3
	measuredDCMv       spatial.Vec3
	measuredZMPv       spatial.Vec3
	measuredZMPOk      bool
	ticks              uint64

	hub *telemetry.Hub

	Tasks *tasks.Aggregate
}

// New constructs a Stabilizer for a robot of the given mass, ticking at dt
// seconds. Robot/kinematics handles are deliberately absent — those are
// external collaborators out of scope; the orchestrator only
// needs mass and dt to run its own control law.
func New(mass, dt float64) *Stabilizer {
	s := &Stabilizer{
		log:      logrus.WithField("component", "stabilizer"),
		dt:       dt,
		mass:     mass,
		law:      dcm.New(dt, mass),
		fdcCtrl:  fdc.New(dt),
		footMeas: make(map[contact.State]FootMeasurement, 2),
		Tasks: &tasks.Aggregate{
			CoM:    tasks.NewCoMTask(1, 1),
			Left:   tasks.NewFootCoPTask("left_foot", 1, 1),
			Right:  tasks.NewFootCoPTask("right_foot", 1, 1),
			Pelvis: tasks.NewOrientationTask("pelvis", 1, 1),
			Torso:  tasks.NewOrientationTask("torso", 1, 1),
		},
	}
	s.resetOrientationTasks()
	s.Reset()
	return s
}

// resetOrientationTasks points the pelvis/torso targets and measurements at
// the upright orientation, the stabilizer's own sense of "level" absent any
// externally supplied pelvis/torso reference (the pattern generator that
// would supply one is out of scope per spec.md §1). SetPelvisOrientation/
// SetTorsoOrientation override the measured side each tick; the target
// stays upright unless a caller mutates Tasks.Pelvis.Target/Tasks.Torso.Target
// directly.
func (s *Stabilizer) resetOrientationTasks() {
	s.Tasks.Pelvis.Target = spatial.IdentityRotation
	s.Tasks.Pelvis.Measured = spatial.IdentityRotation
	s.Tasks.Torso.Target = spatial.IdentityRotation
	s.Tasks.Torso.Measured = spatial.IdentityRotation
}

// Reset returns the stabilizer to its default state: disabled, default
// config, zeroed filters, empty contact map. Two successive calls produce
// identical observable state.
func (s *Stabilizer) Reset() {
	s.state = Disabled
	s.cfg = config.Default()
	s.law.Reset()
	s.fdcCtrl.Reset()
	s.contacts = contact.NewMap()
	s.zmpFrame = contact.Frame{}
	s.ref = dcm.Reference{}
	s.measurement = dcm.Measurement{}
	s.footMeas = make(map[contact.State]FootMeasurement, 2)
	s.lastResults = map[contact.State]wrench.Wrench{}
	s.leftFootRatio = 0.5
	s.leftCoPAdmittance = spatial.Vec3{}
	s.rightCoPAdmittance = spatial.Vec3{}
	s.measuredDCMv = spatial.Vec3{}
	s.measuredZMPv = spatial.Vec3{}
	s.measuredZMPOk = false
	s.ticks = 0
	s.resetOrientationTasks()
}

// Enable transitions Disabled -> Enabled: resets filters, snapshots the
// current config, and marks t=0.
func (s *Stabilizer) Enable() {
	s.law.Reset()
	s.law.Configure(s.cfg)
	s.fdcCtrl.Reset()
	s.ticks = 0
	s.state = Enabled
}

// Disable transitions any state -> Disabled: the stabilizer becomes a
// pass-through, tracking the reference with zero corrective wrench.
func (s *Stabilizer) Disable() {
	s.state = Disabled
}

// Configure replaces the stored configuration wholesale, clamping every
// range to its valid bounds.
func (s *Stabilizer) Configure(cfg config.Config) {
	s.cfg = *cfg.Clamp()
	s.law.Configure(s.cfg)
}

// Reconfigure re-applies the current configuration's clamps and pushes the
// clamped values into the DCM law. It takes no new values: Config returns a
// copy, so changes made to that copy reach the stabilizer only via Configure.
func (s *Stabilizer) Reconfigure() {
	s.cfg.Clamp()
	s.law.Configure(s.cfg)
}

// Config returns a copy of the current configuration.
func (s *Stabilizer) Config() config.Config { return s.cfg }

// Target sets the dynamic LIPM reference for the upcoming tick(s). Non-finite
// input is rejected and the previous reference retained.
func (s *Stabilizer) Target(com, comVel, comAccel, zmp spatial.Vec3) error {
	if !com.Finite() || !comVel.Finite() || !comAccel.Finite() || !zmp.Finite() {
		s.log.Warn("rejected non-finite target, keeping previous reference")
		return errors.New("invalid input: non-finite target")
	}
	s.ref = dcm.Reference{CoM: com, CoMVel: comVel, CoMAccel: comAccel, ZMP: zmp}
	return nil
}

// StaticTarget sets a static reference: zero velocity/acceleration, ZMP at
// the ground projection of com.
func (s *Stabilizer) StaticTarget(com spatial.Vec3) error {
	return s.Target(com, spatial.Zero3, spatial.Zero3, spatial.Vec3{X: com.X, Y: com.Y, Z: 0})
}

// SetContacts replaces the active contact map wholesale and recomputes the
// ZMP frame. An empty set is valid and transitions toward Airborne.
func (s *Stabilizer) SetContacts(m contact.Map) {
	s.contacts = m
	s.zmpFrame = contact.SelectZMPFrame(m, s.zmpFrame)
}

// SetMeasurement ingests this tick's estimated CoM position/velocity.
func (s *Stabilizer) SetMeasurement(com, comVel spatial.Vec3) {
	s.measurement = dcm.Measurement{CoM: com, CoMVel: comVel}
}

// SetFootMeasurement ingests one foot's sensed wrench and pose for this
// tick.
func (s *Stabilizer) SetFootMeasurement(state contact.State, m FootMeasurement) {
	s.footMeas[state] = m
}

// SetTelemetryHub wires h as the destination for this tick's diagnostics
// snapshot. Run's only interaction with h is a non-blocking broadcast; a nil
// hub (the default) disables telemetry entirely.
func (s *Stabilizer) SetTelemetryHub(h *telemetry.Hub) {
	s.hub = h
}

// SetPelvisOrientation ingests the estimator's measured pelvis orientation
// for this tick, tracked against Tasks.Pelvis.Target (upright unless a
// caller overrides it).
func (s *Stabilizer) SetPelvisOrientation(measured spatial.Rotation) {
	s.Tasks.Pelvis.Measured = measured
}

// SetTorsoOrientation ingests the estimator's measured torso orientation
// for this tick, tracked against Tasks.Torso.Target (upright unless a
// caller overrides it).
func (s *Stabilizer) SetTorsoOrientation(measured spatial.Rotation) {
	s.Tasks.Torso.Measured = measured
}

// InContact reports whether state currently has an active contact.
func (s *Stabilizer) InContact(state contact.State) bool { return s.contacts.In(state) }

// InDoubleSupport reports whether both feet are active.
func (s *Stabilizer) InDoubleSupport() bool { return s.contacts.DoubleSupport() }

// LeftFootRatio returns the last computed left/right vertical-force split
// target, in [0,1].
func (s *Stabilizer) LeftFootRatio() float64 { return s.leftFootRatio }

// AnchorFrame returns the current ZMP-expression frame.
func (s *Stabilizer) AnchorFrame() contact.Frame { return s.zmpFrame }

// MeasuredCoM returns the last ingested measured CoM position.
func (s *Stabilizer) MeasuredCoM() spatial.Vec3 { return s.measurement.CoM }

// MeasuredCoMVel returns the last ingested measured CoM velocity. Named
// distinctly from MeasuredCoM to sidestep the measuredCoMd()-returns-
// measuredCoM_ mixup flags as a likely bug upstream.
func (s *Stabilizer) MeasuredCoMVel() spatial.Vec3 { return s.measurement.CoMVel }

// MeasuredDCM returns the DCM computed from the last ingested measurement.
func (s *Stabilizer) MeasuredDCM() spatial.Vec3 { return s.measuredDCMv }

// MeasuredZMP returns the ZMP computed from the aggregate measured foot
// wrenches this tick, and whether it was well-defined (net vertical force
// at or above MinNetTotalForceZMP).
func (s *Stabilizer) MeasuredZMP() (spatial.Vec3, bool) { return s.measuredZMPv, s.measuredZMPOk }

// ZMP returns the reference ZMP for the current tick.
func (s *Stabilizer) ZMP() spatial.Vec3 { return s.ref.ZMP }

// State returns the current lifecycle state.
func (s *Stabilizer) State() State { return s.state }

func (s *Stabilizer) netMeasuredForce() (wrench.Wrench, bool) {
	var net wrench.Wrench
	found := false
	s.contacts.Each(func(state contact.State, c contact.Contact) {
		fm, ok := s.footMeas[state]
		if !ok {
			return
		}
		found = true
		net = net.Add(transportLocal(fm.Wrench, fm.Pose, s.zmpFrame))
	})
	return net, found
}

func transportLocal(w wrench.Wrench, from spatial.Pose, to contact.Frame) wrench.Wrench {
	// Position-only transport into the ZMP frame: moment picks up the
	// lever arm from `to`'s origin to `from`'s origin acting on the force.
	lever := from.Position.Sub(to.Origin)
	extra := lever.Cross(w.Force)
	return wrench.Wrench{Moment: w.Moment.Add(extra), Force: w.Force}
}

// Run advances the stabilizer by one tick through the full pipeline. It
// never panics or returns an error out of the control path itself;
// degraded conditions are logged and absorbed.
func (s *Stabilizer) Run() {
	defer s.publishTelemetry()
	s.ticks++

	s.cfg.Clamp()
	s.law.Configure(s.cfg)

	s.measuredDCMv = s.measurement.DCM(s.ref.Omega())

	net, haveAny := s.netMeasuredForce()
	s.measuredZMPOk = false
	if cop, ok := net.CoP(MinNetTotalForceZMP); ok {
		s.measuredZMPv = spatial.Vec3{X: cop.X + s.zmpFrame.Origin.X, Y: cop.Y + s.zmpFrame.Origin.Y}
		s.measuredZMPOk = true
	}

	airborne := !haveAny || net.Force.Z < MinNetTotalForceZMP || s.contacts.Airborne()
	switch {
	case s.state == Enabled && airborne:
		s.log.Debug("measured net force below threshold, transitioning to airborne")
		s.state = Airborne
	case s.state == Airborne && !airborne && s.contacts.Count() > 0:
		s.state = Enabled
	}

	s.zmpFrame = contact.SelectZMPFrame(s.contacts, s.zmpFrame)

	if s.state != Enabled {
		s.passThrough()
		return
	}

	s.leftFootRatio = computeLeftFootRatio(s.contacts, s.ref.ZMP)
	s.setSupportFootGains()

	vdcForce := s.fdcCtrl.VerticalDriftBias(s.cfg, s.mass, s.ref.CoM.Z, s.measurement.CoM.Z)
	wDes := s.law.DesiredWrench(s.cfg, s.ref, s.measuredDCMv, s.measurement.CoM, vdcForce)

	feet := s.buildFeet()
	if len(feet) == 0 {
		s.passThrough()
		return
	}

	results, err := qp.DistributeWrench(wDes, feet, s.cfg, s.leftFootRatio)
	if err != nil {
		s.log.WithError(err).Warn("wrench distributor reported infeasibility, reusing previous distribution")
		s.state = Airborne
		s.applyLastResults()
		return
	}
	for k := range s.lastResults {
		delete(s.lastResults, k)
	}
	for _, r := range results {
		s.lastResults[r.State] = r.Wrench
	}

	s.writeTargets()

	if s.contacts.DoubleSupport() {
		s.updateFootForceDifference()
		s.Tasks.Update()
	}
}

// publishTelemetry hands this tick's diagnostics to the wired hub, if any.
// Hub.Broadcast is itself a non-blocking channel send, so this never stalls
// the control loop regardless of how many (or how slow) viewers are
// attached.
func (s *Stabilizer) publishTelemetry() {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(telemetry.Snapshot{
		TimestampSec:  float64(s.ticks) * s.dt,
		State:         uint32(s.state),
		MeasuredDCM:   [3]float64{s.measuredDCMv.X, s.measuredDCMv.Y, s.measuredDCMv.Z},
		MeasuredZMP:   [3]float64{s.measuredZMPv.X, s.measuredZMPv.Y, s.measuredZMPv.Z},
		LeftFootRatio: s.leftFootRatio,
	})
}

func (s *Stabilizer) passThrough() {
	s.Tasks.CoM.Target = s.ref.CoM
	s.Tasks.CoM.TargetVel = s.ref.CoMVel
	s.Tasks.CoM.Measured = s.measurement.CoM
	s.Tasks.CoM.MeasuredVel = s.measurement.CoMVel
	s.Tasks.CoM.Admittance = s.cfg.CoMAdmittanceVec()

	s.contacts.Each(func(state contact.State, c contact.Contact) {
		task := s.footTask(state)
		task.TargetPose = c.AnklePose
		task.TargetCoP = spatial.Vec3{}
		task.CoPAdmittance = spatial.Vec3{}
	})
	s.Tasks.Update()
}

// buildFeet expresses each foot's pose in the surface (sole) frame, not the
// ankle frame: the CWC and the wrench the distributor solves for are both
// defined on the contact surface (spec.md §3, §4.2), and the ankle is
// typically offset from the sole by Contact.SurfaceToAnkle. Positions are
// taken relative to the ZMP-frame origin, the point the desired wrench is
// expressed at.
func (s *Stabilizer) buildFeet() []qp.Foot {
	feet := s.feetBuf[:0]
	s.contacts.Each(func(state contact.State, c contact.Contact) {
		pose := c.SurfacePose()
		pose.Position = pose.Position.Sub(s.zmpFrame.Origin)
		feet = append(feet, qp.Foot{
			State: state,
			Pose:  pose,
			Cone:  wrench.BuildCone(c.HalfLength, c.HalfWidth, c.Friction),
		})
	})
	s.feetBuf = feet
	return feet
}

func (s *Stabilizer) applyLastResults() {
	s.contacts.Each(func(state contact.State, c contact.Contact) {
		w, ok := s.lastResults[state]
		if !ok {
			return
		}
		s.writeFootTarget(state, c, w)
	})
	s.Tasks.Update()
}

func (s *Stabilizer) updateFootForceDifference() {
	l, lok := s.footMeas[contact.Left]
	r, rok := s.footMeas[contact.Right]
	if !lok || !rok {
		return
	}
	lc, rc := s.contacts.Get(contact.Left), s.contacts.Get(contact.Right)
	out := s.fdcCtrl.Update(s.cfg, fdc.Input{
		MeasuredForceL:  l.Wrench.Force.Z,
		MeasuredForceR:  r.Wrench.Force.Z,
		RefForceL:       s.lastResults[contact.Left].Force.Z,
		RefForceR:       s.lastResults[contact.Right].Force.Z,
		MeasuredHeightL: l.Pose.Position.Z,
		MeasuredHeightR: r.Pose.Position.Z,
		RefHeightL:      lc.AnklePose.Position.Z,
		RefHeightR:      rc.AnklePose.Position.Z,
	})
	s.Tasks.Left.TargetPose.Position.Z += out.VelZLeft * s.dt
	s.Tasks.Right.TargetPose.Position.Z += out.VelZRight * s.dt
}

func (s *Stabilizer) writeTargets() {
	s.Tasks.CoM.Target = s.ref.CoM
	s.Tasks.CoM.TargetVel = s.ref.CoMVel
	s.Tasks.CoM.Measured = s.measurement.CoM
	s.Tasks.CoM.MeasuredVel = s.measurement.CoMVel
	s.Tasks.CoM.Admittance = s.cfg.CoMAdmittanceVec()

	s.contacts.Each(func(state contact.State, c contact.Contact) {
		w, ok := s.lastResults[state]
		if !ok {
			return
		}
		s.writeFootTarget(state, c, w)
	})
	s.Tasks.Update()
}

// setSupportFootGains writes each foot's CoP admittance from config x ratio
// (no per-foot damping is set), spec.md §4.8 step 6: the foot bearing more of the
// reference ZMP's weight gets admittance scaled toward the full configured
// value, the other gets it scaled down, so a lightly-loaded foot in
// single-support-adjacent double support doesn't get the same compliant
// authority as the one actually carrying the robot's weight.
func (s *Stabilizer) setSupportFootGains() {
	s.leftCoPAdmittance = s.cfg.CoPAdmittanceVec().Scale(s.leftFootRatio)
	s.rightCoPAdmittance = s.cfg.CoPAdmittanceVec().Scale(1 - s.leftFootRatio)
}

func (s *Stabilizer) footGains(state contact.State) spatial.Vec3 {
	if state == contact.Left {
		return s.leftCoPAdmittance
	}
	return s.rightCoPAdmittance
}

func (s *Stabilizer) writeFootTarget(state contact.State, c contact.Contact, w wrench.Wrench) {
	task := s.footTask(state)
	task.TargetPose = c.AnklePose
	task.TargetWrench = w.Vector()
	if cop, ok := w.CoP(1e-6); ok {
		task.TargetCoP = c.ClampToSole(cop)
	}
	task.CoPAdmittance = s.footGains(state)
}

func (s *Stabilizer) footTask(state contact.State) *tasks.FootCoPTask {
	if state == contact.Left {
		return s.Tasks.Left
	}
	return s.Tasks.Right
}

// computeLeftFootRatio projects refZMP onto the line joining the two ankle
// projections and returns the normalized position (0 = fully on right foot,
// 1 = fully on left), per step 5. In single support it
// collapses to 1 (Left stance) or 0 (Right stance).
func computeLeftFootRatio(m contact.Map, refZMP spatial.Vec3) float64 {
	if m.DoubleSupport() {
		l := m.Get(contact.Left).AnklePose.GroundProjection()
		r := m.Get(contact.Right).AnklePose.GroundProjection()
		axis := r.Sub(l)
		lenSq := axis.Dot(axis)
		if lenSq < 1e-9 {
			return 0.5
		}
		t := refZMP.Sub(l).Dot(axis) / lenSq
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		return 1 - t
	}
	if foot, ok := m.SingleSupportFoot(); ok {
		if foot == contact.Left {
			return 1
		}
		return 0
	}
	return 0.5
}
