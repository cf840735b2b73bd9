// Package dcm implements the divergent-component-of-motion feedback law: it
// turns a DCM tracking error into a desired resultant contact wrench
// expressed at the ZMP-frame origin. The filter wiring follows the same
// pipeline style used elsewhere in this codebase of feeding raw
// measurements through a small chain of stateful stages before producing
// an output.
package dcm

import (
	"math"

	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/filters"
	"lipm-stabilizer-go/spatial"
	"lipm-stabilizer-go/wrench"
)

// Gravity is g.
const Gravity = 9.80665

// MaxAverageDCMError is the dcmIntegrator's saturation bound.
const MaxAverageDCMError = 0.05

// Reference is the LIPM reference state produced upstream.
type Reference struct {
	CoM         spatial.Vec3 // c*
	CoMVel      spatial.Vec3 // ċ*
	CoMAccel    spatial.Vec3 // c̈*
	ZMP         spatial.Vec3 // z*
}

// Omega returns the LIPM natural frequency ω = sqrt(g/h), h = c*.z - z*.z.
func (r Reference) Omega() float64 {
	h := r.CoM.Z - r.ZMP.Z
	if h <= 1e-6 {
		h = 1e-6
	}
	return math.Sqrt(Gravity / h)
}

// DCM returns the reference divergent component of motion ξ* = c* + ċ*/ω.
func (r Reference) DCM() spatial.Vec3 {
	w := r.Omega()
	return r.CoM.Add(r.CoMVel.Scale(1 / w))
}

// Measurement is the estimator-supplied state fed into run() each tick.
type Measurement struct {
	CoM    spatial.Vec3 // c
	CoMVel spatial.Vec3 // ċ
}

// DCM returns the measured divergent component of motion ξ = c + ċ/ω, given
// the reference's natural frequency.
func (m Measurement) DCM(omega float64) spatial.Vec3 {
	return m.CoM.Add(m.CoMVel.Scale(1 / omega))
}

// Law owns the two stateful filters (integrator, derivator) that feed the
// feedback law. It is a value-type component with no other dependency,
// constructed once at stabilizer startup and reset on enable().
type Law struct {
	integrator *filters.ExponentialMovingAverage
	derivator  *filters.StationaryOffsetFilter
	mass       float64
}

// New builds a Law pre-sized for dt, with mass the robot's total mass (kg).
func New(dt, mass float64) *Law {
	return &Law{
		integrator: filters.NewExponentialMovingAverage(15, dt, spatial.Zero3),
		derivator:  filters.NewStationaryOffsetFilter(1, dt),
		mass:       mass,
	}
}

// Reset zeros both filters, as enable() requires.
func (l *Law) Reset() {
	l.integrator.Reset(spatial.Zero3)
	l.derivator.Reset(spatial.Zero3)
}

// Configure applies the integrator/derivator time constants and integrator
// saturation from cfg; cfg is assumed already clamped.
func (l *Law) Configure(cfg config.Config) {
	l.integrator.SetTimeConstant(cfg.DCMIntegratorTimeConstant)
	l.integrator.SetSaturation(spatial.Vec3{X: MaxAverageDCMError, Y: MaxAverageDCMError, Z: MaxAverageDCMError})
	l.derivator.SetTimeConstant(cfg.DCMDerivatorTimeConstant)
}

// AverageError returns the integrator's current output ē, exposed for the
// DCM convergence law below.
func (l *Law) AverageError() spatial.Vec3 { return l.integrator.Eval() }

// DesiredWrench computes the resultant wrench at the ZMP-frame origin for
// this tick. measuredCoM is the measured CoM position used by the
// horizontal DCM feedback term; vdcForce is the caller's own
// vertical-drift-compensation contribution, added on top of the nominal
// m*g vertical force.
//
// The ω²·(c − z* + k_p·e + k_i·ē + k_d·ė) feedback term only drives the
// horizontal (x, y) resultant force: ω² = g/h with h = c*.z − z*.z, so in
// the nominal case where the measured CoM tracks the LIPM's constant-height
// assumption, applying that same term to z would recover ≈g and then add a
// second m·g on top of it. The vertical resultant force is instead the
// plain LIPM nominal force m·(c̈*.z + g) plus the VDC bias.
func (l *Law) DesiredWrench(cfg config.Config, ref Reference, measuredDCM spatial.Vec3, measuredCoM spatial.Vec3, vdcForce float64) wrench.Wrench {
	omega := ref.Omega()
	e := ref.DCM().Sub(measuredDCM)

	avg := l.integrator.Append(e)
	deriv := l.derivator.Append(e)

	correction := e.Scale(cfg.DCMPropGain).
		Add(avg.Scale(cfg.DCMIntegralGain)).
		Add(deriv.Scale(cfg.DCMDerivGain))

	horizontal := measuredCoM.Sub(ref.ZMP).Add(correction).Scale(omega * omega)

	force := spatial.Vec3{
		X: l.mass * (ref.CoMAccel.X + horizontal.X),
		Y: l.mass * (ref.CoMAccel.Y + horizontal.Y),
		Z: l.mass*(ref.CoMAccel.Z+Gravity) + vdcForce,
	}

	return wrench.Wrench{Force: force}
}
