// Package filters implements the stabilizer's stateful scalar/3D signal
// filters: an exponential moving average, a stationary-offset derivator,
// and a leaky integrator. All three are independent value-type components
// with no shared state and no inheritance, in the same spirit as the
// EKF-adjacent state holders used elsewhere in this codebase but kept far
// smaller: each filter here owns exactly the state its update law needs.
package filters

import "lipm-stabilizer-go/spatial"

// ExponentialMovingAverage tracks the EMA of a 3D signal with a
// configurable time constant, clamped elementwise to +-saturation. Used by
// the stabilizer as the DCM integrator.
type ExponentialMovingAverage struct {
	timeConstant float64
	dt           float64
	saturation   spatial.Vec3
	value        spatial.Vec3
}

// NewExponentialMovingAverage builds an EMA with the given time constant,
// tick period, and initial value.
func NewExponentialMovingAverage(timeConstant, dt float64, initial spatial.Vec3) *ExponentialMovingAverage {
	e := &ExponentialMovingAverage{dt: dt}
	e.SetTimeConstant(timeConstant)
	e.SetSaturation(spatial.Vec3{X: 1e9, Y: 1e9, Z: 1e9})
	e.Reset(initial)
	return e
}

// SetTimeConstant updates T; must stay strictly positive.
func (e *ExponentialMovingAverage) SetTimeConstant(t float64) {
	if t <= 0 {
		t = 1e-6
	}
	e.timeConstant = t
}

// SetSaturation sets the elementwise clamp applied to the running average.
func (e *ExponentialMovingAverage) SetSaturation(sat spatial.Vec3) {
	e.saturation = sat
}

// Reset sets the running value to initial.
func (e *ExponentialMovingAverage) Reset(initial spatial.Vec3) {
	e.value = initial.ClampElem(e.saturation)
}

// Append feeds one new sample into the filter and returns the updated value.
func (e *ExponentialMovingAverage) Append(x spatial.Vec3) spatial.Vec3 {
	alpha := e.dt / e.timeConstant
	e.value = e.value.Add(x.Sub(e.value).Scale(alpha))
	e.value = e.value.ClampElem(e.saturation)
	return e.value
}

// Eval returns the current filter output without advancing state.
func (e *ExponentialMovingAverage) Eval() spatial.Vec3 { return e.value }

// StationaryOffsetFilter tracks the low-pass mean m of a signal x and
// reports x-m: an offset-free derivative proxy when fed a difference
// signal.
type StationaryOffsetFilter struct {
	timeConstant float64
	dt           float64
	mean         spatial.Vec3
	last         spatial.Vec3
}

// NewStationaryOffsetFilter builds a derivator with the given time constant
// and tick period.
func NewStationaryOffsetFilter(timeConstant, dt float64) *StationaryOffsetFilter {
	f := &StationaryOffsetFilter{dt: dt}
	f.SetTimeConstant(timeConstant)
	return f
}

// SetTimeConstant updates T; must stay strictly positive.
func (f *StationaryOffsetFilter) SetTimeConstant(t float64) {
	if t <= 0 {
		t = 1e-6
	}
	f.timeConstant = t
}

// Reset sets the internal mean to initial and clears the last output.
func (f *StationaryOffsetFilter) Reset(initial spatial.Vec3) {
	f.mean = initial
	f.last = spatial.Zero3
}

// Append feeds one new sample and returns x-m for this tick.
func (f *StationaryOffsetFilter) Append(x spatial.Vec3) spatial.Vec3 {
	alpha := f.dt / f.timeConstant
	f.mean = f.mean.Add(x.Sub(f.mean).Scale(alpha))
	f.last = x.Sub(f.mean)
	return f.last
}

// Eval returns the current filter output without advancing state.
func (f *StationaryOffsetFilter) Eval() spatial.Vec3 { return f.last }

// LeakyIntegrator implements y <- (1-leakRate*dt)*y + x*dt, clamped to +-sat.
// A general-purpose bounded-accumulation primitive, mirrored on the same
// Append/Eval/Reset contract as the other filters in this package.
type LeakyIntegrator struct {
	leakRate float64
	dt       float64
	sat      spatial.Vec3
	value    spatial.Vec3
}

// NewLeakyIntegrator builds a leaky integrator with the given leak rate,
// tick period, and saturation.
func NewLeakyIntegrator(leakRate, dt float64, sat spatial.Vec3) *LeakyIntegrator {
	return &LeakyIntegrator{leakRate: leakRate, dt: dt, sat: sat}
}

// SetLeakRate updates the leak rate (1/s).
func (l *LeakyIntegrator) SetLeakRate(r float64) { l.leakRate = r }

// Reset sets the running value to initial.
func (l *LeakyIntegrator) Reset(initial spatial.Vec3) { l.value = initial.ClampElem(l.sat) }

// Append feeds one new sample and returns the updated value.
func (l *LeakyIntegrator) Append(x spatial.Vec3) spatial.Vec3 {
	l.value = l.value.Scale(1 - l.leakRate*l.dt).Add(x.Scale(l.dt))
	l.value = l.value.ClampElem(l.sat)
	return l.value
}

// Eval returns the current filter output without advancing state.
func (l *LeakyIntegrator) Eval() spatial.Vec3 { return l.value }
