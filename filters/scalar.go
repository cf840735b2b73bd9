package filters

// ScalarEMA is the scalar counterpart of ExponentialMovingAverage, used by
// the vertical drift compensator to track the average CoM height error.
type ScalarEMA struct {
	timeConstant float64
	dt           float64
	value        float64
}

// NewScalarEMA builds a scalar EMA with the given time constant, tick
// period, and initial value.
func NewScalarEMA(timeConstant, dt, initial float64) *ScalarEMA {
	s := &ScalarEMA{dt: dt}
	s.SetTimeConstant(timeConstant)
	s.Reset(initial)
	return s
}

// SetTimeConstant updates T; must stay strictly positive.
func (s *ScalarEMA) SetTimeConstant(t float64) {
	if t <= 0 {
		t = 1e-6
	}
	s.timeConstant = t
}

// Reset sets the running value to initial.
func (s *ScalarEMA) Reset(initial float64) { s.value = initial }

// Append feeds one new sample and returns the updated value.
func (s *ScalarEMA) Append(x float64) float64 {
	alpha := s.dt / s.timeConstant
	s.value += (x - s.value) * alpha
	return s.value
}

// Eval returns the current filter output without advancing state.
func (s *ScalarEMA) Eval() float64 { return s.value }
