// Package fdc implements the foot force-difference controller (Kajita et
// al. 2010 style): it regulates the vertical force and height difference
// between the two ankles during double support, plus a slow
// vertical-drift-compensation bias tracked with the same EMA primitive
// used elsewhere in the stabilizer (filters.ScalarEMA).
package fdc

import (
	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/filters"
)

// Max angular correction rates.
const (
	MaxRxVel = 0.2
	MaxRyVel = 0.2
	MaxRzVel = 0.2
)

// Input bundles one tick's measured/reference foot forces and heights.
type Input struct {
	MeasuredForceL, MeasuredForceR float64 // f_L.z, f_R.z
	RefForceL, RefForceR           float64 // f*_L.z, f*_R.z
	MeasuredHeightL, MeasuredHeightR float64 // z_L, z_R
	RefHeightL, RefHeightR          float64 // z*_L, z*_R
}

// Output is the per-tick vertical velocity correction for each foot task.
type Output struct {
	VelZLeft, VelZRight float64
}

// Controller owns the vertical-drift-compensation EMA, reset alongside the
// rest of the stabilizer's filters on enable().
type Controller struct {
	vdc *filters.ScalarEMA
}

// New builds a Controller pre-sized for tick period dt.
func New(dt float64) *Controller {
	return &Controller{vdc: filters.NewScalarEMA(1, dt, 0)}
}

// Reset zeros the VDC tracker.
func (c *Controller) Reset() { c.vdc.Reset(0) }

// Update computes this tick's vertical velocity corrections, given clamped
// admittance/damping gains from cfg.
func (c *Controller) Update(cfg config.Config, in Input) Output {
	dfErr := (in.MeasuredForceL - in.MeasuredForceR) - (in.RefForceL - in.RefForceR)
	dhErr := (in.MeasuredHeightL - in.MeasuredHeightR) - (in.RefHeightL - in.RefHeightR)

	correction := 0.5 * (cfg.DFZAdmittance*dfErr + cfg.DFZDamping*dhErr)
	return Output{VelZLeft: +correction, VelZRight: -correction}
}

// VerticalDriftBias tracks the average height error (h_ref - h_meas) and
// returns a vertical-force bias m*k_vdc*avg_err applied equally to both
// feet, resisting accumulated height drift. The error
// is averaged directly, not the raw height, so the bias starts at zero on
// enable() rather than spiking while the filter catches up to h_ref.
func (c *Controller) VerticalDriftBias(cfg config.Config, mass, href, hMeas float64) float64 {
	avgErr := c.vdc.Append(href - hMeas)
	return mass * cfg.VDCStiffness * avgErr
}
