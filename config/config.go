// Package config holds the stabilizer's tunable gains, admittances, and
// weights, with their clamped ranges enumerated below. It is a concrete,
// statically-typed struct loaded with encoding/json, in the same style as
// other closed-loop controllers' plain PID/MPC config structs in this
// codebase — deliberately not a generic configuration container, which is
// treated as an external collaborator supplied by the host framework.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"lipm-stabilizer-go/spatial"
)

// FDQPWeights are the wrench distributor's QP weights.
type FDQPWeights struct {
	NetWrenchSqrt  float64 `json:"net_wrench_sqrt"`
	WrenchSqrt     float64 `json:"wrench_sqrt"`
	AnkleTorqueSqrt float64 `json:"ankle_torque_sqrt"`
}

// Config is the full set of stabilizer tuning parameters.
type Config struct {
	DCMPropGain               float64     `json:"dcm_prop_gain"`
	DCMIntegralGain           float64     `json:"dcm_integral_gain"`
	DCMDerivGain              float64     `json:"dcm_deriv_gain"`
	DCMIntegratorTimeConstant float64     `json:"dcm_integrator_time_constant"`
	DCMDerivatorTimeConstant  float64     `json:"dcm_derivator_time_constant"`
	CoMAdmittance             [3]float64  `json:"com_admittance"`
	CoPAdmittance             [3]float64  `json:"cop_admittance"`
	DFZAdmittance             float64     `json:"dfz_admittance"`
	DFZDamping                float64     `json:"dfz_damping"`
	VDCFrequency              float64     `json:"vdc_frequency"`
	VDCStiffness              float64     `json:"vdc_stiffness"`
	FDQPWeights               FDQPWeights `json:"fdqp_weights"`
	LeftFootRatio             float64     `json:"left_foot_ratio"`
}

// Clamped range constants for the gains and admittances above.
const (
	MaxDCMPGain     = 20.0
	MaxDCMIGain     = 100.0
	MaxDCMDGain     = 2.0
	MaxComAdmitAxis = 20.0
	MaxCopAdmitAxis = 0.1
	MaxDFZAdmit     = 5e-4
	MaxDFZDamping   = 10.0
)

// Default returns a sane, already-clamped starting configuration.
func Default() Config {
	return Config{
		DCMPropGain:               1.0,
		DCMIntegralGain:           5.0,
		DCMDerivGain:              0.0,
		DCMIntegratorTimeConstant: 15.0,
		DCMDerivatorTimeConstant:  1.0,
		CoMAdmittance:             [3]float64{0, 0, 0},
		CoPAdmittance:             [3]float64{0.01, 0.01, 0},
		DFZAdmittance:             1e-4,
		DFZDamping:                0.0,
		VDCFrequency:              1.0,
		VDCStiffness:              1000.0,
		FDQPWeights: FDQPWeights{
			NetWrenchSqrt:   sqrt10,
			WrenchSqrt:      1e-3,
			AnkleTorqueSqrt: 1e-2,
		},
		LeftFootRatio: 0.5,
	}
}

const sqrt10 = 3.1622776601683795

// clamp1 clamps a scalar to [lo, hi], the workhorse behind Clamp below.
func clamp1(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampNonNegative(v float64) float64 { return clamp1(v, 0, 1e18) }
func clampPositive(v float64) float64 {
	if v <= 0 {
		return 1e-6
	}
	return v
}

// Clamp enforces every range above in place and returns the receiver, so
// every stored gain is guaranteed valid after configure() returns.
// Out-of-range values are clamped to the nearest bound; logging a
// ConfigurationError is the caller's concern, not this method's.
func (c *Config) Clamp() *Config {
	c.DCMPropGain = clamp1(c.DCMPropGain, 0, MaxDCMPGain)
	c.DCMIntegralGain = clamp1(c.DCMIntegralGain, 0, MaxDCMIGain)
	c.DCMDerivGain = clamp1(c.DCMDerivGain, 0, MaxDCMDGain)
	c.DCMIntegratorTimeConstant = clampPositive(c.DCMIntegratorTimeConstant)
	c.DCMDerivatorTimeConstant = clampPositive(c.DCMDerivatorTimeConstant)
	for i := range c.CoMAdmittance {
		c.CoMAdmittance[i] = clamp1(c.CoMAdmittance[i], 0, MaxComAdmitAxis)
	}
	for i := range c.CoPAdmittance {
		c.CoPAdmittance[i] = clamp1(c.CoPAdmittance[i], 0, MaxCopAdmitAxis)
	}
	c.DFZAdmittance = clamp1(c.DFZAdmittance, 0, MaxDFZAdmit)
	c.DFZDamping = clamp1(c.DFZDamping, 0, MaxDFZDamping)
	c.VDCFrequency = clampNonNegative(c.VDCFrequency)
	c.VDCStiffness = clampNonNegative(c.VDCStiffness)
	c.FDQPWeights.NetWrenchSqrt = clampNonNegative(c.FDQPWeights.NetWrenchSqrt)
	c.FDQPWeights.WrenchSqrt = clampNonNegative(c.FDQPWeights.WrenchSqrt)
	c.FDQPWeights.AnkleTorqueSqrt = clampNonNegative(c.FDQPWeights.AnkleTorqueSqrt)
	c.LeftFootRatio = clamp1(c.LeftFootRatio, 0, 1)
	return c
}

// CoPAdmittanceVec returns CoPAdmittance as a spatial.Vec3, the shape the
// foot tasks consume it in.
func (c Config) CoPAdmittanceVec() spatial.Vec3 {
	return spatial.Vec3{X: c.CoPAdmittance[0], Y: c.CoPAdmittance[1], Z: c.CoPAdmittance[2]}
}

// CoMAdmittanceVec returns CoMAdmittance as a spatial.Vec3, the shape the
// CoM task consumes it in.
func (c Config) CoMAdmittanceVec() spatial.Vec3 {
	return spatial.Vec3{X: c.CoMAdmittance[0], Y: c.CoMAdmittance[1], Z: c.CoMAdmittance[2]}
}

// Load reads a Config from a JSON file and clamps it before returning.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Clamp()
	return cfg, nil
}
