package dcm

import (
	"math"
	"testing"

	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/spatial"
)

const mass = 38.0

func refAt(z float64) Reference {
	return Reference{CoM: spatial.Vec3{Z: z}, ZMP: spatial.Vec3{}}
}

func TestDesiredWrenchPassThroughAtRest(t *testing.T) {
	l := New(0.005, mass)
	cfg := config.Default()
	cfg.DCMPropGain, cfg.DCMIntegralGain, cfg.DCMDerivGain = 0, 0, 0
	ref := refAt(0.78)
	w := l.DesiredWrench(cfg, ref, ref.DCM(), ref.CoM, 0)
	if math.Abs(w.Force.X) > 1e-9 || math.Abs(w.Force.Y) > 1e-9 {
		t.Fatalf("expected zero horizontal force at rest, got %+v", w.Force)
	}
	if math.Abs(w.Force.Z-mass*Gravity) > 1e-6 {
		t.Fatalf("expected vertical force m*g=%v, got %v", mass*Gravity, w.Force.Z)
	}
}

func TestDesiredWrenchStepPerturbation(t *testing.T) {
	l := New(0.005, mass)
	cfg := config.Default()
	cfg.DCMPropGain, cfg.DCMIntegralGain, cfg.DCMDerivGain = 5, 0, 0
	ref := refAt(0.78)
	measuredCoM := spatial.Vec3{X: 0.01, Z: 0.78}
	measuredDCM := Measurement{CoM: measuredCoM}.DCM(ref.Omega())
	w := l.DesiredWrench(cfg, ref, measuredDCM, measuredCoM, 0)

	// The corrective force is what the DCM gains add on top of the nominal
	// m·ω²·(c − z*) force for the same measured CoM.
	nominalCfg := cfg
	nominalCfg.DCMPropGain = 0
	nominal := New(0.005, mass).DesiredWrench(nominalCfg, ref, measuredDCM, measuredCoM, 0)

	omega2 := Gravity / 0.78
	want := mass * omega2 * cfg.DCMPropGain * (-0.01)
	if math.Abs(w.Force.X-nominal.Force.X-want) > 1e-6 {
		t.Fatalf("expected corrective force %v, got %v", want, w.Force.X-nominal.Force.X)
	}
}

func TestAverageErrorConvergesToConstantOffset(t *testing.T) {
	l := New(0.005, mass)
	cfg := config.Default()
	cfg.DCMIntegratorTimeConstant = 1
	l.Configure(cfg)
	delta := spatial.Vec3{X: 0.02}
	ref := refAt(0.78)
	measuredDCM := ref.DCM().Sub(delta)
	for i := 0; i < 200000; i++ {
		l.DesiredWrench(cfg, ref, measuredDCM, ref.CoM, 0)
	}
	avg := l.AverageError()
	if math.Abs(avg.X-delta.X) > 1e-3 {
		t.Fatalf("expected average error to converge near %v, got %v", delta.X, avg.X)
	}
}

func TestResetZerosFilters(t *testing.T) {
	l := New(0.005, mass)
	cfg := config.Default()
	ref := refAt(0.78)
	l.DesiredWrench(cfg, ref, ref.DCM().Add(spatial.Vec3{X: 1}), ref.CoM, 0)
	l.Reset()
	if l.AverageError() != spatial.Zero3 {
		t.Fatalf("expected zeroed integrator after reset, got %+v", l.AverageError())
	}
}
