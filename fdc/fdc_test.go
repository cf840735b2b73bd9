package fdc

import (
	"math"
	"testing"

	"lipm-stabilizer-go/config"
)

func TestUpdateVelocitySplit(t *testing.T) {
	c := New(0.005)
	cfg := config.Default()
	cfg.DFZAdmittance = 1e-4
	cfg.DFZDamping = 0

	out := c.Update(cfg, Input{MeasuredForceL: 10, MeasuredForceR: 0})
	want := 0.5 * 1e-4 * 10
	if math.Abs(out.VelZLeft-want) > 1e-12 {
		t.Fatalf("expected VelZLeft=%v, got %v", want, out.VelZLeft)
	}
	if math.Abs(out.VelZRight+want) > 1e-12 {
		t.Fatalf("expected VelZRight=%v, got %v", -want, out.VelZRight)
	}
}

func TestUpdateZeroWhenBalanced(t *testing.T) {
	c := New(0.005)
	cfg := config.Default()
	out := c.Update(cfg, Input{MeasuredForceL: 5, MeasuredForceR: 5})
	if out.VelZLeft != 0 || out.VelZRight != 0 {
		t.Fatalf("expected zero correction when balanced, got %+v", out)
	}
}

func TestVerticalDriftBiasZeroAtReference(t *testing.T) {
	c := New(0.005)
	cfg := config.Default()
	for i := 0; i < 10000; i++ {
		c.VerticalDriftBias(cfg, 38, 0.78, 0.78)
	}
	bias := c.VerticalDriftBias(cfg, 38, 0.78, 0.78)
	if math.Abs(bias) > 1e-9 {
		t.Fatalf("expected zero bias at reference height, got %v", bias)
	}
}
