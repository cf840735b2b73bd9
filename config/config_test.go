package config

import "testing"

func TestClampBoundsGains(t *testing.T) {
	c := Config{DCMPropGain: 1000, DCMIntegralGain: -5, DCMDerivGain: 9}
	c.Clamp()
	if c.DCMPropGain != MaxDCMPGain {
		t.Fatalf("expected DCMPropGain clamped to %v, got %v", MaxDCMPGain, c.DCMPropGain)
	}
	if c.DCMIntegralGain != 0 {
		t.Fatalf("expected DCMIntegralGain clamped to 0, got %v", c.DCMIntegralGain)
	}
	if c.DCMDerivGain != MaxDCMDGain {
		t.Fatalf("expected DCMDerivGain clamped to %v, got %v", MaxDCMDGain, c.DCMDerivGain)
	}
}

func TestClampFixesNonPositiveTimeConstants(t *testing.T) {
	c := Config{DCMIntegratorTimeConstant: 0, DCMDerivatorTimeConstant: -1}
	c.Clamp()
	if c.DCMIntegratorTimeConstant <= 0 || c.DCMDerivatorTimeConstant <= 0 {
		t.Fatalf("time constants must stay strictly positive after clamp: %+v", c)
	}
}

func TestClampAdmittancePerAxis(t *testing.T) {
	c := Config{CoMAdmittance: [3]float64{-1, 50, 5}, CoPAdmittance: [3]float64{-1, 1, 0.05}}
	c.Clamp()
	if c.CoMAdmittance != [3]float64{0, MaxComAdmitAxis, 5} {
		t.Fatalf("unexpected com admittance: %+v", c.CoMAdmittance)
	}
	if c.CoPAdmittance != [3]float64{0, MaxCopAdmitAxis, 0.05} {
		t.Fatalf("unexpected cop admittance: %+v", c.CoPAdmittance)
	}
}

func TestDefaultIsAlreadyClamped(t *testing.T) {
	c := Default()
	clamped := c
	clamped.Clamp()
	if c != clamped {
		t.Fatalf("Default() should already satisfy Clamp(): %+v vs %+v", c, clamped)
	}
}
