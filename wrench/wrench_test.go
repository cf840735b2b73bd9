package wrench

import (
	"math"
	"testing"

	"lipm-stabilizer-go/spatial"
)

func TestConeAdmitsPureNormalForce(t *testing.T) {
	c := BuildCone(0.1, 0.1, 0.7)
	w := Wrench{Force: spatial.Vec3{Z: 400}}
	if !c.Satisfies(w, 1e-6) {
		t.Fatal("pure upward normal force should satisfy the CWC")
	}
}

func TestConeRejectsExcessiveTangentialForce(t *testing.T) {
	c := BuildCone(0.1, 0.1, 0.5)
	w := Wrench{Force: spatial.Vec3{X: 1000, Z: 400}}
	if c.Satisfies(w, 1e-6) {
		t.Fatal("fx >> mu*fz should violate friction rows")
	}
}

func TestConeRejectsNegativeNormalForce(t *testing.T) {
	c := BuildCone(0.1, 0.1, 0.7)
	w := Wrench{Force: spatial.Vec3{Z: -10}}
	if c.Satisfies(w, 1e-6) {
		t.Fatal("negative normal force must violate unilaterality")
	}
}

func TestCoPRoundTrip(t *testing.T) {
	w := Wrench{Moment: spatial.Vec3{X: 2, Y: -3}, Force: spatial.Vec3{Z: 100}}
	cop, ok := w.CoP(1)
	if !ok {
		t.Fatal("expected ok with sufficient normal force")
	}
	if math.Abs(cop.X-0.03) > 1e-9 || math.Abs(cop.Y-0.02) > 1e-9 {
		t.Fatalf("unexpected CoP: %+v", cop)
	}
}

func TestCoPDegenerateWhenForceTooSmall(t *testing.T) {
	w := Wrench{Force: spatial.Vec3{Z: 0.1}}
	if _, ok := w.CoP(1); ok {
		t.Fatal("expected degenerate CoP under MIN_NET_TOTAL_FORCE_ZMP-like threshold")
	}
}

func TestAdjointIdentityAtOrigin(t *testing.T) {
	A := Adjoint(spatial.IdentityPose)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(A.At(i, j)-want) > 1e-12 {
				t.Fatalf("adjoint at identity pose should be identity, At(%d,%d)=%v", i, j, A.At(i, j))
			}
		}
	}
}

func TestAdjointTransportsForceToMoment(t *testing.T) {
	pose := spatial.Pose{Rotation: spatial.IdentityRotation, Position: spatial.Vec3{X: 0, Y: 0.1, Z: 0}}
	A := Adjoint(pose)
	w := Wrench{Force: spatial.Vec3{X: 0, Y: 0, Z: 100}}
	v := w.Vector()
	var out [6]float64
	for i := 0; i < 6; i++ {
		s := 0.0
		for j := 0; j < 6; j++ {
			s += A.At(i, j) * v[j]
		}
		out[i] = s
	}
	result := FromVector(out)
	// p=(0,0.1,0) x f=(0,0,100) = (0.1*100 - 0, 0 - 0, 0) = (10,0,0)
	if math.Abs(result.Moment.X-10) > 1e-9 {
		t.Fatalf("expected moment.x=10 from lever arm, got %+v", result.Moment)
	}
}
