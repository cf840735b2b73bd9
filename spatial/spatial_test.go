package spatial

import (
	"math"
	"testing"
)

func TestVec3CrossOrthogonal(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}
	z := x.Cross(y)
	if z != (Vec3{Z: 1}) {
		t.Fatalf("expected x cross y = z, got %+v", z)
	}
}

func TestVec3ClampElem(t *testing.T) {
	v := Vec3{X: 5, Y: -5, Z: 0.1}
	clamped := v.ClampElem(Vec3{X: 1, Y: 1, Z: 1})
	if clamped != (Vec3{X: 1, Y: -1, Z: 0.1}) {
		t.Fatalf("unexpected clamp: %+v", clamped)
	}
}

func TestVec3FiniteRejectsNaNAndInf(t *testing.T) {
	if (Vec3{X: math.NaN()}).Finite() {
		t.Fatal("NaN should not be finite")
	}
	if (Vec3{Y: math.Inf(1)}).Finite() {
		t.Fatal("+Inf should not be finite")
	}
	if !(Vec3{X: 1, Y: 2, Z: 3}).Finite() {
		t.Fatal("ordinary vector should be finite")
	}
}

func TestPoseTransformPointAndGroundProjection(t *testing.T) {
	p := Pose{Rotation: IdentityRotation, Position: Vec3{X: 1, Y: 2, Z: 3}}
	got := p.TransformPoint(Vec3{X: 1})
	if got != (Vec3{X: 2, Y: 2, Z: 3}) {
		t.Fatalf("unexpected transform: %+v", got)
	}
	gp := p.GroundProjection()
	if gp != (Vec3{X: 1, Y: 2, Z: 0}) {
		t.Fatalf("unexpected ground projection: %+v", gp)
	}
}

func TestRotationTransposeIsInverseForIdentity(t *testing.T) {
	r := IdentityRotation.Transpose()
	v := Vec3{X: 1, Y: 2, Z: 3}
	if r.Apply(v) != v {
		t.Fatalf("identity transpose should still be identity, got %+v", r.Apply(v))
	}
}
