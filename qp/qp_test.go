package qp

import (
	"math"
	"testing"

	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/contact"
	"lipm-stabilizer-go/spatial"
	"lipm-stabilizer-go/wrench"
)

func poseAt(x float64) spatial.Pose {
	return spatial.Pose{Rotation: spatial.IdentityRotation, Position: spatial.Vec3{X: x}}
}

func TestSaturateWrenchProjectsIntoCone(t *testing.T) {
	foot := Foot{State: contact.Left, Pose: poseAt(0), Cone: wrench.BuildCone(0.1, 0.1, 0.5)}
	wDes := wrench.Wrench{Force: spatial.Vec3{X: 1000, Z: 400}}
	cfg := config.Default()
	w, err := SaturateWrench(wDes, foot, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !foot.Cone.Satisfies(w, 1e-6) {
		t.Fatalf("projected wrench should satisfy the cone: %+v", w)
	}
}

func TestDistributeWrenchStaticDoubleSupportIsSymmetric(t *testing.T) {
	left := Foot{State: contact.Left, Pose: poseAt(0.09), Cone: wrench.BuildCone(0.1, 0.1, 0.7)}
	right := Foot{State: contact.Right, Pose: poseAt(-0.09), Cone: wrench.BuildCone(0.1, 0.1, 0.7)}
	mg := 38.0 * 9.80665
	wDes := wrench.Wrench{Force: spatial.Vec3{Z: mg}}
	cfg := config.Default()

	results, err := DistributeWrench(wDes, []Foot{left, right}, cfg, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	var sum float64
	for _, r := range results {
		sum += r.Wrench.Force.Z
		if r.Wrench.Force.Z < 0 {
			t.Fatalf("expected non-negative normal force per foot, got %+v", r.Wrench)
		}
	}
	if math.Abs(sum-mg) > 1e-3 {
		t.Fatalf("expected total vertical force to sum to %v, got %v", mg, sum)
	}
}

func TestDistributeWrenchSingleFootFallsBackToSaturate(t *testing.T) {
	foot := Foot{State: contact.Left, Pose: poseAt(0), Cone: wrench.BuildCone(0.1, 0.1, 0.7)}
	wDes := wrench.Wrench{Force: spatial.Vec3{Z: 400}}
	cfg := config.Default()
	results, err := DistributeWrench(wDes, []Foot{foot}, cfg, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].State != contact.Left {
		t.Fatalf("unexpected results: %+v", results)
	}
}
