package contact

import (
	"math"
	"testing"

	"lipm-stabilizer-go/spatial"
)

func ankleAt(x float64) spatial.Pose {
	return spatial.Pose{Rotation: spatial.IdentityRotation, Position: spatial.Vec3{X: x, Y: 0, Z: 0}}
}

func TestMapDoubleSupport(t *testing.T) {
	m := NewMap(
		Entry{Left, Contact{AnklePose: ankleAt(0.09), HalfLength: 0.1, HalfWidth: 0.1, Friction: 0.7}},
		Entry{Right, Contact{AnklePose: ankleAt(-0.09), HalfLength: 0.1, HalfWidth: 0.1, Friction: 0.7}},
	)
	if !m.DoubleSupport() {
		t.Fatal("expected double support")
	}
	if m.Count() != 2 {
		t.Fatalf("expected 2 active contacts, got %d", m.Count())
	}
	if m.Airborne() {
		t.Fatal("should not be airborne")
	}
}

func TestMapSingleSupport(t *testing.T) {
	m := NewMap(Entry{Left, Contact{AnklePose: ankleAt(0)}})
	foot, ok := m.SingleSupportFoot()
	if !ok || foot != Left {
		t.Fatalf("expected single support on Left, got %v %v", foot, ok)
	}
	if m.DoubleSupport() {
		t.Fatal("should not be double support")
	}
}

func TestMapAirborneWhenEmpty(t *testing.T) {
	m := NewMap()
	if !m.Airborne() {
		t.Fatal("empty map should be airborne")
	}
}

func TestSurfacePoseOffsetsByAnkleHeight(t *testing.T) {
	c := Contact{
		AnklePose:      spatial.Pose{Rotation: spatial.IdentityRotation, Position: spatial.Vec3{X: 0.09, Z: 0.105}},
		SurfaceToAnkle: spatial.Vec3{Z: 0.105},
	}
	sp := c.SurfacePose()
	if math.Abs(sp.Position.Z) > 1e-9 {
		t.Fatalf("expected surface pose at ground level, got z=%v", sp.Position.Z)
	}
	if math.Abs(sp.Position.X-0.09) > 1e-9 {
		t.Fatalf("expected surface pose to keep ankle's horizontal position, got x=%v", sp.Position.X)
	}
}

func TestClampToSole(t *testing.T) {
	c := Contact{HalfLength: 0.1, HalfWidth: 0.05}
	p := c.ClampToSole(spatial.Vec3{X: 0.5, Y: -0.5})
	if p.X != 0.1 || p.Y != -0.05 {
		t.Fatalf("clamp failed: %+v", p)
	}
}

func TestSelectZMPFrameDoubleSupportMidpoint(t *testing.T) {
	m := NewMap(
		Entry{Left, Contact{AnklePose: ankleAt(0.09)}},
		Entry{Right, Contact{AnklePose: ankleAt(-0.09)}},
	)
	f := SelectZMPFrame(m, Frame{})
	if math.Abs(f.Origin.X) > 1e-9 {
		t.Fatalf("expected midpoint origin x=0, got %v", f.Origin.X)
	}
}

func TestSelectZMPFrameAirborneRetainsPrevious(t *testing.T) {
	prev := Frame{Origin: spatial.Vec3{X: 1, Y: 2, Z: 0}}
	m := NewMap()
	f := SelectZMPFrame(m, prev)
	if f != prev {
		t.Fatalf("expected frame retained while airborne, got %+v want %+v", f, prev)
	}
}

func TestStateOther(t *testing.T) {
	if Left.Other() != Right || Right.Other() != Left {
		t.Fatal("Other() should swap Left/Right")
	}
}
