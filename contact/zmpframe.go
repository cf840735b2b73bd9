package contact

import "lipm-stabilizer-go/spatial"

// Frame is the ZMP-expression frame: world-axis-aligned, origin on the
// ground, selected from the active contact set. It is retained unchanged
// while airborne (no feedback is emitted in that state).
type Frame struct {
	Origin spatial.Vec3
}

// SelectZMPFrame computes the ZMP frame for the given contact map. When m is
// airborne, prev is returned unchanged; the caller is expected to pass the previous tick's frame.
func SelectZMPFrame(m Map, prev Frame) Frame {
	switch {
	case m.DoubleSupport():
		l := m.Get(Left).AnklePose.GroundProjection()
		r := m.Get(Right).AnklePose.GroundProjection()
		return Frame{Origin: l.Add(r).Scale(0.5)}
	default:
		if s, ok := m.SingleSupportFoot(); ok {
			return Frame{Origin: m.Get(s).AnklePose.GroundProjection()}
		}
		return prev
	}
}
