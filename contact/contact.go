// Package contact holds the stabilizer's immutable per-foot contact
// geometry and the small fixed-key contact map the rest of the pipeline
// reads every tick. Keys are the small-integer ContactState values
// (Left=0, Right=1); a dense 2-slot array is used in place of a hash map,
// matching "no hashing required" design note.
package contact

import "lipm-stabilizer-go/spatial"

// State identifies one of the robot's two feet.
type State int

const (
	Left State = iota
	Right
)

// String names the state, used in log messages.
func (s State) String() string {
	if s == Left {
		return "Left"
	}
	return "Right"
}

// Other returns the opposite foot.
func (s State) Other() State {
	if s == Left {
		return Right
	}
	return Left
}

// Contact is an immutable bundle of one planar foot contact's geometry.
// Created wholesale by a Map rebuild, never mutated in place.
type Contact struct {
	AnklePose      spatial.Pose // ankle frame in world frame
	HalfLength     float64      // sole half-length along local X
	HalfWidth      float64      // sole half-width along local Y
	Friction       float64      // Coulomb friction coefficient mu
	SurfaceToAnkle spatial.Vec3 // surface-origin-to-ankle translation, surface frame
}

// SurfacePose returns the contact's surface frame (sole frame) in world
// coordinates: the ankle pose offset by -SurfaceToAnkle expressed through the
// ankle's orientation.
func (c Contact) SurfacePose() spatial.Pose {
	worldOffset := c.AnklePose.Rotation.Apply(c.SurfaceToAnkle)
	return spatial.Pose{
		Rotation: c.AnklePose.Rotation,
		Position: c.AnklePose.Position.Sub(worldOffset),
	}
}

// ClampToSole clamps a point expressed in the sole (surface) frame so that
// |x|<=HalfLength and |y|<=HalfWidth, the CoP-inside-sole invariant.
func (c Contact) ClampToSole(p spatial.Vec3) spatial.Vec3 {
	return spatial.Vec3{
		X: clamp(p.X, c.HalfLength),
		Y: clamp(p.Y, c.HalfWidth),
		Z: p.Z,
	}
}

func clamp(v, lim float64) float64 {
	if v > lim {
		return lim
	}
	if v < -lim {
		return -lim
	}
	return v
}

// Map is the dense 2-slot contact table: which feet are currently active,
// and their geometry. Replaced wholesale by SetContacts, never partially
// mutated.
type Map struct {
	active  [2]bool
	contact [2]Contact
}

// NewMap builds a Map from a list of (state, contact) pairs, 0, 1, or 2
// entries. Duplicate states overwrite.
func NewMap(entries ...Entry) Map {
	var m Map
	for _, e := range entries {
		m.active[e.State] = true
		m.contact[e.State] = e.Contact
	}
	return m
}

// Entry pairs a foot with its contact geometry, the argument type of
// SetContacts/NewMap.
type Entry struct {
	State   State
	Contact Contact
}

// In reports whether the given foot is currently in contact.
func (m Map) In(s State) bool { return m.active[s] }

// Get returns the contact geometry for s; the zero value if s is not active.
func (m Map) Get(s State) Contact { return m.contact[s] }

// Count returns the number of active contacts (0, 1, or 2).
func (m Map) Count() int {
	n := 0
	for _, a := range m.active {
		if a {
			n++
		}
	}
	return n
}

// DoubleSupport reports whether both feet are in contact.
func (m Map) DoubleSupport() bool { return m.active[Left] && m.active[Right] }

// SingleSupportFoot returns the lone active foot and true, iff exactly one
// foot is active.
func (m Map) SingleSupportFoot() (State, bool) {
	if m.active[Left] && !m.active[Right] {
		return Left, true
	}
	if m.active[Right] && !m.active[Left] {
		return Right, true
	}
	return 0, false
}

// Airborne reports whether no foot is registered in contact.
func (m Map) Airborne() bool { return m.Count() == 0 }

// Each calls fn for every active foot, Left then Right, a fixed order that
// keeps the caller deterministic (no iteration over associative
// containers).
func (m Map) Each(fn func(State, Contact)) {
	if m.active[Left] {
		fn(Left, m.contact[Left])
	}
	if m.active[Right] {
		fn(Right, m.contact[Right])
	}
}
