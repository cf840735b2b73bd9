package spatial

// Rotation is a 3x3 rotation matrix stored row-major, world_R_local: applying
// it to a vector expressed in the local frame yields the vector expressed in
// the world frame.
type Rotation struct {
	Rows [3]Vec3
}

// IdentityRotation is the identity orientation.
var IdentityRotation = Rotation{Rows: [3]Vec3{{X: 1}, {Y: 1}, {Z: 1}}}

// Apply rotates v from local to world frame.
func (r Rotation) Apply(v Vec3) Vec3 {
	return Vec3{
		X: r.Rows[0].Dot(v),
		Y: r.Rows[1].Dot(v),
		Z: r.Rows[2].Dot(v),
	}
}

// Transpose returns the inverse rotation (local_R_world).
func (r Rotation) Transpose() Rotation {
	return Rotation{Rows: [3]Vec3{
		{X: r.Rows[0].X, Y: r.Rows[1].X, Z: r.Rows[2].X},
		{X: r.Rows[0].Y, Y: r.Rows[1].Y, Z: r.Rows[2].Y},
		{X: r.Rows[0].Z, Y: r.Rows[1].Z, Z: r.Rows[2].Z},
	}}
}

// Pose is a rigid transform: orientation then translation, world_X_local.
type Pose struct {
	Rotation Rotation
	Position Vec3
}

// IdentityPose is the identity transform.
var IdentityPose = Pose{Rotation: IdentityRotation}

// TransformPoint maps a point expressed in the local frame to world frame.
func (p Pose) TransformPoint(local Vec3) Vec3 {
	return p.Rotation.Apply(local).Add(p.Position)
}

// GroundProjection returns the pose's position projected onto z=0, the
// world-frame ankle-to-ground projection used by ZMP frame selection.
func (p Pose) GroundProjection() Vec3 {
	return Vec3{X: p.Position.X, Y: p.Position.Y, Z: 0}
}
