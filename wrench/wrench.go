// Package wrench provides the 6D contact wrench type, the linearized
// contact-wrench-cone (CWC) face matrix builder, and the adjoint transform
// used to move a wrench between frames. Matrices are built with gonum/mat
// the same way this codebase's weighted pseudo-inverse helper assembles a
// dense matrix before factorizing it.
package wrench

import (
	"gonum.org/v1/gonum/mat"

	"lipm-stabilizer-go/spatial"
)

// Wrench is a 6D spatial force: moment then force, expressed about some
// frame's origin in that frame's axes.
type Wrench struct {
	Moment spatial.Vec3
	Force  spatial.Vec3
}

// Add returns the sum of two wrenches expressed in the same frame.
func (w Wrench) Add(o Wrench) Wrench {
	return Wrench{Moment: w.Moment.Add(o.Moment), Force: w.Force.Add(o.Force)}
}

// Vector returns w as a 6-vector (mx,my,mz,fx,fy,fz), the ordering CWC rows
// act on.
func (w Wrench) Vector() [6]float64 {
	return [6]float64{w.Moment.X, w.Moment.Y, w.Moment.Z, w.Force.X, w.Force.Y, w.Force.Z}
}

// FromVector builds a Wrench from a 6-vector in (mx,my,mz,fx,fy,fz) order.
func FromVector(v [6]float64) Wrench {
	return Wrench{
		Moment: spatial.Vec3{X: v[0], Y: v[1], Z: v[2]},
		Force:  spatial.Vec3{X: v[3], Y: v[4], Z: v[5]},
	}
}

// CoP returns the sole-frame center of pressure implied by this wrench:
// (-my/fz, mx/fz). ok is false when fz is too small to divide by
// (near-zero normal force), matching the measured-ZMP degenerate case.
func (w Wrench) CoP(minForce float64) (spatial.Vec3, bool) {
	if w.Force.Z < minForce {
		return spatial.Vec3{}, false
	}
	return spatial.Vec3{
		X: -w.Moment.Y / w.Force.Z,
		Y: w.Moment.X / w.Force.Z,
	}, true
}

// Cone is the linearized 16x6 contact-wrench-cone face matrix A such that
// A*w <= 0 is the admissible region, built from (halfLength, halfWidth, mu).
type Cone struct {
	A *mat.Dense // 16x6
}

// NumRows is the fixed row count of the linearized CWC, used to pre-size the
// distributor's QP.
const NumRows = 16

// BuildCone assembles the CWC face matrix for one contact's geometry.
func BuildCone(halfLength, halfWidth, mu float64) Cone {
	X, Y, mu2 := halfLength, halfWidth, mu
	xy := (X + Y) * mu2
	rows := [NumRows][6]float64{
		{0, 0, 0, -1, 0, -mu2},
		{0, 0, 0, +1, 0, -mu2},
		{0, 0, 0, 0, -1, -mu2},
		{0, 0, 0, 0, +1, -mu2},
		{-1, 0, 0, 0, 0, -Y},
		{+1, 0, 0, 0, 0, -Y},
		{0, -1, 0, 0, 0, -X},
		{0, +1, 0, 0, 0, -X},
		{+mu2, +mu2, -1, -Y, -X, -xy},
		{+mu2, -mu2, -1, -Y, +X, -xy},
		{-mu2, +mu2, -1, +Y, -X, -xy},
		{-mu2, -mu2, -1, +Y, +X, -xy},
		{+mu2, +mu2, +1, +Y, +X, -xy},
		{+mu2, -mu2, +1, +Y, -X, -xy},
		{-mu2, +mu2, +1, -Y, +X, -xy},
		{-mu2, -mu2, +1, -Y, -X, -xy},
	}

	data := make([]float64, NumRows*6)
	for i, r := range rows {
		copy(data[i*6:i*6+6], r[:])
	}
	return Cone{A: mat.NewDense(NumRows, 6, data)}
}

// Satisfies reports whether w lies in the cone up to tolerance eps, i.e.
// A*w <= eps elementwise.
func (c Cone) Satisfies(w Wrench, eps float64) bool {
	v := w.Vector()
	wv := mat.NewVecDense(6, v[:])
	var out mat.VecDense
	out.MulVec(c.A, wv)
	for i := 0; i < NumRows; i++ {
		if out.AtVec(i) > eps {
			return false
		}
	}
	return true
}

// Adjoint builds the 6x6 matrix that transports a wrench expressed in
// pose's frame into the common (world-aligned) frame pose is given in:
// w_common = Adjoint(pose) * w_local. Following the standard spatial-force
// transport law, the moment picks up p x (R*force).
func Adjoint(pose spatial.Pose) *mat.Dense {
	r := rotMatrix(pose.Rotation)
	p := pose.Position
	skew := [3][3]float64{
		{0, -p.Z, p.Y},
		{p.Z, 0, -p.X},
		{-p.Y, p.X, 0},
	}
	skewR := mul3(skew, r)

	data := make([]float64, 36)
	put3(data, 0, 0, r)     // moment -> moment
	put3(data, 3, 3, r)     // force -> force
	put3(data, 0, 3, skewR) // force's lever contribution to moment
	return mat.NewDense(6, 6, data)
}

func rotMatrix(r spatial.Rotation) [3][3]float64 {
	return [3][3]float64{
		{r.Rows[0].X, r.Rows[0].Y, r.Rows[0].Z},
		{r.Rows[1].X, r.Rows[1].Y, r.Rows[1].Z},
		{r.Rows[2].X, r.Rows[2].Y, r.Rows[2].Z},
	}
}

func mul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s := 0.0
			for k := 0; k < 3; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func put3(data []float64, rowOff, colOff int, m [3][3]float64) {
	for i := 0; i < 3; i++ {
		base := (rowOff+i)*6 + colOff
		data[base] = m[i][0]
		data[base+1] = m[i][1]
		data[base+2] = m[i][2]
	}
}
