// Package qp implements the stabilizer's wrench distributor: splitting a
// desired resultant wrench across one or two foot contacts under
// contact-wrench-cone and unilaterality constraints. The dense linear
// algebra is built the same way this codebase's weighted pseudo-inverse
// helper assembles and factorizes its matrices elsewhere: a
// normal-equations solve via gonum/mat, followed by a bounded number of
// constraint-projection passes so the per-tick cost stays predictable.
package qp

import (
	"gonum.org/v1/gonum/mat"

	"lipm-stabilizer-go/config"
	"lipm-stabilizer-go/contact"
	"lipm-stabilizer-go/spatial"
	"lipm-stabilizer-go/wrench"
)

// MaxIterations bounds the projection pass: the inner QP must stay bounded
// in iterations so the per-tick cost is predictable.
const MaxIterations = 100

// Foot is one contact's geometry and pose, as seen by the distributor.
type Foot struct {
	State contact.State
	Pose  spatial.Pose
	Cone  wrench.Cone
}

// Result is one foot's distributed wrench, expressed in that foot's surface
// frame.
type Result struct {
	State  contact.State
	Wrench wrench.Wrench
}

// Infeasible is returned when the projection pass cannot bring every
// contact's wrench inside its cone after MaxIterations — the QPInfeasible
// failure policy. It should not occur in practice since the CWC is a
// non-empty cone, but callers must fall back to the previous tick's
// distribution on this error.
type Infeasible struct{}

func (Infeasible) Error() string { return "wrench distributor: projection did not converge" }

// DistributeWrench splits wDes (expressed at the ZMP-frame origin) across
// the given feet, weighted by cfg.FDQPWeights, and balanced vertically by
// leftFootRatio when both feet are present. feet must hold 1
// or 2 entries.
func DistributeWrench(wDes wrench.Wrench, feet []Foot, cfg config.Config, leftFootRatio float64) ([]Result, error) {
	switch len(feet) {
	case 1:
		w, err := saturate(wDes, feet[0], cfg)
		if err != nil {
			return nil, err
		}
		return []Result{{State: feet[0].State, Wrench: w}}, nil
	case 2:
		return distributeTwoFeet(wDes, feet, cfg, leftFootRatio)
	default:
		return nil, Infeasible{}
	}
}

// SaturateWrench projects wDes into foot's CWC: the single-support case of
// distribution, also used standalone by the orchestrator.
func SaturateWrench(wDes wrench.Wrench, foot Foot, cfg config.Config) (wrench.Wrench, error) {
	return saturate(wDes, foot, cfg)
}

func saturate(wDes wrench.Wrench, foot Foot, cfg config.Config) (wrench.Wrench, error) {
	local := transportToLocal(wDes, foot.Pose)
	projected, ok := projectIntoCone(local, foot.Cone, 0)
	if !ok {
		return wrench.Wrench{}, Infeasible{}
	}
	return projected, nil
}

func distributeTwoFeet(wDes wrench.Wrench, feet []Foot, cfg config.Config, leftFootRatio float64) ([]Result, error) {
	left, right := feet[0], feet[1]
	if left.State == contact.Right {
		left, right = right, left
	}

	AL := wrench.Adjoint(left.Pose)
	AR := wrench.Adjoint(right.Pose)

	q := cfg.FDQPWeights.NetWrenchSqrt * cfg.FDQPWeights.NetWrenchSqrt
	rMoment := cfg.FDQPWeights.AnkleTorqueSqrt * cfg.FDQPWeights.AnkleTorqueSqrt
	rForce := cfg.FDQPWeights.WrenchSqrt * cfg.FDQPWeights.WrenchSqrt

	alpha := leftFootRatio / (1 - leftFootRatio)
	if leftFootRatio >= 1 {
		alpha = 1e9
	} else if leftFootRatio <= 0 {
		alpha = 0
	}
	kappa := q // balance weight on the same scale as the tracking weight

	// A = [AL | AR], 6x12. Solve (A^T Q A + R + kappa*e*e^T) x = A^T Q Wdes.
	A := mat.NewDense(6, 12, nil)
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			A.Set(r, c, AL.At(r, c))
			A.Set(r, c+6, AR.At(r, c))
		}
	}

	var At mat.Dense
	At.CloneFrom(A.T())

	var AtQ mat.Dense
	AtQ.Mul(&At, diag6Block(q))

	var AtQA mat.Dense
	AtQA.Mul(&AtQ, A)

	H := mat.NewDense(12, 12, nil)
	H.CloneFrom(&AtQA)
	for i := 0; i < 12; i++ {
		r := rMoment
		if i%6 >= 3 {
			r = rForce
		}
		H.Set(i, i, H.At(i, i)+r)
	}
	// kappa*(fL.z - alpha*fR.z)^2 contributes kappa*e*e^T, e has +1 at
	// index 5 (fL.z) and -alpha at index 11 (fR.z).
	e := make([]float64, 12)
	e[5] = 1
	e[11] = -alpha
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			H.Set(i, j, H.At(i, j)+kappa*e[i]*e[j])
		}
	}

	wv := wDes.Vector()
	bWdes := mat.NewVecDense(6, wv[:])
	var Qb mat.VecDense
	Qb.MulVec(diag6Block(q), bWdes)
	var rhs mat.VecDense
	rhs.MulVec(&At, &Qb)

	var x mat.VecDense
	if err := x.SolveVec(H, &rhs); err != nil {
		return nil, Infeasible{}
	}

	var xl, xr [6]float64
	for i := 0; i < 6; i++ {
		xl[i] = x.AtVec(i)
		xr[i] = x.AtVec(i + 6)
	}
	wL := wrench.FromVector(xl)
	wR := wrench.FromVector(xr)

	minForce := 0.0
	if wDes.Force.Z >= 2*minPressure {
		minForce = minPressure
	}
	wL, okL := projectIntoCone(wL, left.Cone, minForce)
	wR, okR := projectIntoCone(wR, right.Cone, minForce)
	if !okL || !okR {
		return nil, Infeasible{}
	}

	return []Result{
		{State: left.State, Wrench: wL},
		{State: right.State, Wrench: wR},
	}, nil
}

const minPressure = 15.0 // MIN_DS_PRESSURE

// diag6Block returns a 6x6 diagonal matrix with q on every entry.
func diag6Block(q float64) *mat.Dense {
	d := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		d.Set(i, i, q)
	}
	return d
}

// transportToLocal expresses a wrench given at the ZMP-frame origin in
// foot's local surface frame: the inverse of Adjoint(pose).
func transportToLocal(w wrench.Wrench, pose spatial.Pose) wrench.Wrench {
	A := wrench.Adjoint(pose)
	var Ainv mat.Dense
	if err := Ainv.Inverse(A); err != nil {
		return w
	}
	v := w.Vector()
	in := mat.NewVecDense(6, v[:])
	var out mat.VecDense
	out.MulVec(&Ainv, in)
	var arr [6]float64
	for i := 0; i < 6; i++ {
		arr[i] = out.AtVec(i)
	}
	return wrench.FromVector(arr)
}

// projectIntoCone performs alternating projections onto the cone's
// half-spaces (and the force.z >= minForce box constraint) until w is
// admissible or MaxIterations is exhausted. This is the bounded-iteration
// scheme requires of the inner QP.
func projectIntoCone(w wrench.Wrench, cone wrench.Cone, minForce float64) (wrench.Wrench, bool) {
	v := w.Vector()
	for iter := 0; iter < MaxIterations; iter++ {
		violated := false
		vec := mat.NewVecDense(6, v[:])
		var Av mat.VecDense
		Av.MulVec(cone.A, vec)
		for r := 0; r < wrench.NumRows; r++ {
			val := Av.AtVec(r)
			if val > 1e-9 {
				violated = true
				row := mat.Row(nil, r, cone.A)
				normSq := 0.0
				for _, a := range row {
					normSq += a * a
				}
				if normSq < 1e-12 {
					continue
				}
				scale := val / normSq
				for i := range v {
					v[i] -= scale * row[i]
				}
			}
		}
		if v[5] < minForce {
			violated = true
			v[5] = minForce
		}
		if !violated {
			return wrench.FromVector([6]float64{v[0], v[1], v[2], v[3], v[4], v[5]}), true
		}
	}
	vec := mat.NewVecDense(6, v[:])
	var Av mat.VecDense
	Av.MulVec(cone.A, vec)
	for r := 0; r < wrench.NumRows; r++ {
		if Av.AtVec(r) > 1e-6 {
			return wrench.FromVector([6]float64{v[0], v[1], v[2], v[3], v[4], v[5]}), false
		}
	}
	return wrench.FromVector([6]float64{v[0], v[1], v[2], v[3], v[4], v[5]}), true
}
