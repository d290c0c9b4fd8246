package diffusion

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// nnls solves min ||Ax - b|| subject to x >= 0 via the Lawson-Hanson
// active-set method (Lawson & Hanson, 1974): grow a "passive" set of
// variables allowed to be nonzero one at a time, each time resolving the
// restricted least-squares subproblem on gonum/mat until every passive
// variable is positive, backing off along the infeasible direction when
// one isn't. Used by the VRM moment-matching redistribution (spec 4.E.1).
func nnls(A *mat.Dense, b *mat.VecDense, maxIter int) *mat.VecDense {
	m, n := A.Dims()
	x := mat.NewVecDense(n, nil)
	passive := make([]bool, n)

	w := mat.NewVecDense(n, nil)
	recomputeGradient := func() {
		var Ax mat.VecDense
		Ax.MulVec(A, x)
		var resid mat.VecDense
		resid.SubVec(b, &Ax)
		w.MulVec(A.T(), &resid)
	}
	recomputeGradient()

	const tol = 1e-9
	for iter := 0; iter < maxIter; iter++ {
		best, bestW := -1, tol
		for j := 0; j < n; j++ {
			if !passive[j] && w.AtVec(j) > bestW {
				best, bestW = j, w.AtVec(j)
			}
		}
		if best < 0 {
			break
		}
		passive[best] = true

		for innerIter := 0; innerIter < n+1; innerIter++ {
			idx := passiveIndices(passive)
			Ap := selectCols(A, idx, m)

			var z mat.Dense
			if err := z.Solve(Ap, b); err != nil {
				passive[best] = false
				break
			}

			neg := false
			for i := range idx {
				if z.At(i, 0) <= 0 {
					neg = true
					break
				}
			}
			if !neg {
				for j := 0; j < n; j++ {
					x.SetVec(j, 0)
				}
				for i, j := range idx {
					x.SetVec(j, z.At(i, 0))
				}
				break
			}

			alpha := math.Inf(1)
			for i, j := range idx {
				zi := z.At(i, 0)
				if zi <= 0 {
					xj := x.AtVec(j)
					denom := xj - zi
					if denom > 1e-15 {
						if a := xj / denom; a < alpha {
							alpha = a
						}
					}
				}
			}
			if math.IsInf(alpha, 1) {
				alpha = 0
			}
			for i, j := range idx {
				xj := x.AtVec(j)
				x.SetVec(j, xj+alpha*(z.At(i, 0)-xj))
			}
			for _, j := range idx {
				if x.AtVec(j) <= 1e-12 {
					passive[j] = false
				}
			}
		}
		recomputeGradient()
	}
	return x
}

func passiveIndices(passive []bool) []int {
	idx := make([]int, 0, len(passive))
	for j, p := range passive {
		if p {
			idx = append(idx, j)
		}
	}
	return idx
}

func selectCols(A *mat.Dense, cols []int, m int) *mat.Dense {
	out := mat.NewDense(m, len(cols), nil)
	for c, j := range cols {
		for r := 0; r < m; r++ {
			out.Set(r, c, A.At(r, j))
		}
	}
	return out
}
