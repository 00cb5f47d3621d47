package color

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Round rounds every element to the given number of decimal places.
func (m Mat3) Round(places int) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = Vec3(m[i]).Round(places)
	}
	return out
}

// pinvTolerance is the relative cutoff below which singular values are
// treated as zero, matching numpy's pinv default rcond.
const pinvTolerance = 1e-15

// PseudoInverse returns the Moore-Penrose pseudo-inverse of m. For an
// invertible matrix this is the ordinary inverse; for a degenerate one the
// null-space directions are dropped and callers must range-check results.
func (m Mat3) PseudoInverse() (Mat3, error) {
	a := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return Mat3{}, fmt.Errorf("singular value decomposition did not converge")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	cutoff := pinvTolerance * values[0]

	// pinv = V * diag(1/s) * U^T
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k, s := range values {
				if s <= cutoff {
					continue
				}
				sum += v.At(i, k) * u.At(j, k) / s
			}
			out[i][j] = sum
		}
	}
	return out, nil
}
