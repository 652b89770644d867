package factor

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Varimax rotates a loading matrix orthogonally to maximise the variance of
// squared loadings per factor. With normalize set, rows are scaled to unit
// length first (Kaiser normalisation) and rescaled afterwards.
func Varimax(load *mat.Dense, normalize bool, maxIter int, tol float64) *mat.Dense {
	p, m := load.Dims()
	x := mat.DenseCopyOf(load)
	if m < 2 {
		return x
	}
	norms := make([]float64, p)
	if normalize {
		for i := 0; i < p; i++ {
			norms[i] = math.Sqrt(mat.Dot(x.RowView(i), x.RowView(i)))
			if norms[i] == 0 {
				continue
			}
			for j := 0; j < m; j++ {
				x.Set(i, j, x.At(i, j)/norms[i])
			}
		}
	}

	rot := mat.NewDense(m, m, nil)
	for j := 0; j < m; j++ {
		rot.Set(j, j, 1)
	}
	d := 0.0
	for it := 0; it < maxIter; it++ {
		old := d
		var basis mat.Dense
		basis.Mul(x, rot)
		colSq := make([]float64, m)
		for j := 0; j < m; j++ {
			for i := 0; i < p; i++ {
				b := basis.At(i, j)
				colSq[j] += b * b
			}
		}
		target := mat.NewDense(p, m, nil)
		for i := 0; i < p; i++ {
			for j := 0; j < m; j++ {
				b := basis.At(i, j)
				target.Set(i, j, b*b*b-b*colSq[j]/float64(p))
			}
		}
		var tr mat.Dense
		tr.Mul(x.T(), target)
		var svd mat.SVD
		if ok := svd.Factorize(&tr, mat.SVDFull); !ok {
			break
		}
		var u, v mat.Dense
		svd.UTo(&u)
		svd.VTo(&v)
		rot.Mul(&u, v.T())
		d = 0
		for _, s := range svd.Values(nil) {
			d += s
		}
		if d < old*(1+tol) {
			break
		}
	}
	var out mat.Dense
	out.Mul(x, rot)
	if normalize {
		for i := 0; i < p; i++ {
			if norms[i] == 0 {
				continue
			}
			for j := 0; j < m; j++ {
				out.Set(i, j, out.At(i, j)*norms[i])
			}
		}
	}
	return &out
}
