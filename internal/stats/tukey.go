package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TukeyPair is one pairwise comparison of Tukey's honestly significant
// difference test. MeanDiff is mean(Group2) - mean(Group1).
type TukeyPair struct {
	Group1   string
	Group2   string
	MeanDiff float64
	PAdj     float64
	Lower    float64
	Upper    float64
	Reject   bool
}

// TukeyHSD compares every pair of groups at family-wise level alpha.
// labels and groups are parallel; NaN values are ignored.
func TukeyHSD(labels []string, groups [][]float64, alpha float64) ([]TukeyPair, error) {
	if len(labels) != len(groups) {
		return nil, fmt.Errorf("tukey: %d labels for %d groups", len(labels), len(groups))
	}
	var names []string
	var gs [][]float64
	for i, g := range groups {
		if c := clean(g); len(c) > 0 {
			names = append(names, labels[i])
			gs = append(gs, c)
		}
	}
	a, err := OneWay(gs)
	if err != nil {
		return nil, fmt.Errorf("tukey: %w", err)
	}
	k := float64(len(gs))
	df := a.DfWithin
	mse := a.MSE()
	qcrit := QTukey(1-alpha, k, df)

	means := make([]float64, len(gs))
	for i, g := range gs {
		means[i] = stat.Mean(g, nil)
	}
	var out []TukeyPair
	for i := 0; i < len(gs); i++ {
		for j := i + 1; j < len(gs); j++ {
			diff := means[j] - means[i]
			se := math.Sqrt(mse / 2 * (1/float64(len(gs[i])) + 1/float64(len(gs[j]))))
			p := PTukeyUpper(math.Abs(diff)/se, k, df)
			out = append(out, TukeyPair{
				Group1:   names[i],
				Group2:   names[j],
				MeanDiff: diff,
				PAdj:     p,
				Lower:    diff - qcrit*se,
				Upper:    diff + qcrit*se,
				Reject:   p < alpha,
			})
		}
	}
	return out, nil
}

// PTukeyUpper returns P(Q > q) for the studentized range with k means and df
// degrees of freedom.
func PTukeyUpper(q, k, df float64) float64 {
	if math.IsNaN(q) {
		return math.NaN()
	}
	if math.IsInf(q, 1) {
		return 0
	}
	p := 1 - PTukey(q, 1, k, df)
	if p < 0 {
		return 0
	}
	return p
}

// QTukey inverts PTukey (one range) by bisection.
func QTukey(p, k, df float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return math.Inf(1)
	}
	lo, hi := 0.0, 1.0
	for PTukey(hi, 1, k, df) < p {
		hi *= 2
		if hi > 1e4 {
			return math.NaN()
		}
	}
	for i := 0; i < 200 && hi-lo > 1e-10; i++ {
		mid := (lo + hi) / 2
		if PTukey(mid, 1, k, df) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

var stdNormal = distuv.UnitNormal

// wprob is the probability integral of Hartley's form of the range for an
// infinite number of degrees of freedom.
func wprob(w, rr, cc float64) float64 {
	const (
		nleg   = 12
		ihalf  = 6
		c1     = -30.0
		c2     = -50.0
		c3     = 60.0
		bb     = 8.0
		wlar   = 3.0
		wincr1 = 2.0
		wincr2 = 3.0
	)
	xleg := [ihalf]float64{
		0.981560634246719250690549090149,
		0.904117256370474856678465866119,
		0.769902674194304687036893833213,
		0.587317954286617447296702418941,
		0.367831498998180193752691536644,
		0.125233408511468915472441369464,
	}
	aleg := [ihalf]float64{
		0.047175336386511827194615961485,
		0.106939325995318430960254718194,
		0.160078328543346226334652529543,
		0.203167426723065921749064455810,
		0.233492536538354808760849898925,
		0.249147045813402785000562436043,
	}
	qsqz := w * 0.5
	if qsqz >= bb {
		return 1
	}
	prW := 2*stdNormal.CDF(qsqz) - 1
	if prW >= math.Exp(c2/cc) {
		prW = math.Pow(prW, cc)
	} else {
		prW = 0
	}
	wincr := wincr2
	if w > wlar {
		wincr = wincr1
	}
	blb := qsqz
	binc := (bb - qsqz) / wincr
	bub := blb + binc
	einsum := 0.0
	cc1 := cc - 1
	for wi := 1.0; wi <= wincr; wi++ {
		elsum := 0.0
		a := 0.5 * (bub + blb)
		b := 0.5 * (bub - blb)
		for jj := 1; jj <= nleg; jj++ {
			var j int
			var xx float64
			if ihalf < jj {
				j = nleg - jj + 1
				xx = xleg[j-1]
			} else {
				j = jj
				xx = -xleg[j-1]
			}
			c := b * xx
			ac := a + c
			qexpo := ac * ac
			if qexpo > c3 {
				break
			}
			pplus := 2 * stdNormal.CDF(ac)
			pminus := 2 * stdNormal.CDF(ac-w)
			rinsum := pplus*0.5 - pminus*0.5
			if rinsum >= math.Exp(c1/cc1) {
				rinsum = aleg[j-1] * math.Exp(-0.5*qexpo) * math.Pow(rinsum, cc1)
				elsum += rinsum
			}
		}
		elsum *= 2 * b * cc / math.Sqrt(2*math.Pi)
		einsum += elsum
		blb = bub
		bub += binc
	}
	prW += einsum
	if prW <= math.Exp(c1/rr) {
		return 0
	}
	prW = math.Pow(prW, rr)
	if prW >= 1 {
		return 1
	}
	return prW
}

// PTukey is the CDF of the studentized range distribution with rr ranges,
// cc means and df degrees of freedom (Gauss-Legendre quadrature over the
// chi density).
func PTukey(q, rr, cc, df float64) float64 {
	const (
		nlegq  = 16
		ihalfq = 8
		eps1   = -30.0
		eps2   = 1.0e-14
		dhaf   = 100.0
		dquar  = 800.0
		deigh  = 5000.0
		dlarg  = 25000.0
	)
	xlegq := [ihalfq]float64{
		0.989400934991649932596154173450,
		0.944575023073232576077988415535,
		0.865631202387831743880467897712,
		0.755404408355003033895101194847,
		0.617876244402643748446671764049,
		0.458016777657227386342419442984,
		0.281603550779258913230460501460,
		0.950125098376374401853193354250e-1,
	}
	alegq := [ihalfq]float64{
		0.271524594117540948517805724560e-1,
		0.622535239386478928628438369944e-1,
		0.951585116824927848099251076022e-1,
		0.124628971255533872052476282192,
		0.149595988816576732081501730547,
		0.169156519395002538189312079030,
		0.182603415044923588866763667969,
		0.189450610455068496285396723208,
	}
	if math.IsNaN(q) || math.IsNaN(rr) || math.IsNaN(cc) || math.IsNaN(df) {
		return math.NaN()
	}
	if q <= 0 {
		return 0
	}
	if df < 2 || rr < 1 || cc < 2 {
		return math.NaN()
	}
	if math.IsInf(q, 1) {
		return 1
	}
	if df > dlarg {
		return wprob(q, rr, cc)
	}

	f2 := df * 0.5
	lg, _ := math.Lgamma(f2)
	f2lf := f2*math.Log(df) - df*math.Ln2 - lg
	f21 := f2 - 1
	ff4 := df * 0.25
	var ulen float64
	switch {
	case df <= dhaf:
		ulen = 1
	case df <= dquar:
		ulen = 0.5
	case df <= deigh:
		ulen = 0.25
	default:
		ulen = 0.125
	}
	f2lf += math.Log(ulen)

	ans := 0.0
	for i := 1; i <= 50; i++ {
		otsum := 0.0
		twa1 := float64(2*i-1) * ulen
		for jj := 1; jj <= nlegq; jj++ {
			var j int
			var t1 float64
			if ihalfq < jj {
				j = jj - ihalfq - 1
				t1 = f2lf + f21*math.Log(twa1+xlegq[j]*ulen) - (xlegq[j]*ulen+twa1)*ff4
			} else {
				j = jj - 1
				t1 = f2lf + f21*math.Log(twa1-xlegq[j]*ulen) + (xlegq[j]*ulen-twa1)*ff4
			}
			if t1 >= eps1 {
				var qsqz float64
				if ihalfq < jj {
					qsqz = q * math.Sqrt((xlegq[j]*ulen+twa1)*0.5)
				} else {
					qsqz = q * math.Sqrt((-(xlegq[j]*ulen)+twa1)*0.5)
				}
				wprb := wprob(qsqz, rr, cc)
				otsum += wprb * alegq[j] * math.Exp(t1)
			}
		}
		if float64(i)*ulen >= 1 && otsum <= eps2 {
			break
		}
		ans += otsum
	}
	if ans > 1 {
		ans = 1
	}
	return ans
}
