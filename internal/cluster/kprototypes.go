// Package cluster implements k-prototypes clustering for mixed numeric and
// categorical survey data, plus the metrics used to pick the cluster count.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const maxInitTries = 20

var (
	// ErrEmptyCluster is returned when no initialisation yields k non-empty
	// clusters.
	ErrEmptyCluster = errors.New("initialisation produced an empty cluster")
	// ErrLabelCount is returned by the metrics when the number of distinct
	// labels is outside [2, n-1].
	ErrLabelCount = errors.New("number of labels must be between 2 and n_samples-1")
)

// Options configures KPrototypes. Zero values select the defaults.
type Options struct {
	K       int
	NInit   int     // restarts, best cost wins (default 10)
	MaxIter int     // per restart (default 100)
	Seed    int64   // base seed for the restarts
	Gamma   float64 // weight of categorical mismatches; 0 = 0.5 x mean numeric std
}

func (o Options) withDefaults() Options {
	if o.NInit <= 0 {
		o.NInit = 10
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 100
	}
	return o
}

// Result is the best of the k-prototypes restarts.
type Result struct {
	Labels       []int
	NumCentroids [][]float64
	CatCentroids [][]string
	// Cost is the sum of squared numeric distances plus gamma times the
	// categorical mismatches of every point to its prototype.
	Cost  float64
	Gamma float64
	NIter int
}

// Sizes returns the number of members per cluster.
func (r *Result) Sizes() []int {
	out := make([]int, len(r.NumCentroids))
	for _, l := range r.Labels {
		out[l]++
	}
	return out
}

// KPrototypes clusters n rows described by numeric attributes (num, rows x p)
// and categorical attributes (cat, rows x q). Either may be nil. Categorical
// prototypes are initialised with Huang's method, numeric ones around the
// column means.
func KPrototypes(num [][]float64, cat [][]string, opt Options) (*Result, error) {
	opt = opt.withDefaults()
	n := len(num)
	if len(cat) > n {
		n = len(cat)
	}
	if num != nil && len(num) != n || cat != nil && len(cat) != n {
		return nil, fmt.Errorf("k-prototypes: numeric rows %d, categorical rows %d", len(num), len(cat))
	}
	if opt.K < 1 || opt.K > n {
		return nil, fmt.Errorf("k-prototypes: cannot form %d clusters from %d rows", opt.K, n)
	}
	d := newData(num, cat, n)
	if d.p == 0 && d.q == 0 {
		return nil, fmt.Errorf("k-prototypes: no attributes")
	}
	for i := 0; i < n; i++ {
		for j := 0; j < d.p; j++ {
			if math.IsNaN(d.num[i][j]) {
				return nil, fmt.Errorf("k-prototypes: missing numeric value at row %d", i)
			}
		}
	}

	gamma := opt.Gamma
	if gamma == 0 {
		gamma = 1
		if d.p > 0 {
			sum := 0.0
			for _, s := range d.std {
				sum += s
			}
			gamma = 0.5 * sum / float64(d.p)
		}
	}

	seeder := rand.New(rand.NewSource(opt.Seed))
	var best *run
	var lastErr error
	for r := 0; r < opt.NInit; r++ {
		rn := &run{data: d, k: opt.K, gamma: gamma, rng: rand.New(rand.NewSource(seeder.Int63()))}
		if err := rn.fit(opt.MaxIter); err != nil {
			lastErr = err
			continue
		}
		if best == nil || rn.cost < best.cost {
			best = rn
		}
	}
	if best == nil {
		return nil, fmt.Errorf("k-prototypes: %w", lastErr)
	}
	return best.result(), nil
}

// data holds the encoded attributes of every row.
type data struct {
	n, p, q int
	num     [][]float64
	cat     [][]int
	levels  [][]string // per categorical attribute, code -> value
	mean    []float64
	std     []float64
}

func newData(num [][]float64, cat [][]string, n int) *data {
	d := &data{n: n, num: make([][]float64, n), cat: make([][]int, n)}
	if len(num) > 0 {
		d.p = len(num[0])
	}
	if len(cat) > 0 {
		d.q = len(cat[0])
	}
	for i := 0; i < n; i++ {
		if d.p > 0 {
			d.num[i] = num[i]
		}
		d.cat[i] = make([]int, d.q)
	}
	for j := 0; j < d.q; j++ {
		seen := map[string]bool{}
		for i := 0; i < n; i++ {
			seen[cat[i][j]] = true
		}
		vals := make([]string, 0, len(seen))
		for v := range seen {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		code := make(map[string]int, len(vals))
		for c, v := range vals {
			code[v] = c
		}
		for i := 0; i < n; i++ {
			d.cat[i][j] = code[cat[i][j]]
		}
		d.levels = append(d.levels, vals)
	}
	col := make([]float64, n)
	for j := 0; j < d.p; j++ {
		for i := 0; i < n; i++ {
			col[i] = d.num[i][j]
		}
		mu, v := stat.PopMeanVariance(col, nil)
		d.mean = append(d.mean, mu)
		d.std = append(d.std, math.Sqrt(v))
	}
	return d
}

// run is one restart.
type run struct {
	data  *data
	k     int
	gamma float64
	rng   *rand.Rand

	cNum   [][]float64
	cCat   [][]int
	sums   [][]float64
	counts []int
	freq   [][][]int // cluster -> attribute -> code -> count
	labels []int
	cost   float64
	iters  int
}

func (r *run) fit(maxIter int) error {
	ok := false
	for try := 0; try < maxInitTries && !ok; try++ {
		r.initCentroids()
		r.assignAll()
		ok = true
		for _, c := range r.counts {
			if c == 0 {
				ok = false
				break
			}
		}
	}
	if !ok {
		return ErrEmptyCluster
	}
	for c := 0; c < r.k; c++ {
		r.updateCentroid(c)
	}
	r.cost = r.totalCost()
	for r.iters < maxIter {
		r.iters++
		moves := r.iterate()
		cost := r.totalCost()
		converged := moves == 0 || cost >= r.cost
		r.cost = cost
		if converged {
			break
		}
	}
	return nil
}

func (r *run) initCentroids() {
	d := r.data
	r.cNum = make([][]float64, r.k)
	r.cCat = make([][]int, r.k)
	for c := 0; c < r.k; c++ {
		r.cNum[c] = make([]float64, d.p)
		for j := 0; j < d.p; j++ {
			r.cNum[c][j] = d.mean[j] + r.rng.NormFloat64()*d.std[j]
		}
		r.cCat[c] = make([]int, d.q)
	}
	if d.q == 0 {
		return
	}
	// Huang: sample each attribute by its frequency, then snap every
	// prototype to the closest row matching no other current prototype.
	choices := make([]int, d.n)
	for j := 0; j < d.q; j++ {
		for i := 0; i < d.n; i++ {
			choices[i] = d.cat[i][j]
		}
		sort.Ints(choices)
		for c := 0; c < r.k; c++ {
			r.cCat[c][j] = choices[r.rng.Intn(d.n)]
		}
	}
	order := make([]int, d.n)
	dist := make([]int, d.n)
	for c := 0; c < r.k; c++ {
		for i := 0; i < d.n; i++ {
			order[i] = i
			dist[i] = mismatches(d.cat[i], r.cCat[c])
		}
		sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })
		pick := 0
		for pick < d.n-1 && r.isPrototype(d.cat[order[pick]], c) {
			pick++
		}
		r.cCat[c] = append([]int(nil), d.cat[order[pick]]...)
	}
}

// isPrototype reports whether row equals any prototype other than skip.
func (r *run) isPrototype(row []int, skip int) bool {
	for c, proto := range r.cCat {
		if c != skip && mismatches(row, proto) == 0 {
			return true
		}
	}
	return false
}

func (r *run) resetStats() {
	d := r.data
	r.sums = make([][]float64, r.k)
	r.counts = make([]int, r.k)
	r.freq = make([][][]int, r.k)
	for c := 0; c < r.k; c++ {
		r.sums[c] = make([]float64, d.p)
		r.freq[c] = make([][]int, d.q)
		for j := 0; j < d.q; j++ {
			r.freq[c][j] = make([]int, len(d.levels[j]))
		}
	}
}

func (r *run) assignAll() {
	r.resetStats()
	r.labels = make([]int, r.data.n)
	for i := 0; i < r.data.n; i++ {
		c := r.nearest(i)
		r.labels[i] = c
		r.add(i, c)
	}
}

func (r *run) nearest(i int) int {
	best, bestD := 0, math.Inf(1)
	for c := 0; c < r.k; c++ {
		if dd := r.dissim(i, c); dd < bestD {
			best, bestD = c, dd
		}
	}
	return best
}

func (r *run) dissim(i, c int) float64 {
	d := r.data
	sum := 0.0
	for j := 0; j < d.p; j++ {
		diff := d.num[i][j] - r.cNum[c][j]
		sum += diff * diff
	}
	return sum + r.gamma*float64(mismatches(d.cat[i], r.cCat[c]))
}

func (r *run) add(i, c int) {
	d := r.data
	r.counts[c]++
	for j := 0; j < d.p; j++ {
		r.sums[c][j] += d.num[i][j]
	}
	for j := 0; j < d.q; j++ {
		r.freq[c][j][d.cat[i][j]]++
	}
}

func (r *run) remove(i, c int) {
	d := r.data
	r.counts[c]--
	for j := 0; j < d.p; j++ {
		r.sums[c][j] -= d.num[i][j]
	}
	for j := 0; j < d.q; j++ {
		r.freq[c][j][d.cat[i][j]]--
	}
}

func (r *run) updateCentroid(c int) {
	d := r.data
	for j := 0; j < d.p; j++ {
		if r.counts[c] == 0 {
			r.cNum[c][j] = 0
			continue
		}
		r.cNum[c][j] = r.sums[c][j] / float64(r.counts[c])
	}
	for j := 0; j < d.q; j++ {
		mode, top := 0, -1
		for code, f := range r.freq[c][j] {
			if f > top {
				mode, top = code, f
			}
		}
		r.cCat[c][j] = mode
	}
}

func (r *run) move(i, from, to int) {
	r.remove(i, from)
	r.add(i, to)
	r.labels[i] = to
	r.updateCentroid(from)
	r.updateCentroid(to)
}

// iterate reassigns every point in turn and returns the number of moves.
// A cluster emptied by a move is refilled with a random member of the
// largest cluster.
func (r *run) iterate() int {
	moves := 0
	for i := 0; i < r.data.n; i++ {
		to := r.nearest(i)
		from := r.labels[i]
		if to == from {
			continue
		}
		moves++
		r.move(i, from, to)
		if r.counts[from] > 0 {
			continue
		}
		largest := 0
		for c, cnt := range r.counts {
			if cnt > r.counts[largest] {
				largest = c
			}
		}
		var members []int
		for p, l := range r.labels {
			if l == largest {
				members = append(members, p)
			}
		}
		r.move(members[r.rng.Intn(len(members))], largest, from)
	}
	return moves
}

func (r *run) totalCost() float64 {
	sum := 0.0
	for i, c := range r.labels {
		sum += r.dissim(i, c)
	}
	return sum
}

func (r *run) result() *Result {
	d := r.data
	res := &Result{
		Labels: append([]int(nil), r.labels...),
		Cost:   r.cost,
		Gamma:  r.gamma,
		NIter:  r.iters,
	}
	for c := 0; c < r.k; c++ {
		res.NumCentroids = append(res.NumCentroids, append([]float64(nil), r.cNum[c]...))
		cc := make([]string, d.q)
		for j := 0; j < d.q; j++ {
			cc[j] = d.levels[j][r.cCat[c][j]]
		}
		res.CatCentroids = append(res.CatCentroids, cc)
	}
	return res
}

func mismatches(a, b []int) int {
	n := 0
	for j := range a {
		if a[j] != b[j] {
			n++
		}
	}
	return n
}
