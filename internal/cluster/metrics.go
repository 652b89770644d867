package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

func labelSet(labels []int) (ids []int, index map[int]int) {
	index = map[int]int{}
	for _, l := range labels {
		if _, ok := index[l]; !ok {
			index[l] = len(ids)
			ids = append(ids, l)
		}
	}
	return ids, index
}

func checkLabels(x [][]float64, labels []int) (int, map[int]int, error) {
	if len(x) != len(labels) {
		return 0, nil, fmt.Errorf("%d rows but %d labels", len(x), len(labels))
	}
	ids, index := labelSet(labels)
	if len(ids) < 2 || len(ids) > len(x)-1 {
		return 0, nil, fmt.Errorf("%d labels for %d rows: %w", len(ids), len(x), ErrLabelCount)
	}
	return len(ids), index, nil
}

// Silhouette returns the mean silhouette coefficient using euclidean
// distance. Members of singleton clusters score 0.
func Silhouette(x [][]float64, labels []int) (float64, error) {
	k, index, err := checkLabels(x, labels)
	if err != nil {
		return 0, fmt.Errorf("silhouette: %w", err)
	}
	n := len(x)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[index[l]]++
	}
	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[index[labels[j]]] += floats.Distance(x[i], x[j], 2)
		}
		own := index[labels[i]]
		if sizes[own] == 1 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own {
				continue
			}
			b = math.Min(b, sums[c]/float64(sizes[c]))
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n), nil
}

// DaviesBouldin returns the Davies-Bouldin index: the mean, over clusters,
// of the worst ratio of summed within-cluster scatter to centroid distance.
// Lower is better.
func DaviesBouldin(x [][]float64, labels []int) (float64, error) {
	k, index, err := checkLabels(x, labels)
	if err != nil {
		return 0, fmt.Errorf("davies-bouldin: %w", err)
	}
	dim := len(x[0])
	centroids := make([][]float64, k)
	sizes := make([]int, k)
	for c := range centroids {
		centroids[c] = make([]float64, dim)
	}
	for i, row := range x {
		c := index[labels[i]]
		floats.Add(centroids[c], row)
		sizes[c]++
	}
	for c := range centroids {
		floats.Scale(1/float64(sizes[c]), centroids[c])
	}
	intra := make([]float64, k)
	for i, row := range x {
		c := index[labels[i]]
		intra[c] += floats.Distance(row, centroids[c], 2)
	}
	for c := range intra {
		intra[c] /= float64(sizes[c])
	}

	const eps = 1e-12
	allIntraZero, allCentersEqual := true, true
	dist := make([][]float64, k)
	for a := 0; a < k; a++ {
		if math.Abs(intra[a]) > eps {
			allIntraZero = false
		}
		dist[a] = make([]float64, k)
		for b := 0; b < k; b++ {
			dist[a][b] = floats.Distance(centroids[a], centroids[b], 2)
			if math.Abs(dist[a][b]) > eps {
				allCentersEqual = false
			}
		}
	}
	if allIntraZero || allCentersEqual {
		return 0, nil
	}
	sum := 0.0
	for a := 0; a < k; a++ {
		worst := 0.0
		for b := 0; b < k; b++ {
			if a == b {
				continue
			}
			dd := dist[a][b]
			if dd == 0 {
				dd = math.Inf(1)
			}
			worst = math.Max(worst, (intra[a]+intra[b])/dd)
		}
		sum += worst
	}
	return sum / float64(k), nil
}
