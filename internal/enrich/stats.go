package enrich

import (
	"math"
	"sort"
)

// Label used when quantile edges collapse and no bucketing is possible.
const labelStandard = "Standard"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// stddev is the sample standard deviation; NaN below two values.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func sortedCopy(xs []float64) []float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s
}

// qcut assigns each value to one of len(labels) equal-frequency bins. Bins are
// right-closed with the lowest edge included. When two edges coincide every value gets
// labelStandard.
func qcut(xs []float64, labels []string) []string {
	out := make([]string, len(xs))
	if len(xs) == 0 {
		return out
	}
	s := sortedCopy(xs)
	k := len(labels)
	edges := make([]float64, k+1)
	for i := range edges {
		edges[i] = quantile(s, float64(i)/float64(k))
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			for j := range out {
				out[j] = labelStandard
			}
			return out
		}
	}
	for j, x := range xs {
		out[j] = labels[k-1]
		for i := 1; i <= k; i++ {
			if x <= edges[i] {
				out[j] = labels[i-1]
				break
			}
		}
	}
	return out
}

// spreadCategory labels x against mean ± one sample standard deviation.
func spreadCategory(x, m, sd float64) string {
	switch {
	case x < m-sd:
		return "Économique"
	case x > m+sd:
		return "Premium"
	}
	return "Normal"
}

func quantityCategory(q int64) string {
	switch {
	case q <= 1:
		return "Unitaire"
	case q <= 3:
		return "Petit"
	case q <= 5:
		return "Moyen"
	}
	return "Gros"
}
