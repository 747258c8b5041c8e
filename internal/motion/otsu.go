package motion

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultOtsuBins is the histogram resolution used for prominence thresholding
const DefaultOtsuBins = 256

// OtsuThreshold splits values into two classes with Otsu's method.
// The values are binned into nbins equal-width bins spanning [min, max]; for
// every split between adjacent bins the between-class variance
// w1*w2*(mean1-mean2)^2 is computed from bin counts and bin centers, and the
// center of the last bin of the lower class at the best split is returned.
// Ties resolve to the lowest split.
//
// If all values are equal (or there are none) no split exists and the
// returned threshold equals the largest value with zero bin width, which
// selects nothing under a strict greater-than comparison.
func OtsuThreshold(values []float64, nbins int) Threshold {
	if len(values) == 0 {
		return Threshold{Value: math.Inf(1)}
	}
	if nbins < 2 {
		nbins = DefaultOtsuBins
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return Threshold{Value: hi}
	}

	edges := make([]float64, nbins+1)
	floats.Span(edges, lo, hi)

	centers := make([]float64, nbins)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}

	// The top edge is nudged up so the maximum lands in the last bin
	dividers := append([]float64(nil), edges...)
	dividers[nbins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	weighted := make([]float64, nbins)
	floats.MulTo(weighted, counts, centers)

	// Cumulative weight and weighted sum from the left (class 1) and right (class 2)
	weight1 := floats.CumSum(make([]float64, nbins), counts)
	sum1 := floats.CumSum(make([]float64, nbins), weighted)
	weight2 := reverseCumSum(counts)
	sum2 := reverseCumSum(weighted)

	best := -1
	bestVariance := math.Inf(-1)
	for i := 0; i < nbins-1; i++ {
		w1, w2 := weight1[i], weight2[i+1]
		if w1 == 0 || w2 == 0 {
			continue
		}
		mean1 := sum1[i] / w1
		mean2 := sum2[i+1] / w2
		variance := w1 * w2 * (mean1 - mean2) * (mean1 - mean2)
		if variance > bestVariance {
			bestVariance = variance
			best = i
		}
	}

	if best < 0 {
		return Threshold{Value: hi}
	}

	return Threshold{
		Value:    centers[best],
		BinWidth: centers[1] - centers[0],
	}
}

func reverseCumSum(s []float64) []float64 {
	out := make([]float64, len(s))
	acc := 0.0
	for i := len(s) - 1; i >= 0; i-- {
		acc += s[i]
		out[i] = acc
	}
	return out
}
