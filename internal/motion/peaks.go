package motion

// FindPeaks returns the local maxima of x whose prominence is at least
// minProminence, in index order. The first and last samples are never peaks.
// A flat top of equal samples counts as one peak at the middle of the plateau
// (rounded down).
func FindPeaks(x []float64, minProminence float64) []Event {
	var events []Event
	for _, idx := range localMaxima(x) {
		p := prominence(x, idx)
		if p >= minProminence {
			events = append(events, Event{Index: idx, Prominence: p, Kind: Peak})
		}
	}
	return events
}

// FindValleys returns the local minima of x, found as the peaks of -x
func FindValleys(x []float64, minProminence float64) []Event {
	return asValleys(FindPeaks(negate(x), minProminence))
}

func localMaxima(x []float64) []int {
	var maxima []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				maxima = append(maxima, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return maxima
}

// prominence measures how far the peak at idx rises above the higher of the
// two lowest points reachable on either side before meeting a taller sample
func prominence(x []float64, idx int) float64 {
	height := x[idx]

	leftMin := height
	for i := idx; i >= 0 && x[i] <= height; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
		}
	}

	rightMin := height
	for i := idx; i < len(x) && x[i] <= height; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return height - base
}

func negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

// clampBelow returns a copy of x with every value under floor replaced by floor
func clampBelow(x []float64, floor float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if v < floor {
			v = floor
		}
		out[i] = v
	}
	return out
}
