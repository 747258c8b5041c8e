package motion

import (
	"fmt"
	"math"
	"sort"
)

const (
	// minCycles is the number of peak/valley pairs needed to estimate a stable period
	minCycles = 3

	// maxPadFraction caps segment padding at this fraction of a half-period
	maxPadFraction = 0.75
)

// BuildSegments pairs peaks with valleys into one segment per movement cycle.
//
// Each cycle runs from a leading event to the trailing event of the opposite
// kind; whichever kind occurs first in the signal leads. The distance between
// them is the cycle's half-period. Every segment is widened on both sides by
// the same fraction of its own half-period, chosen as the smallest of: the
// lead-in before the first cycle, the tail after the last cycle, the tightest
// inter-cycle gap (relative to the two neighbouring half-periods) and 0.75.
// Padded segments may overlap their neighbours.
//
// When more than three pairs are given, the three with the largest combined
// peak+valley prominence are used. targetCount > 0 requires at least that many
// segments.
func BuildSegments(peaks, valleys []Event, signalLength, targetCount int) ([]Segment, error) {
	if len(peaks) < minCycles || len(valleys) < minCycles {
		return nil, fmt.Errorf("%d peaks, %d valleys: %w", len(peaks), len(valleys), ErrInsufficientEvents)
	}
	if len(peaks) != len(valleys) {
		return nil, fmt.Errorf("%d peaks vs %d valleys: %w", len(peaks), len(valleys), ErrMismatchedEvents)
	}

	peaks = append([]Event(nil), peaks...)
	valleys = append([]Event(nil), valleys...)
	sortByIndex(peaks)
	sortByIndex(valleys)

	if len(peaks) > minCycles {
		peaks, valleys = strongestPairs(peaks, valleys, minCycles)
	}

	leading, trailing := peaks, valleys
	if valleys[0].Index <= peaks[0].Index {
		leading, trailing = valleys, peaks
	}

	n := len(leading)
	periods := make([]float64, n)
	for i := range leading {
		periods[i] = float64(trailing[i].Index - leading[i].Index)
		if periods[i] <= 0 {
			return nil, fmt.Errorf("cycle %d spans %d..%d: %w", i, leading[i].Index, trailing[i].Index, ErrDegeneratePeriod)
		}
	}

	pre := float64(leading[0].Index) / periods[0]
	post := float64(signalLength-trailing[n-1].Index) / periods[n-1]

	minInterval := math.Inf(1)
	for i := 0; i < n-1; i++ {
		interval := float64(leading[i+1].Index - trailing[i].Index)
		minInterval = math.Min(minInterval, interval/(periods[i]+periods[i+1]))
	}

	pad := math.Min(math.Min(pre, post), math.Min(minInterval, maxPadFraction))

	segments := make([]Segment, 0, n)
	for i := range leading {
		seg := Segment{
			Start: int(float64(leading[i].Index) - pad*periods[i]),
			End:   int(float64(trailing[i].Index) + pad*periods[i]),
		}
		if seg.Start < 0 || seg.Start >= seg.End || seg.End > signalLength {
			return nil, fmt.Errorf("cycle %d padded to %d..%d of %d: %w", i, seg.Start, seg.End, signalLength, ErrInvalidSegment)
		}
		segments = append(segments, seg)
	}

	if targetCount > 0 && len(segments) < targetCount {
		return nil, fmt.Errorf("built %d of %d segments: %w", len(segments), targetCount, ErrTooFewSegments)
	}

	return segments, nil
}

// strongestPairs keeps the k positions with the largest peak+valley prominence,
// each list re-sorted by index. The lists must have equal length.
func strongestPairs(peaks, valleys []Event, k int) ([]Event, []Event) {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return peaks[order[a]].Prominence+valleys[order[a]].Prominence <
			peaks[order[b]].Prominence+valleys[order[b]].Prominence
	})
	keep := order[len(order)-k:]

	keptPeaks := make([]Event, 0, k)
	keptValleys := make([]Event, 0, k)
	for _, i := range keep {
		keptPeaks = append(keptPeaks, peaks[i])
		keptValleys = append(keptValleys, valleys[i])
	}
	sortByIndex(keptPeaks)
	sortByIndex(keptValleys)
	return keptPeaks, keptValleys
}

// EqualDivision splits [0,n) into parts contiguous ranges of n/parts samples,
// the last range absorbing the remainder. End is exclusive.
func EqualDivision(n, parts int) []Segment {
	if parts < 1 || n < 1 {
		return nil
	}
	length := n / parts
	segments := make([]Segment, parts)
	for i := 0; i < parts; i++ {
		end := (i + 1) * length
		if i == parts-1 {
			end = n
		}
		segments[i] = Segment{Start: i * length, End: end}
	}
	return segments
}

// EqualDivisionInclusive is EqualDivision with inclusive ends: each range
// stops one sample before the next begins and the last ends at n-1
func EqualDivisionInclusive(n, parts int) []Segment {
	segments := EqualDivision(n, parts)
	for i := range segments {
		segments[i].End--
	}
	return segments
}

// Overlaps reports whether any segment starts before its predecessor ends
func Overlaps(segments []Segment) bool {
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].End {
			return true
		}
	}
	return false
}
