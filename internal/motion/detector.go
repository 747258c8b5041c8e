package motion

import (
	"fmt"
	"sort"
)

const (
	// DefaultNoiseProminence is the synthetic prominence appended before Otsu thresholding
	DefaultNoiseProminence = 1.0

	// FixedCountMinProminence is the minimum prominence an event needs to be ranked by the fixed-count strategy
	FixedCountMinProminence = 5.0
)

// Detector finds the significant peaks and valleys of a signal.
// Implementations return events sorted by index.
type Detector interface {
	Detect(signal []float64) (Events, error)
}

// DetectorType identifies an event significance strategy
type DetectorType string

const (
	// DetectorTypeAdaptive keeps events above an Otsu threshold of their prominences
	DetectorTypeAdaptive DetectorType = "adaptive"

	// DetectorTypeFixed keeps a fixed number of peak/valley cycles, strongest first
	DetectorTypeFixed DetectorType = "fixed"
)

// NewDetector returns the detector for a strategy. count is only used by DetectorTypeFixed.
func NewDetector(t DetectorType, count int) (Detector, error) {
	switch t {
	case DetectorTypeAdaptive, "":
		return AdaptiveDetector{NoiseProminence: DefaultNoiseProminence, Bins: DefaultOtsuBins}, nil
	case DetectorTypeFixed:
		if count < 1 {
			return nil, fmt.Errorf("fixed-count detector needs a positive count, got %d", count)
		}
		return FixedCountDetector{Count: count, MinProminence: FixedCountMinProminence}, nil
	default:
		return nil, fmt.Errorf("unknown detector type %q", t)
	}
}

// AdaptiveDetector separates real extrema from noise-level ones with Otsu's method
type AdaptiveDetector struct {
	// NoiseProminence is appended to the prominence list so the histogram is
	// never built from a single value
	NoiseProminence float64
	Bins            int
}

// Detect implements Detector
func (d AdaptiveDetector) Detect(signal []float64) (Events, error) {
	if err := ValidateSamples(signal); err != nil {
		return Events{}, err
	}

	bins := d.Bins
	if bins == 0 {
		bins = DefaultOtsuBins
	}

	peaks := FindPeaks(clampBelow(signal, 0), 0)
	valleys := asValleys(FindPeaks(clampBelow(negate(signal), 0), 0))

	return Events{
		Peaks:   selectAboveThreshold(peaks, d.NoiseProminence, bins),
		Valleys: selectAboveThreshold(valleys, d.NoiseProminence, bins),
	}, nil
}

// DetectAdaptive runs the adaptive strategy with the default histogram resolution
func DetectAdaptive(signal []float64, noiseProminence float64) (Events, error) {
	return AdaptiveDetector{NoiseProminence: noiseProminence, Bins: DefaultOtsuBins}.Detect(signal)
}

// ProminenceThreshold computes the Otsu threshold of the events' prominences
// with one synthetic noise prominence appended
func ProminenceThreshold(events []Event, noiseProminence float64, bins int) Threshold {
	prominences := make([]float64, 0, len(events)+1)
	for _, e := range events {
		prominences = append(prominences, e.Prominence)
	}
	prominences = append(prominences, noiseProminence)
	return OtsuThreshold(prominences, bins)
}

func selectAboveThreshold(events []Event, noiseProminence float64, bins int) []Event {
	cut := ProminenceThreshold(events, noiseProminence, bins).Cut()

	selected := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Prominence > cut {
			selected = append(selected, e)
		}
	}
	return selected
}

// FixedCountDetector pairs each peak with the valley that follows it (or the
// reverse, whichever kind comes first) and keeps the Count cycles with the
// highest combined prominence
type FixedCountDetector struct {
	Count         int
	MinProminence float64
}

// Detect implements Detector. Peaks[i] and Valleys[i] of the result always
// belong to the same cycle.
func (d FixedCountDetector) Detect(signal []float64) (Events, error) {
	if err := ValidateSamples(signal); err != nil {
		return Events{}, err
	}
	if d.Count < 1 {
		return Events{}, fmt.Errorf("fixed-count detector needs a positive count, got %d", d.Count)
	}

	peaks, valleys := pairByTime(FindPeaks(signal, d.MinProminence), FindValleys(signal, d.MinProminence))
	if len(peaks) > d.Count {
		peaks, valleys = strongestPairs(peaks, valleys, d.Count)
	}
	return Events{Peaks: peaks, Valleys: valleys}, nil
}

// DetectTopK runs the fixed-count strategy with the standard minimum prominence
func DetectTopK(signal []float64, k int) (Events, error) {
	return FixedCountDetector{Count: k, MinProminence: FixedCountMinProminence}.Detect(signal)
}

// pairByTime matches every event of the kind that occurs first with the next
// event of the other kind, as long as that one comes before the following
// leading event. Unmatched events are dropped. The returned slices are
// parallel and in index order.
func pairByTime(peaks, valleys []Event) ([]Event, []Event) {
	if len(peaks) == 0 || len(valleys) == 0 {
		return nil, nil
	}
	leading, trailing := peaks, valleys
	peaksLead := true
	if valleys[0].Index < peaks[0].Index {
		leading, trailing = valleys, peaks
		peaksLead = false
	}

	var pairedPeaks, pairedValleys []Event
	j := 0
	for i, lead := range leading {
		for j < len(trailing) && trailing[j].Index <= lead.Index {
			j++
		}
		if j == len(trailing) {
			break
		}
		if i+1 < len(leading) && trailing[j].Index >= leading[i+1].Index {
			continue
		}
		if peaksLead {
			pairedPeaks, pairedValleys = append(pairedPeaks, lead), append(pairedValleys, trailing[j])
		} else {
			pairedPeaks, pairedValleys = append(pairedPeaks, trailing[j]), append(pairedValleys, lead)
		}
	}
	return pairedPeaks, pairedValleys
}

func sortByIndex(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Index < events[j].Index
	})
}

func asValleys(events []Event) []Event {
	for i := range events {
		events[i].Kind = Valley
	}
	return events
}

// Indices returns the sample indices of the events
func Indices(events []Event) []int {
	idx := make([]int, len(events))
	for i, e := range events {
		idx[i] = e.Index
	}
	return idx
}

// Prominences returns the prominences of the events, parallel to Indices
func Prominences(events []Event) []float64 {
	p := make([]float64, len(events))
	for i, e := range events {
		p[i] = e.Prominence
	}
	return p
}
