package motion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PhaseStatistics aggregates values over each segment, end index included.
// Names are taken by position; segments beyond the name list are called
// "Phase {n}". Segments that start past the end of values are skipped and an
// end past the data is clamped to the last sample.
func PhaseStatistics(values []float64, segments []Segment, names []string) ([]Phase, error) {
	if err := ValidateSamples(values); err != nil {
		return nil, err
	}

	phases := make([]Phase, 0, len(segments))
	for i, seg := range segments {
		if seg.Start < 0 || seg.End < seg.Start {
			return nil, fmt.Errorf("segment %d (%d..%d): %w", i, seg.Start, seg.End, ErrInvalidSegment)
		}
		if seg.Start >= len(values) {
			continue
		}

		end := seg.End + 1
		if end > len(values) {
			end = len(values)
		}

		name := fmt.Sprintf("Phase %d", i+1)
		if i < len(names) {
			name = names[i]
		}

		phase, err := Summarize(values[seg.Start:end])
		if err != nil {
			return nil, fmt.Errorf("segment %d (%d..%d): %w", i, seg.Start, seg.End, err)
		}
		phase.Name = name
		phase.Start = seg.Start
		phase.End = seg.End
		phases = append(phases, phase)
	}

	return phases, nil
}

// Summarize computes avg, max, min, population std and range of motion of a
// slice. The mean is kept within [min, max] against rounding. An empty slice
// returns ErrEmptyPhase.
func Summarize(values []float64) (Phase, error) {
	if len(values) == 0 {
		return Phase{}, ErrEmptyPhase
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	lo, hi := floats.Min(values), floats.Max(values)

	return Phase{
		Avg: math.Max(lo, math.Min(hi, mean)),
		Max: hi,
		Min: lo,
		Std: std,
		ROM: hi - lo,
	}, nil
}

// Columnar returns the parallel-array view of phases
func Columnar(phases []Phase) PhaseStats {
	ps := PhaseStats{
		Names: make([]string, len(phases)),
		Avg:   make([]float64, len(phases)),
		Max:   make([]float64, len(phases)),
		Min:   make([]float64, len(phases)),
		ROM:   make([]float64, len(phases)),
	}
	for i, p := range phases {
		ps.Names[i] = p.Name
		ps.Avg[i] = p.Avg
		ps.Max[i] = p.Max
		ps.Min[i] = p.Min
		ps.ROM[i] = p.ROM
	}
	return ps
}
