package motion

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// repetitions builds a knee-angle-like trace: a 170° baseline with reps
// cosine dips of the given period and depth 40, separated by rest samples
func repetitions(reps, period, rest, lead int) []float64 {
	var v []float64
	hold := func(n int) {
		for i := 0; i < n; i++ {
			v = append(v, 170)
		}
	}

	hold(lead)
	for r := 0; r < reps; r++ {
		for t := 0; t < period; t++ {
			v = append(v, 170-20*(1-math.Cos(2*math.Pi*float64(t)/float64(period))))
		}
		if r < reps-1 {
			hold(rest)
		}
	}
	hold(lead)
	return v
}

func constant(n int, value float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = value
	}
	return v
}

func TestSegmentDetectsRepetitions(t *testing.T) {
	values := repetitions(3, 60, 30, 45)
	if len(values) != 330 {
		t.Fatalf("expected 330 samples, got %d", len(values))
	}

	det, err := NewSegmenter(DefaultParams(), nil).Segment(values, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Method != MethodDetected {
		t.Fatalf("expected detected segmentation, fell back because: %v", det.Fallback)
	}
	if len(det.Boundaries) != 3 {
		t.Fatalf("expected 3 boundaries, got %d", len(det.Boundaries))
	}

	bottoms := []int{75, 165, 255}
	for i, b := range det.Boundaries {
		if b.Start > bottoms[i] || b.End < bottoms[i] {
			t.Errorf("phase %d (%d..%d) does not contain the dip bottom at %d", i, b.Start, b.End, bottoms[i])
		}
		if b.Len() < 15 || b.Len() > 105 {
			t.Errorf("phase %d has implausible length %d", i, b.Len())
		}
		if b.Start < 0 || b.End >= len(values) {
			t.Errorf("phase %d (%d..%d) outside the signal", i, b.Start, b.End)
		}
	}
	if Overlaps(det.Segments()) {
		t.Errorf("detected phases overlap: %v", det.Segments())
	}
	if diff := cmp.Diff(DefaultPhaseNames, det.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

// sinusoid is 120+40·sin(2πi/period) over the given number of full cycles
func sinusoid(period, cycles int) []float64 {
	v := make([]float64, period*cycles)
	for i := range v {
		v[i] = 120 + 40*math.Sin(2*math.Pi*float64(i)/float64(period))
	}
	return v
}

func TestSegmentSinusoid(t *testing.T) {
	tests := []struct {
		period int
		cycles int
	}{
		{period: 30, cycles: 4},
		{period: 30, cycles: 8},
		{period: 40, cycles: 4},
		{period: 40, cycles: 6},
		{period: 60, cycles: 4},
		{period: 60, cycles: 6},
		{period: 90, cycles: 5},
		{period: 90, cycles: 6},
		{period: 90, cycles: 8},
		{period: 120, cycles: 4},
		{period: 120, cycles: 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("period %d x%d", tt.period, tt.cycles), func(t *testing.T) {
			det, err := NewSegmenter(DefaultParams(), nil).Segment(sinusoid(tt.period, tt.cycles), 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if det.Method != MethodDetected {
				t.Fatalf("expected detected segmentation, fell back because: %v", det.Fallback)
			}
			if len(det.Boundaries) != 3 {
				t.Fatalf("expected 3 boundaries, got %d", len(det.Boundaries))
			}
			if Overlaps(det.Segments()) {
				t.Errorf("phases overlap: %v", det.Segments())
			}

			p := float64(tt.period)
			for i, b := range det.Boundaries {
				if n := float64(b.Len()); n < 0.25*p || n > 1.75*p {
					t.Errorf("phase %d (%d..%d) has length %v outside [%v, %v]", i, b.Start, b.End, n, 0.25*p, 1.75*p)
				}
				// extrema of the sinusoid sit at period/4 + m·period/2
				m := math.Ceil((float64(b.Start) - p/4) / (p / 2))
				if extremum := p/4 + m*p/2; extremum > float64(b.End) {
					t.Errorf("phase %d (%d..%d) contains no maximum or minimum", i, b.Start, b.End)
				}
			}
		})
	}
}

func TestSegmentAdaptiveDetectsRepetitions(t *testing.T) {
	params := DefaultParams()
	params.Detector = DetectorTypeAdaptive

	det, err := NewSegmenter(params, nil).Segment(repetitions(3, 60, 30, 45), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Method != MethodDetected {
		t.Fatalf("expected detected segmentation, fell back because: %v", det.Fallback)
	}
	if len(det.Boundaries) != 3 {
		t.Errorf("expected 3 boundaries, got %d", len(det.Boundaries))
	}
}

func TestSegmentFallsBackToEqualDivision(t *testing.T) {
	ramp := make([]float64, 100)
	for i := range ramp {
		ramp[i] = float64(i)
	}

	tests := []struct {
		name      string
		values    []float64
		numPhases int
		expected  []PhaseBoundary
	}{
		{
			name:      "monotonic ramp",
			values:    ramp,
			numPhases: 3,
			expected: []PhaseBoundary{
				{Segment{0, 33}, "Preparation"},
				{Segment{33, 66}, "Action"},
				{Segment{66, 100}, "Recovery"},
			},
		},
		{
			name:      "constant signal",
			values:    constant(300, 90),
			numPhases: 3,
			expected: []PhaseBoundary{
				{Segment{0, 100}, "Preparation"},
				{Segment{100, 200}, "Action"},
				{Segment{200, 300}, "Recovery"},
			},
		},
		{
			name:      "names cycle past three phases",
			values:    constant(100, 90),
			numPhases: 5,
			expected: []PhaseBoundary{
				{Segment{0, 20}, "Preparation"},
				{Segment{20, 40}, "Action"},
				{Segment{40, 60}, "Recovery"},
				{Segment{60, 80}, "Preparation"},
				{Segment{80, 100}, "Action"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := NewSegmenter(DefaultParams(), nil).Segment(tt.values, tt.numPhases)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if det.Method != MethodEqualDivision {
				t.Errorf("expected equal division, got %s", det.Method)
			}
			if det.Fallback == nil {
				t.Errorf("expected a fallback reason")
			}
			if diff := cmp.Diff(tt.expected, det.Boundaries); diff != "" {
				t.Errorf("boundaries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegmentMorePhasesThanCycles(t *testing.T) {
	det, err := NewSegmenter(DefaultParams(), nil).Segment(repetitions(3, 60, 30, 45), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det.Method != MethodEqualDivision {
		t.Errorf("expected equal division when only three cycles can be built, got %s", det.Method)
	}
	if len(det.Boundaries) != 5 {
		t.Errorf("expected 5 boundaries, got %d", len(det.Boundaries))
	}
}

func TestSegmentErrors(t *testing.T) {
	withNaN := constant(100, 90)
	withNaN[42] = math.NaN()

	tests := []struct {
		name      string
		values    []float64
		numPhases int
		want      error
	}{
		{"zero phases", constant(100, 1), 0, ErrInvalidPhaseCount},
		{"too short", constant(20, 1), 3, ErrInsufficientData},
		{"empty", nil, 1, ErrInsufficientData},
		{"not a number", withNaN, 3, ErrInvalidSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectActionPhases(tt.values, tt.numPhases)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewSegmenterDefaults(t *testing.T) {
	s := NewSegmenter(Params{SmoothingRadius: -1}, nil)
	if diff := cmp.Diff(DefaultParams(), s.Params()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSegmenterKeepsZeroSmoothing(t *testing.T) {
	want := DefaultParams()
	want.SmoothingRadius = 0

	s := NewSegmenter(Params{}, nil)
	if diff := cmp.Diff(want, s.Params()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}
