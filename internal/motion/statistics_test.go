package motion

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPhaseStatistics(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}

	tests := []struct {
		name     string
		segments []Segment
		names    []string
		expected []Phase
	}{
		{
			name:     "inclusive ends and default names",
			segments: []Segment{{0, 2}, {3, 5}},
			names:    []string{"Descent"},
			expected: []Phase{
				{Name: "Descent", Start: 0, End: 2, Avg: 2, Max: 3, Min: 1, Std: math.Sqrt(2.0 / 3), ROM: 2},
				{Name: "Phase 2", Start: 3, End: 5, Avg: 5, Max: 6, Min: 4, Std: math.Sqrt(2.0 / 3), ROM: 2},
			},
		},
		{
			name:     "end past the data is clamped",
			segments: []Segment{{4, 10}},
			names:    []string{"Tail"},
			expected: []Phase{
				{Name: "Tail", Start: 4, End: 10, Avg: 5.5, Max: 6, Min: 5, Std: 0.5, ROM: 1},
			},
		},
		{
			name:     "segments starting past the data are skipped",
			segments: []Segment{{0, 0}, {6, 8}},
			names:    []string{"First", "Gone"},
			expected: []Phase{
				{Name: "First", Start: 0, End: 0, Avg: 1, Max: 1, Min: 1, Std: 0, ROM: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PhaseStatistics(values, tt.segments, tt.names)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("phases mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPhaseStatisticsInvalidSegment(t *testing.T) {
	for _, seg := range []Segment{{-1, 3}, {4, 2}} {
		_, err := PhaseStatistics([]float64{1, 2, 3, 4, 5}, []Segment{seg}, nil)
		if !errors.Is(err, ErrInvalidSegment) {
			t.Errorf("segment %v: expected ErrInvalidSegment, got %v", seg, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	got, err := Summarize([]float64{10, 20, 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Phase{Avg: 20, Max: 30, Min: 10, Std: math.Sqrt(200.0 / 3), ROM: 20}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	for _, values := range [][]float64{nil, {}} {
		if _, err := Summarize(values); !errors.Is(err, ErrEmptyPhase) {
			t.Errorf("Summarize(%v): expected ErrEmptyPhase, got %v", values, err)
		}
	}
}

func TestPhaseStatisticsInvariants(t *testing.T) {
	values := make([]float64, 240)
	for i := range values {
		values[i] = 120 + 35*math.Sin(float64(i)/7) + 3*math.Cos(float64(i)*1.3)
	}

	phases, err := PhaseStatistics(values, EqualDivisionInclusive(len(values), 7), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phases) != 7 {
		t.Fatalf("expected 7 phases, got %d", len(phases))
	}

	for _, p := range phases {
		if p.ROM != p.Max-p.Min {
			t.Errorf("%s: rom %.6f != max-min %.6f", p.Name, p.ROM, p.Max-p.Min)
		}
		if p.Min > p.Avg || p.Avg > p.Max {
			t.Errorf("%s: avg %.6f outside [%.6f, %.6f]", p.Name, p.Avg, p.Min, p.Max)
		}
		if p.Std < 0 {
			t.Errorf("%s: negative std %.6f", p.Name, p.Std)
		}
	}
}

func TestColumnar(t *testing.T) {
	phases := []Phase{
		{Name: "Preparation", Avg: 160, Max: 170, Min: 150, ROM: 20},
		{Name: "Action", Avg: 110, Max: 150, Min: 90, ROM: 60},
	}

	expected := PhaseStats{
		Names: []string{"Preparation", "Action"},
		Avg:   []float64{160, 110},
		Max:   []float64{170, 150},
		Min:   []float64{150, 90},
		ROM:   []float64{20, 60},
	}
	if diff := cmp.Diff(expected, Columnar(phases)); diff != "" {
		t.Errorf("columnar mismatch (-want +got):\n%s", diff)
	}
}
