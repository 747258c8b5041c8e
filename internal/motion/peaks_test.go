package motion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name          string
		signal        []float64
		minProminence float64
		expected      []Event
	}{
		{
			name:     "rising peaks",
			signal:   []float64{0, 1, 0, 2, 0, 3, 0},
			expected: []Event{{1, 1, Peak}, {3, 2, Peak}, {5, 3, Peak}},
		},
		{
			name:     "plateau resolves to its middle",
			signal:   []float64{0, 2, 2, 2, 0},
			expected: []Event{{2, 2, Peak}},
		},
		{
			name:     "even plateau rounds down",
			signal:   []float64{0, 2, 2, 2, 2, 0},
			expected: []Event{{2, 2, Peak}},
		},
		{
			name:     "plateau running into the last sample is not a peak",
			signal:   []float64{0, 1, 2, 2},
			expected: nil,
		},
		{
			name:     "edges are never peaks",
			signal:   []float64{5, 0, 5},
			expected: nil,
		},
		{
			name:     "nested peaks measure against the higher neighbouring base",
			signal:   []float64{0, 5, 1, 3, 1, 6, 0},
			expected: []Event{{1, 4, Peak}, {3, 2, Peak}, {5, 6, Peak}},
		},
		{
			name:          "minimum prominence filter",
			signal:        []float64{0, 1, 0, 5, 0},
			minProminence: 2,
			expected:      []Event{{3, 5, Peak}},
		},
		{
			name:     "constant signal",
			signal:   []float64{7, 7, 7, 7, 7},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPeaks(tt.signal, tt.minProminence)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("FindPeaks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindValleys(t *testing.T) {
	got := FindValleys([]float64{3, 1, 3, 0, 3}, 0)
	expected := []Event{{1, 2, Valley}, {3, 3, Valley}}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("FindValleys mismatch (-want +got):\n%s", diff)
	}
}
