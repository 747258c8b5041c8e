package motion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// pulseTrain has three positive and three negative triangular pulses of height
// 50 plus four single-sample bumps of 0.5
func pulseTrain() []float64 {
	x := make([]float64, 100)
	for _, c := range []int{10, 40, 70} {
		x[c-1], x[c], x[c+1] = 25, 50, 25
	}
	for _, c := range []int{25, 55, 85} {
		x[c-1], x[c], x[c+1] = -25, -50, -25
	}
	for _, c := range []int{5, 33, 62, 93} {
		x[c] = 0.5
	}
	return x
}

func TestAdaptiveDetector(t *testing.T) {
	events, err := DetectAdaptive(pulseTrain(), DefaultNoiseProminence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]int{10, 40, 70}, Indices(events.Peaks)); diff != "" {
		t.Errorf("peaks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{25, 55, 85}, Indices(events.Valleys)); diff != "" {
		t.Errorf("valleys mismatch (-want +got):\n%s", diff)
	}
	for _, v := range events.Valleys {
		if v.Kind != Valley {
			t.Errorf("event at %d has kind %s", v.Index, v.Kind)
		}
	}
}

func TestAdaptiveDetectorConstantSignal(t *testing.T) {
	events, err := AdaptiveDetector{NoiseProminence: 1}.Detect([]float64{3, 3, 3, 3, 3, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.Peaks) != 0 || len(events.Valleys) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
}

func TestFixedCountDetector(t *testing.T) {
	events, err := DetectTopK(pulseTrain(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]int{40, 70}, Indices(events.Peaks)); diff != "" {
		t.Errorf("peaks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 100}, Prominences(events.Peaks)); diff != "" {
		t.Errorf("peak prominences mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{55, 85}, Indices(events.Valleys)); diff != "" {
		t.Errorf("valleys mismatch (-want +got):\n%s", diff)
	}
}

func TestFixedCountDetectorPairsCycles(t *testing.T) {
	// Four identical cycles. The first and last lose half their prominence to
	// the flat edges, so both sum to 150 and the later one wins the tie.
	x := make([]float64, 130)
	for _, c := range []int{10, 40, 70, 100} {
		x[c-1], x[c], x[c+1] = 25, 50, 25
		x[c+14], x[c+15], x[c+16] = -25, -50, -25
	}

	tests := []struct {
		name    string
		k       int
		peaks   []int
		valleys []int
	}{
		{name: "two strongest", k: 2, peaks: []int{40, 70}, valleys: []int{55, 85}},
		{name: "tie keeps the later cycle", k: 3, peaks: []int{40, 70, 100}, valleys: []int{55, 85, 115}},
		{name: "all cycles", k: 4, peaks: []int{10, 40, 70, 100}, valleys: []int{25, 55, 85, 115}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := DetectTopK(x, tt.k)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.peaks, Indices(events.Peaks)); diff != "" {
				t.Errorf("peaks mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.valleys, Indices(events.Valleys)); diff != "" {
				t.Errorf("valleys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFixedCountDetectorValleyFirst(t *testing.T) {
	x := make([]float64, 60)
	for _, c := range []int{10, 30} {
		x[c-1], x[c], x[c+1] = -25, -50, -25
		x[c+9], x[c+10], x[c+11] = 25, 50, 25
	}

	events, err := DetectTopK(x, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int{20, 40}, Indices(events.Peaks)); diff != "" {
		t.Errorf("peaks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{10, 30}, Indices(events.Valleys)); diff != "" {
		t.Errorf("valleys mismatch (-want +got):\n%s", diff)
	}
}

func TestFixedCountDetectorDropsNoise(t *testing.T) {
	events, err := DetectTopK(pulseTrain(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.Peaks) != 3 || len(events.Valleys) != 3 {
		t.Errorf("expected 3 peaks and 3 valleys above the minimum prominence, got %d and %d",
			len(events.Peaks), len(events.Valleys))
	}
}

func TestNewDetector(t *testing.T) {
	tests := []struct {
		name    string
		typ     DetectorType
		count   int
		wantErr bool
	}{
		{"default is adaptive", "", 0, false},
		{"adaptive", DetectorTypeAdaptive, 0, false},
		{"fixed", DetectorTypeFixed, 3, false},
		{"fixed without count", DetectorTypeFixed, 0, true},
		{"unknown", DetectorType("spline"), 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetector(tt.typ, tt.count)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && d == nil {
				t.Errorf("expected a detector")
			}
		})
	}
}
