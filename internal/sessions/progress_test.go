package sessions

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sessionWith(date string, metric Metric, avg float64) *Session {
	return &Session{
		Date:    date,
		Metrics: map[Metric]*MetricData{metric: {Avg: avg, Max: avg + 10, Min: avg - 10}},
	}
}

func TestSeries(t *testing.T) {
	list := []*Session{
		sessionWith("2025-03-20", LeftKneeAngle, 120),
		sessionWith("2025-03-06", LeftKneeAngle, 100),
		sessionWith("2025-03-13", TrunkFlexion, 30),
		sessionWith("2025-03-10", LeftKneeAngle, 110),
	}

	ts := Series(LeftKneeAngle, list)

	if diff := cmp.Diff([]string{"2025-03-06", "2025-03-10", "2025-03-20"}, ts.Dates); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 110, 120}, ts.Avg); diff != "" {
		t.Errorf("avg mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{90, 100, 110}, ts.Min); diff != "" {
		t.Errorf("min mismatch (-want +got):\n%s", diff)
	}
	if list[0].Date != "2025-03-20" {
		t.Errorf("input slice was reordered")
	}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		metric    Metric
		avg       []float64
		change    float64
		percent   float64
		trend     Trend
		indicator string
	}{
		{"knee flexion improves", RightKneeAngle, []float64{100, 105, 120}, 20, 20, TrendImproved, "Knee ROM"},
		{"hip declines", LeftHipAngle, []float64{80, 60}, -20, -25, TrendDeclined, "Hip ROM"},
		{"symmetry drop is an improvement", KneeAngleSymmetry, []float64{12, 9}, -3, -25, TrendImproved, "Symmetry"},
		{"symmetry rise is a decline", HipAngleSymmetry, []float64{4, 5}, 1, 25, TrendDeclined, "Symmetry"},
		{"zero baseline has no percentage", TrunkFlexion, []float64{0, 15}, 15, 0, TrendImproved, ""},
		{"no change", LeftElbowAngle, []float64{90, 95, 90}, 0, 0, TrendUnchanged, "Shoulder ROM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := TrendSeries{Metric: tt.metric, Avg: tt.avg, Dates: make([]string, len(tt.avg))}
			p, err := ComputeProgress(series)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(p.Change-tt.change) > 1e-9 {
				t.Errorf("expected change %.2f, got %.2f", tt.change, p.Change)
			}
			if math.Abs(p.ChangePercent-tt.percent) > 1e-9 {
				t.Errorf("expected percent %.2f, got %.2f", tt.percent, p.ChangePercent)
			}
			if p.Trend != tt.trend {
				t.Errorf("expected trend %s, got %s", tt.trend, p.Trend)
			}
			if p.Indicator != tt.indicator {
				t.Errorf("expected indicator %q, got %q", tt.indicator, p.Indicator)
			}
		})
	}
}

func TestComputeProgressNeedsTwoSessions(t *testing.T) {
	_, err := ComputeProgress(TrendSeries{Metric: LeftKneeAngle, Avg: []float64{100}, Dates: []string{"2025-03-06"}})
	if !errors.Is(err, ErrInsufficientSessions) {
		t.Errorf("expected ErrInsufficientSessions, got %v", err)
	}
}

func TestRepetitionPattern(t *testing.T) {
	values := []float64{1, 2, 3, 3, 4, 5, 5, 6, 7, 99}

	p, err := RepetitionPattern(values, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]float64{3, 4, 5}, p.Mean); diff != "" {
		t.Errorf("mean mismatch (-want +got):\n%s", diff)
	}
	want := math.Sqrt(8.0 / 3)
	for i, s := range p.Std {
		if math.Abs(s-want) > 1e-9 {
			t.Errorf("frame %d: expected std %.4f, got %.4f", i, want, s)
		}
	}
}

func TestRepetitionPatternErrors(t *testing.T) {
	if _, err := RepetitionPattern([]float64{1, 2}, 3); err == nil {
		t.Errorf("expected error when repetitions outnumber frames")
	}
	if _, err := RepetitionPattern([]float64{1, 2, 3}, 0); err == nil {
		t.Errorf("expected error for zero repetitions")
	}
}
