package sessions

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadCSV(t *testing.T) {
	input := "frame,Right_Knee_Angle, left_knee_angle,timestamp\n" +
		"0,170.5,171,0.00\n" +
		"1,168.25,169.5,0.03\n" +
		"2,160,162,0.07\n"

	table, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if table.Frames != 3 {
		t.Errorf("expected 3 frames, got %d", table.Frames)
	}
	if diff := cmp.Diff([]Metric{RightKneeAngle, LeftKneeAngle}, table.Order); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{170.5, 168.25, 160}, table.Columns[RightKneeAngle]); diff != "" {
		t.Errorf("right knee mismatch (-want +got):\n%s", diff)
	}
	if _, ok := table.Values(LeftHipAngle); ok {
		t.Errorf("absent metric reported present")
	}
}

func TestReadCSVStripsByteOrderMark(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\ufefftrunk_flexion\n12\n14\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Order[0] != TrunkFlexion {
		t.Errorf("expected trunk_flexion, got %v", table.Order)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{name: "empty", input: "", wantErr: ErrNoRows},
		{name: "header only", input: "left_hip_angle\n", wantErr: ErrNoRows},
		{name: "no known columns", input: "frame,time\n1,2\n", wantErr: ErrNoMetrics},
		{name: "not a number", input: "left_hip_angle\n120\nabc\n", wantMsg: "row 3"},
		{name: "not finite", input: "left_hip_angle\nNaN\n", wantMsg: "non-finite"},
		{name: "ragged row", input: "left_hip_angle,right_hip_angle\n1,2\n3\n", wantMsg: "row 3"},
		{name: "duplicate metric", input: "left_hip_angle,LEFT_HIP_ANGLE\n1,2\n", wantMsg: "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestMetricIndicator(t *testing.T) {
	tests := []struct {
		metric    Metric
		indicator string
		symmetry  bool
	}{
		{LeftKneeAngle, "Knee ROM", false},
		{RightHipAngle, "Hip ROM", false},
		{LeftShoulderAngle, "Shoulder ROM", false},
		{RightElbowAngle, "Shoulder ROM", false},
		{KneeAngleSymmetry, "Symmetry", true},
		{ShoulderSymmetry, "Symmetry", true},
		{TrunkFlexion, "", false},
	}

	for _, tt := range tests {
		if got := tt.metric.Indicator(); got != tt.indicator {
			t.Errorf("%s: expected indicator %q, got %q", tt.metric, tt.indicator, got)
		}
		if got := tt.metric.IsSymmetry(); got != tt.symmetry {
			t.Errorf("%s: expected symmetry %v, got %v", tt.metric, tt.symmetry, got)
		}
	}

	if got := TrunkLateralFlexion.Title(); got != "Trunk Lateral Flexion" {
		t.Errorf("unexpected title %q", got)
	}
	if len(Catalogue) != 13 {
		t.Errorf("expected 13 catalogue metrics, got %d", len(Catalogue))
	}
}
