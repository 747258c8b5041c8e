package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/google/go-cmp/cmp"
)

func writeRamp(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("frame,right_knee_angle\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "ramp.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	path := writeRamp(t, 100)

	res, err := run(path, "Right_Knee_Angle", 3, []string{"Down", "Up"}, motion.DefaultParams())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Method != motion.MethodEqualDivision {
		t.Errorf("expected equal division on a ramp, got %s", res.Method)
	}

	var names []string
	for _, p := range res.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"Down", "Up", "Down"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	var out bytes.Buffer
	printTable(&out, res)
	if !strings.Contains(out.String(), "Right Knee Angle (equal_division)") {
		t.Errorf("unexpected table header:\n%s", out.String())
	}

	chart := filepath.Join(t.TempDir(), "phases.svg")
	if err := writeChart(chart, res); err != nil {
		t.Fatalf("writeChart failed: %v", err)
	}
	if b, _ := os.ReadFile(chart); !bytes.Contains(b, []byte("<svg")) {
		t.Error("expected an SVG chart")
	}
}

func TestRunErrors(t *testing.T) {
	path := writeRamp(t, 100)
	params := motion.DefaultParams()

	if _, err := run(path, "ankle", 3, nil, params); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := run(path, "left_knee_angle", 3, nil, params); err == nil {
		t.Error("expected error for absent column")
	}
	if _, err := run(filepath.Join(t.TempDir(), "missing.csv"), "right_knee_angle", 3, nil, params); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := run(writeRamp(t, 12), "right_knee_angle", 3, nil, params); err == nil {
		t.Error("expected error for too few samples")
	}
}

func TestSplitNames(t *testing.T) {
	if got := splitNames("  "); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, splitNames("a, b ,c")); diff != "" {
		t.Errorf("split mismatch (-want +got):\n%s", diff)
	}
}
