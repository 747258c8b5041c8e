// Package sessions turns uploaded joint-angle recordings into stored
// rehabilitation sessions: CSV ingest, phase segmentation of every metric,
// progress across sessions and the averaged repetition pattern.
package sessions

import "strings"

// Metric names one joint-angle time series column
type Metric string

const (
	LeftKneeAngle       Metric = "left_knee_angle"
	RightKneeAngle      Metric = "right_knee_angle"
	LeftHipAngle        Metric = "left_hip_angle"
	RightHipAngle       Metric = "right_hip_angle"
	LeftShoulderAngle   Metric = "left_shoulder_angle"
	RightShoulderAngle  Metric = "right_shoulder_angle"
	LeftElbowAngle      Metric = "left_elbow_angle"
	RightElbowAngle     Metric = "right_elbow_angle"
	TrunkFlexion        Metric = "trunk_flexion"
	TrunkLateralFlexion Metric = "trunk_lateral_flexion"
	KneeAngleSymmetry   Metric = "knee_angle_symmetry"
	HipAngleSymmetry    Metric = "hip_angle_symmetry"
	ShoulderSymmetry    Metric = "shoulder_angle_symmetry"
)

// Catalogue lists every metric a recording may carry
var Catalogue = []Metric{
	LeftKneeAngle, RightKneeAngle,
	LeftHipAngle, RightHipAngle,
	LeftShoulderAngle, RightShoulderAngle,
	LeftElbowAngle, RightElbowAngle,
	TrunkFlexion, TrunkLateralFlexion,
	KneeAngleSymmetry, HipAngleSymmetry, ShoulderSymmetry,
}

// LookupMetric matches a column name against the catalogue, ignoring case
// and surrounding whitespace
func LookupMetric(name string) (Metric, bool) {
	name = strings.TrimSpace(name)
	for _, m := range Catalogue {
		if strings.EqualFold(string(m), name) {
			return m, true
		}
	}
	return "", false
}

// IsSymmetry reports whether lower values are better for the metric
func (m Metric) IsSymmetry() bool {
	return strings.Contains(string(m), "symmetry")
}

// Indicator is the progress indicator a metric feeds, or "" for none. Symmetry
// is matched first because every symmetry metric also names a joint.
func (m Metric) Indicator() string {
	s := string(m)
	switch {
	case m.IsSymmetry():
		return "Symmetry"
	case strings.Contains(s, "knee"):
		return "Knee ROM"
	case strings.Contains(s, "hip"):
		return "Hip ROM"
	case strings.Contains(s, "shoulder"), strings.Contains(s, "elbow"):
		return "Shoulder ROM"
	}
	return ""
}

// Title is the human-readable metric name, e.g. "Right Knee Angle"
func (m Metric) Title() string {
	words := strings.Split(string(m), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
