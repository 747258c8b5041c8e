package sessions

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the session date format, one session per user per day
const DateLayout = "2006-01-02"

// MaxPhases bounds the number of phases a session may be split into
const MaxPhases = 10

// ActionType is the exercise performed in a recording
type ActionType string

const (
	Squat       ActionType = "squat"
	SitToStand  ActionType = "sit-to-stand"
	defaultReps            = 3
)

// Options controls how an upload is processed
type Options struct {
	Date        string     `json:"date"`
	ActionType  ActionType `json:"action_type"`
	Repetitions int        `json:"repetitions"`
	NumPhases   int        `json:"num_phases"`
	PhaseNames  []string   `json:"phase_names"`

	// AdvancedSegmentation tries rate-of-change cycle detection before equal division
	AdvancedSegmentation bool `json:"use_advanced_segmentation"`
	EnableSegmentation   bool `json:"enable_segmentation"`
}

// DefaultOptions returns the options used when a caller supplies none
func DefaultOptions(now time.Time, numPhases int, phaseNames []string) Options {
	if numPhases < 1 {
		numPhases = 3
	}
	if len(phaseNames) == 0 {
		phaseNames = []string{"Preparation", "Action", "Recovery"}
	}
	return Options{
		Date:                 now.Format(DateLayout),
		ActionType:           Squat,
		Repetitions:          defaultReps,
		NumPhases:            numPhases,
		PhaseNames:           append([]string(nil), phaseNames...),
		AdvancedSegmentation: true,
		EnableSegmentation:   true,
	}
}

// Validate checks opts and normalizes the phase names: blank names become
// "Phase" and the list is padded to NumPhases with "Phase {n}"
func (o *Options) Validate() error {
	if _, err := time.Parse(DateLayout, o.Date); err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", o.Date)
	}
	switch o.ActionType {
	case Squat, SitToStand:
	default:
		return fmt.Errorf("unknown action type %q", o.ActionType)
	}
	if o.Repetitions <= 0 {
		return fmt.Errorf("number of repetitions must be positive, got %d", o.Repetitions)
	}
	if o.NumPhases < 1 || o.NumPhases > MaxPhases {
		return fmt.Errorf("number of phases must be between 1 and %d, got %d", MaxPhases, o.NumPhases)
	}

	names := make([]string, 0, o.NumPhases)
	for _, n := range o.PhaseNames {
		if n = strings.TrimSpace(n); n == "" {
			n = "Phase"
		}
		names = append(names, n)
	}
	for len(names) < o.NumPhases {
		names = append(names, fmt.Sprintf("Phase %d", len(names)+1))
	}
	o.PhaseNames = names

	return nil
}
