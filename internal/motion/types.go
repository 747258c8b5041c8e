package motion

import "errors"

// EventKind distinguishes local maxima from local minima of a signal
type EventKind int

const (
	// Peak is a local maximum
	Peak EventKind = iota
	// Valley is a local minimum
	Valley
)

func (k EventKind) String() string {
	switch k {
	case Peak:
		return "peak"
	case Valley:
		return "valley"
	default:
		return "unknown"
	}
}

// Event is a detected extremum of a signal
type Event struct {
	Index      int       `json:"index"`
	Prominence float64   `json:"prominence"`
	Kind       EventKind `json:"kind"`
}

// Events holds the peaks and valleys found in one detection call, each sorted by index
type Events struct {
	Peaks   []Event
	Valleys []Event
}

// Threshold is the result of a one-dimensional Otsu split
type Threshold struct {
	Value    float64
	BinWidth float64
}

// Cut returns the prominence an event must exceed to be kept: half a bin above the Otsu split
func (t Threshold) Cut() float64 {
	return t.Value + 0.5*t.BinWidth
}

// Segment is an index range of a signal.
// Start is inclusive; End is inclusive when statistics are aggregated over it.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns End - Start
func (s Segment) Len() int {
	return s.End - s.Start
}

// PhaseBoundary is a named segment produced by phase detection
type PhaseBoundary struct {
	Segment
	Name string `json:"name"`
}

// Phase is a named segment together with statistics of the original signal over it
type Phase struct {
	Name  string  `json:"name"`
	Start int     `json:"start_idx"`
	End   int     `json:"end_idx"`
	Avg   float64 `json:"avg"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
	Std   float64 `json:"std"`
	ROM   float64 `json:"rom"`
}

// PhaseStats is the columnar view of a phase list, one parallel array per statistic
type PhaseStats struct {
	Names []string  `json:"names"`
	Avg   []float64 `json:"avg"`
	Max   []float64 `json:"max"`
	Min   []float64 `json:"min"`
	ROM   []float64 `json:"rom"`
}

// Method records how a set of phase boundaries was produced
type Method string

const (
	// MethodDetected means boundaries came from peak/valley segmentation
	MethodDetected Method = "detected"

	// MethodEqualDivision means the signal was split into equal-width parts
	MethodEqualDivision Method = "equal_division"
)

var (
	ErrInsufficientData   = errors.New("not enough samples for the requested phase count")
	ErrInsufficientEvents = errors.New("fewer than 3 peaks or valleys detected")
	ErrMismatchedEvents   = errors.New("peak and valley counts differ")
	ErrDegeneratePeriod   = errors.New("non-positive cycle period between events")
	ErrTooFewSegments     = errors.New("fewer segments than requested")
	ErrInvalidSample      = errors.New("signal contains NaN or infinite sample")
	ErrInvalidSegment     = errors.New("segment bounds are invalid")
	ErrInvalidPhaseCount  = errors.New("phase count must be at least 1")
	ErrEmptyPhase         = errors.New("phase has no samples")
)

// DefaultPhaseNames are the canonical names assigned by phase detection
var DefaultPhaseNames = []string{"Preparation", "Action", "Recovery"}
