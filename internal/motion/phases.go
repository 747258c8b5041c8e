package motion

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMinSamplesPerPhase is the smallest number of samples per requested phase
const DefaultMinSamplesPerPhase = 10

// Params configures a Segmenter
type Params struct {
	FPS                float64
	SmoothingRadius    float64
	MinSamplesPerPhase int

	// Detector selects the event significance strategy. The fixed-count
	// strategy keeps the numPhases strongest cycles.
	Detector DetectorType
}

// DefaultParams returns the parameters used by DetectActionPhases
func DefaultParams() Params {
	return Params{
		FPS:                DefaultFPS,
		SmoothingRadius:    DefaultSmoothingRadius,
		MinSamplesPerPhase: DefaultMinSamplesPerPhase,
		Detector:           DetectorTypeFixed,
	}
}

// Detection is the outcome of a phase detection call
type Detection struct {
	Boundaries []PhaseBoundary
	Method     Method

	// Fallback holds the reason segmentation was abandoned for equal division, nil otherwise
	Fallback error
}

// Segments returns the boundaries without their names
func (d *Detection) Segments() []Segment {
	segments := make([]Segment, len(d.Boundaries))
	for i, b := range d.Boundaries {
		segments[i] = b.Segment
	}
	return segments
}

// Names returns the boundary names in order
func (d *Detection) Names() []string {
	names := make([]string, len(d.Boundaries))
	for i, b := range d.Boundaries {
		names[i] = b.Name
	}
	return names
}

// Segmenter locates repeated movement cycles in a recorded signal.
// It holds no per-call state and may be shared between goroutines.
type Segmenter struct {
	params Params
	logger *zap.SugaredLogger
}

// NewSegmenter creates a segmenter. A non-positive FPS or MinSamplesPerPhase,
// a negative SmoothingRadius and an empty Detector take the defaults. A
// SmoothingRadius of zero is kept and disables smoothing. A nil logger
// discards output.
func NewSegmenter(params Params, logger *zap.SugaredLogger) *Segmenter {
	defaults := DefaultParams()
	if params.FPS <= 0 {
		params.FPS = defaults.FPS
	}
	if params.SmoothingRadius < 0 {
		params.SmoothingRadius = defaults.SmoothingRadius
	}
	if params.MinSamplesPerPhase <= 0 {
		params.MinSamplesPerPhase = defaults.MinSamplesPerPhase
	}
	if params.Detector == "" {
		params.Detector = defaults.Detector
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Segmenter{params: params, logger: logger}
}

// Params returns the effective parameters
func (s *Segmenter) Params() Params {
	return s.params
}

// Cycles runs conditioning, event detection and segment building on values
// and returns one segment per detected cycle. Indices refer to values.
func (s *Segmenter) Cycles(values []float64, count int) ([]Segment, error) {
	if err := ValidateSamples(values); err != nil {
		return nil, err
	}

	rate := ChangeRate(values, s.params.FPS, s.params.SmoothingRadius)

	detector, err := NewDetector(s.params.Detector, count)
	if err != nil {
		return nil, err
	}
	events, err := detector.Detect(rate)
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("detected %d peaks at %v and %d valleys at %v in %d-sample rate signal",
		len(events.Peaks), Indices(events.Peaks), len(events.Valleys), Indices(events.Valleys), len(rate))

	target := count
	if s.params.Detector == DetectorTypeAdaptive {
		target = 0
	}
	return BuildSegments(events.Peaks, events.Valleys, len(rate), target)
}

// Segment splits values into numPhases named phases. Cycle detection is tried
// first; if it fails for any reason other than bad input the signal is divided
// into equal parts instead and the reason is recorded in Detection.Fallback.
func (s *Segmenter) Segment(values []float64, numPhases int) (*Detection, error) {
	if numPhases < 1 {
		return nil, fmt.Errorf("%d phases: %w", numPhases, ErrInvalidPhaseCount)
	}
	if len(values) < numPhases*s.params.MinSamplesPerPhase {
		return nil, fmt.Errorf("%d samples for %d phases: %w", len(values), numPhases, ErrInsufficientData)
	}
	if err := ValidateSamples(values); err != nil {
		return nil, err
	}

	det := &Detection{Method: MethodDetected}

	segments, err := s.Cycles(values, numPhases)
	if err == nil && len(segments) < numPhases {
		err = fmt.Errorf("built %d of %d segments: %w", len(segments), numPhases, ErrTooFewSegments)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidSample) {
			return nil, err
		}
		s.logger.Debugf("cycle detection failed (%v); dividing %d samples into %d equal phases", err, len(values), numPhases)
		segments = EqualDivision(len(values), numPhases)
		det.Method = MethodEqualDivision
		det.Fallback = err
	}

	if len(segments) > numPhases {
		segments = segments[:numPhases]
	}

	det.Boundaries = make([]PhaseBoundary, len(segments))
	for i, seg := range segments {
		det.Boundaries[i] = PhaseBoundary{
			Segment: seg,
			Name:    DefaultPhaseNames[i%len(DefaultPhaseNames)],
		}
	}

	return det, nil
}

// DetectActionPhases splits values into numPhases phases named by cycling
// through DefaultPhaseNames, using the default parameters
func DetectActionPhases(values []float64, numPhases int) ([]PhaseBoundary, error) {
	det, err := NewSegmenter(DefaultParams(), nil).Segment(values, numPhases)
	if err != nil {
		return nil, err
	}
	return det.Boundaries, nil
}
