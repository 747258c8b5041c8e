package restserver

import (
	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/chrissnell/rehabtrack/internal/sessions"
	"github.com/chrissnell/rehabtrack/internal/storage"
)

// SegmentRequest is the body of POST /segment
type SegmentRequest struct {
	Values     []float64 `json:"values"`
	NumPhases  int       `json:"num_phases"`
	PhaseNames []string  `json:"phase_names,omitempty"`
}

// SegmentResponse carries the boundaries found for a raw signal and the
// statistics of each phase
type SegmentResponse struct {
	Method     motion.Method          `json:"method"`
	Fallback   string                 `json:"fallback,omitempty"`
	Boundaries []motion.PhaseBoundary `json:"boundaries"`
	Phases     []motion.Phase         `json:"phases"`
	Stats      motion.PhaseStats      `json:"phase_stats"`
}

// SessionSummary is the list view of a session
type SessionSummary struct {
	ID       string            `json:"id"`
	Date     string            `json:"date"`
	Metadata sessions.Metadata `json:"metadata"`
	Metrics  []sessions.Metric `json:"metrics"`
}

func summarize(s *sessions.Session) SessionSummary {
	return SessionSummary{
		ID:       s.ID,
		Date:     s.Date,
		Metadata: s.Metadata,
		Metrics:  s.MetricNames(),
	}
}

// ProgressResponse is the trend of one metric across a user's sessions.
// Progress is nil when fewer than two sessions recorded the metric.
type ProgressResponse struct {
	Series   sessions.TrendSeries `json:"series"`
	Progress *sessions.Progress   `json:"progress,omitempty"`
}

// PatternResponse is the mean repetition shape of one session metric
type PatternResponse struct {
	Metric      sessions.Metric `json:"metric"`
	Repetitions int             `json:"repetitions"`
	Mean        []float64       `json:"mean"`
	Std         []float64       `json:"std"`
}

// HealthResponse reports the state of the session store
type HealthResponse struct {
	Status string         `json:"status"`
	Store  storage.Health `json:"store"`
}
