package sessions

import (
	"sort"
	"time"

	"github.com/chrissnell/rehabtrack/internal/motion"
)

// User is a patient whose sessions are tracked
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       string    `json:"age,omitempty"`
	Condition string    `json:"condition,omitempty"`
	Goal      string    `json:"goal,omitempty"`
	StartDate string    `json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata records how a session was processed
type Metadata struct {
	ActionType              ActionType `json:"action_type"`
	Repetitions             int        `json:"repetitions"`
	NumPhases               int        `json:"num_phases"`
	UseAdvancedSegmentation bool       `json:"use_advanced_segmentation"`
	EnableSegmentation      bool       `json:"enable_segmentation"`

	// Segmentation names the method that produced the phases, empty when disabled
	Segmentation string `json:"segmentation,omitempty"`
}

// MetricData is one metric of a session with its phase breakdown
type MetricData struct {
	Frames     []int              `json:"frames"`
	Values     []float64          `json:"values"`
	Avg        float64            `json:"avg"`
	Max        float64            `json:"max"`
	Min        float64            `json:"min"`
	Phases     []motion.Phase     `json:"phases,omitempty"`
	PhaseStats *motion.PhaseStats `json:"phase_stats,omitempty"`
}

// Session is one processed recording of a user, keyed by date
type Session struct {
	ID       string                 `json:"id"`
	UserID   string                 `json:"user_id"`
	Date     string                 `json:"date"`
	Metadata Metadata               `json:"metadata"`
	Metrics  map[Metric]*MetricData `json:"metrics"`
}

// HasPhases reports whether any metric carries phase statistics
func (s *Session) HasPhases() bool {
	if !s.Metadata.EnableSegmentation {
		return false
	}
	for _, m := range s.Metrics {
		if len(m.Phases) > 0 {
			return true
		}
	}
	return false
}

// MetricNames returns the session's metrics in catalogue order
func (s *Session) MetricNames() []Metric {
	names := make([]Metric, 0, len(s.Metrics))
	for _, m := range Catalogue {
		if _, ok := s.Metrics[m]; ok {
			names = append(names, m)
		}
	}
	return names
}

// SortByDate orders sessions oldest first
func SortByDate(list []*Session) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date < list[j].Date
	})
}
