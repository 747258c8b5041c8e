package sessions

import (
	"errors"
	"fmt"
)

// ErrInsufficientSessions is returned when progress needs more sessions than exist
var ErrInsufficientSessions = errors.New("at least two sessions are needed to measure progress")

// Trend is the direction of change between the first and last session
type Trend string

const (
	TrendImproved  Trend = "improved"
	TrendDeclined  Trend = "declined"
	TrendUnchanged Trend = "unchanged"
)

// TrendSeries is the per-session summary of one metric, oldest session first
type TrendSeries struct {
	Metric Metric    `json:"metric"`
	Dates  []string  `json:"dates"`
	Avg    []float64 `json:"avg"`
	Max    []float64 `json:"max"`
	Min    []float64 `json:"min"`
}

// Series collects the metric's avg, max and min from every session that recorded it
func Series(metric Metric, list []*Session) TrendSeries {
	sorted := append([]*Session(nil), list...)
	SortByDate(sorted)

	ts := TrendSeries{Metric: metric}
	for _, s := range sorted {
		m, ok := s.Metrics[metric]
		if !ok {
			continue
		}
		ts.Dates = append(ts.Dates, s.Date)
		ts.Avg = append(ts.Avg, m.Avg)
		ts.Max = append(ts.Max, m.Max)
		ts.Min = append(ts.Min, m.Min)
	}
	return ts
}

// Progress compares the first and last session average of a metric
type Progress struct {
	Metric    Metric `json:"metric"`
	Indicator string `json:"indicator,omitempty"`
	FirstDate string `json:"first_date"`
	LastDate  string `json:"last_date"`

	First         float64 `json:"first"`
	Last          float64 `json:"last"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Trend         Trend   `json:"trend"`

	Series TrendSeries `json:"series"`
}

// ComputeProgress measures change across a series. The percentage is 0 when
// the first value is 0. For symmetry metrics a decrease is an improvement.
func ComputeProgress(series TrendSeries) (*Progress, error) {
	n := len(series.Avg)
	if n < 2 {
		return nil, fmt.Errorf("%s has %d sessions: %w", series.Metric, n, ErrInsufficientSessions)
	}

	first, last := series.Avg[0], series.Avg[n-1]
	p := &Progress{
		Metric:    series.Metric,
		Indicator: series.Metric.Indicator(),
		FirstDate: series.Dates[0],
		LastDate:  series.Dates[n-1],
		First:     first,
		Last:      last,
		Change:    last - first,
		Series:    series,
	}
	if first != 0 {
		p.ChangePercent = p.Change / first * 100
	}

	better := p.Change > 0
	if series.Metric.IsSymmetry() {
		better = p.Change < 0
	}
	switch {
	case p.Change == 0:
		p.Trend = TrendUnchanged
	case better:
		p.Trend = TrendImproved
	default:
		p.Trend = TrendDeclined
	}

	return p, nil
}
