package sessions

import (
	"context"
	"fmt"
	"runtime"

	"github.com/chrissnell/rehabtrack/internal/motion"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Segmentation methods recorded in Metadata.Segmentation
const (
	SegmentationKneeFusion    = "knee_fusion"
	SegmentationReference     = "reference"
	SegmentationEqualDivision = "equal_division"
)

// Processor segments uploaded recordings and computes per-metric statistics
type Processor struct {
	segmenter *motion.Segmenter
	logger    *zap.SugaredLogger
}

// NewProcessor creates a processor around a configured segmenter
func NewProcessor(segmenter *motion.Segmenter, logger *zap.SugaredLogger) *Processor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Processor{segmenter: segmenter, logger: logger}
}

// Process builds a session from table. Phases are located once and applied
// to every metric; metrics are then summarized concurrently.
func (p *Processor) Process(ctx context.Context, table *Table, opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if table == nil || table.Frames == 0 {
		return nil, ErrNoRows
	}

	session := &Session{
		Date: opts.Date,
		Metadata: Metadata{
			ActionType:              opts.ActionType,
			Repetitions:             opts.Repetitions,
			NumPhases:               opts.NumPhases,
			UseAdvancedSegmentation: opts.AdvancedSegmentation,
			EnableSegmentation:      opts.EnableSegmentation,
		},
		Metrics: make(map[Metric]*MetricData, len(table.Order)),
	}

	var segments []motion.Segment
	if opts.EnableSegmentation {
		if table.Frames < opts.NumPhases {
			return nil, fmt.Errorf("%d frames for %d phases: %w", table.Frames, opts.NumPhases, motion.ErrInsufficientData)
		}
		segments, session.Metadata.Segmentation = p.locatePhases(table, opts)
	}

	frames := make([]int, table.Frames)
	for i := range frames {
		frames[i] = i
	}

	results := make([]*MetricData, len(table.Order))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range table.Order {
		values := table.Columns[m]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := summarizeMetric(values, frames, segments, opts.PhaseNames)
			if err != nil {
				return fmt.Errorf("metric %s: %w", m, err)
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, m := range table.Order {
		session.Metrics[m] = results[i]
	}

	p.logger.Debugf("processed %d metrics over %d frames for %s (segmentation: %q, %d phases)",
		len(table.Order), table.Frames, opts.Date, session.Metadata.Segmentation, len(segments))

	return session, nil
}

// locatePhases picks the phase boundaries for a recording. With advanced
// segmentation the summed knee angles are tried first, then a single
// reference metric; equal division with inclusive ends is the last resort.
func (p *Processor) locatePhases(table *Table, opts Options) ([]motion.Segment, string) {
	if opts.AdvancedSegmentation {
		left, hasLeft := table.Values(LeftKneeAngle)
		right, hasRight := table.Values(RightKneeAngle)
		if hasLeft && hasRight {
			both := make([]float64, len(left))
			floats.AddTo(both, left, right)

			segments, err := p.segmenter.Cycles(both, opts.NumPhases)
			if err == nil && len(segments) >= opts.NumPhases {
				return segments[:opts.NumPhases], SegmentationKneeFusion
			}
			p.logger.Debugf("knee fusion segmentation failed (%v, %d segments), trying a reference metric", err, len(segments))
		}

		if ref, ok := p.referenceMetric(table); ok {
			det, err := p.segmenter.Segment(table.Columns[ref], opts.NumPhases)
			if err == nil {
				return det.Segments(), fmt.Sprintf("%s:%s:%s", SegmentationReference, ref, det.Method)
			}
			p.logger.Debugf("reference segmentation on %s failed: %v", ref, err)
		}
	}

	return motion.EqualDivisionInclusive(table.Frames, opts.NumPhases), SegmentationEqualDivision
}

// referenceMetric prefers the right knee, then the left knee, then the first column
func (p *Processor) referenceMetric(table *Table) (Metric, bool) {
	for _, m := range []Metric{RightKneeAngle, LeftKneeAngle} {
		if _, ok := table.Columns[m]; ok {
			return m, true
		}
	}
	if len(table.Order) > 0 {
		return table.Order[0], true
	}
	return "", false
}

func summarizeMetric(values []float64, frames []int, segments []motion.Segment, names []string) (*MetricData, error) {
	data := &MetricData{
		Frames: frames,
		Values: values,
		Avg:    stat.Mean(values, nil),
		Max:    floats.Max(values),
		Min:    floats.Min(values),
	}

	if len(segments) == 0 {
		return data, nil
	}

	phases, err := motion.PhaseStatistics(values, segments, names)
	if err != nil {
		return nil, err
	}
	if len(phases) > 0 {
		stats := motion.Columnar(phases)
		data.Phases = phases
		data.PhaseStats = &stats
	}
	return data, nil
}
