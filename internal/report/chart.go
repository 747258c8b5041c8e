// Package report renders phase statistics and session trends as charts.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/chrissnell/rehabtrack/internal/sessions"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Format is an output image format understood by gonum/plot
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
)

var (
	ErrNoData        = errors.New("nothing to plot")
	ErrUnknownFormat = errors.New("unsupported chart format")
)

var (
	barColor  = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	maxColor  = color.RGBA{R: 200, G: 50, B: 50, A: 255}
	minColor  = color.RGBA{R: 40, G: 150, B: 70, A: 255}
	lineColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
)

// ParseFormat accepts png or svg; the empty string means png
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of charts in format f
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// phaseErrors pairs phase averages with their std as symmetric error bars
type phaseErrors struct {
	plotter.XYs
	plotter.YErrors
}

// RenderPhaseChart draws one bar per phase at its average, with std error
// bars and markers at the phase minimum and maximum.
func RenderPhaseChart(w io.Writer, title string, phases []motion.Phase, format Format) error {
	if len(phases) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Angle (deg)"

	avgs := make(plotter.Values, len(phases))
	errs := phaseErrors{XYs: make(plotter.XYs, len(phases)), YErrors: make(plotter.YErrors, len(phases))}
	maxPts := make(plotter.XYs, len(phases))
	minPts := make(plotter.XYs, len(phases))
	names := make([]string, len(phases))

	for i, ph := range phases {
		x := float64(i)
		avgs[i] = ph.Avg
		errs.XYs[i] = plotter.XY{X: x, Y: ph.Avg}
		errs.YErrors[i].Low = ph.Std
		errs.YErrors[i].High = ph.Std
		maxPts[i] = plotter.XY{X: x, Y: ph.Max}
		minPts[i] = plotter.XY{X: x, Y: ph.Min}
		names[i] = ph.Name
	}

	bars, err := plotter.NewBarChart(avgs, vg.Points(30))
	if err != nil {
		return fmt.Errorf("building bars: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)

	errBars, err := plotter.NewYErrorBars(errs)
	if err != nil {
		return fmt.Errorf("building error bars: %w", err)
	}

	maxMarks, err := plotter.NewScatter(maxPts)
	if err != nil {
		return fmt.Errorf("building max markers: %w", err)
	}
	maxMarks.GlyphStyle.Shape = draw.PyramidGlyph{}
	maxMarks.GlyphStyle.Color = maxColor

	minMarks, err := plotter.NewScatter(minPts)
	if err != nil {
		return fmt.Errorf("building min markers: %w", err)
	}
	minMarks.GlyphStyle.Shape = draw.BoxGlyph{}
	minMarks.GlyphStyle.Color = minColor

	p.Add(bars, errBars, maxMarks, minMarks)
	p.Legend.Add("avg", bars)
	p.Legend.Add("max", maxMarks)
	p.Legend.Add("min", minMarks)
	p.Legend.Top = true
	p.NominalX(names...)

	return save(p, w, format)
}

// RenderProgressChart plots a metric's per-session avg, max and min
func RenderProgressChart(w io.Writer, series sessions.TrendSeries, format Format) error {
	if len(series.Avg) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = series.Metric.Title() + " progress"
	p.X.Label.Text = "Session"
	p.Y.Label.Text = "Angle (deg)"

	lines := []struct {
		name   string
		values []float64
		clr    color.Color
	}{
		{"avg", series.Avg, lineColor},
		{"max", series.Max, maxColor},
		{"min", series.Min, minColor},
	}
	for _, l := range lines {
		if len(l.values) != len(series.Avg) {
			continue
		}
		pts := make(plotter.XYs, len(l.values))
		for i, v := range l.values {
			pts[i] = plotter.XY{X: float64(i), Y: v}
		}
		line, marks, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("building %s line: %w", l.name, err)
		}
		line.Color = l.clr
		line.Width = vg.Points(1.5)
		marks.GlyphStyle.Color = l.clr
		p.Add(line, marks)
		p.Legend.Add(l.name, line, marks)
	}
	p.Legend.Top = true
	if len(series.Dates) == len(series.Avg) {
		p.NominalX(series.Dates...)
	}

	return save(p, w, format)
}

func save(p *plot.Plot, w io.Writer, format Format) error {
	if format == "" {
		format = FormatPNG
	}
	if format != FormatPNG && format != FormatSVG {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	wt, err := p.WriterTo(chartWidth, chartHeight, string(format))
	if err != nil {
		return fmt.Errorf("preparing %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}
