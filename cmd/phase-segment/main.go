package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/chrissnell/rehabtrack/internal/log"
	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/chrissnell/rehabtrack/internal/report"
	"github.com/chrissnell/rehabtrack/internal/sessions"
)

type result struct {
	Metric     sessions.Metric        `json:"metric"`
	Method     motion.Method          `json:"method"`
	Fallback   string                 `json:"fallback,omitempty"`
	Boundaries []motion.PhaseBoundary `json:"boundaries"`
	Phases     []motion.Phase         `json:"phases"`
}

func main() {
	var (
		csvFile   = flag.String("csv", "", "Path to a joint-angle CSV recording (required)")
		metric    = flag.String("metric", string(sessions.RightKneeAngle), "Metric column to segment")
		phases    = flag.Int("phases", 3, "Number of phases")
		fps       = flag.Float64("fps", motion.DefaultFPS, "Recording frame rate")
		smoothing = flag.Float64("smoothing", motion.DefaultSmoothingRadius, "Gaussian smoothing radius in samples (0 disables)")
		detector  = flag.String("detector", string(motion.DetectorTypeFixed), "Event detector: 'fixed' or 'adaptive'")
		names     = flag.String("names", "", "Comma-separated phase names, cycled when shorter than -phases")
		chart     = flag.String("chart", "", "Write a phase chart to this .png or .svg file")
		asJSON    = flag.Bool("json", false, "Print JSON instead of a table")
		debug     = flag.Bool("debug", false, "Turn on debugging output")
	)
	flag.Parse()

	if *csvFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -csv <recording.csv> [-metric right_knee_angle] [-phases 3]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	params := motion.Params{
		FPS:                *fps,
		SmoothingRadius:    *smoothing,
		MinSamplesPerPhase: motion.DefaultMinSamplesPerPhase,
		Detector:           motion.DetectorType(*detector),
	}
	if _, err := motion.NewDetector(params.Detector, *phases); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := run(*csvFile, *metric, *phases, splitNames(*names), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *chart != "" {
		if err := writeChart(*chart, res); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing chart: %v\n", err)
			os.Exit(1)
		}
		log.Infof("wrote phase chart to %s", *chart)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printTable(os.Stdout, res)
}

func run(path, metricName string, numPhases int, names []string, params motion.Params) (*result, error) {
	m, ok := sessions.LookupMetric(metricName)
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", metricName)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := sessions.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	values, ok := table.Values(m)
	if !ok {
		return nil, fmt.Errorf("%s has no %s column", path, m)
	}

	det, err := motion.NewSegmenter(params, log.GetSugaredLogger()).Segment(values, numPhases)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		for i := range det.Boundaries {
			det.Boundaries[i].Name = names[i%len(names)]
		}
	}

	stats, err := motion.PhaseStatistics(values, det.Segments(), det.Names())
	if err != nil {
		return nil, err
	}

	res := &result{Metric: m, Method: det.Method, Boundaries: det.Boundaries, Phases: stats}
	if det.Fallback != nil {
		res.Fallback = det.Fallback.Error()
		log.Warnf("cycle detection failed, phases are equal divisions: %v", det.Fallback)
	}
	return res, nil
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func writeChart(path string, res *result) error {
	format := report.FormatPNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		format = report.FormatSVG
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.RenderPhaseChart(f, res.Metric.Title(), res.Phases, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printTable(w io.Writer, res *result) {
	fmt.Fprintf(w, "%s (%s)\n", res.Metric.Title(), res.Method)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "phase\tstart\tend\tavg\tmax\tmin\tstd\trom\t")
	for _, p := range res.Phases {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			p.Name, p.Start, p.End, p.Avg, p.Max, p.Min, p.Std, p.ROM)
	}
	tw.Flush()
}
