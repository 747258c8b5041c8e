package restserver

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/rehabtrack/internal/sessions"
)

var errBadRequest = errors.New("bad request")

// metricParam resolves the "metric" query parameter against the catalogue
func metricParam(query url.Values) (sessions.Metric, error) {
	name := query.Get("metric")
	if name == "" {
		return "", fmt.Errorf("%w: metric parameter is required", errBadRequest)
	}
	m, ok := sessions.LookupMetric(name)
	if !ok {
		return "", fmt.Errorf("%w: unknown metric %q", errBadRequest, name)
	}
	return m, nil
}

// sessionOptions builds processing options from the query string, falling
// back to the configured phase defaults. It also reports whether an existing
// session for the same date may be replaced.
func (h *Handlers) sessionOptions(query url.Values) (sessions.Options, bool, error) {
	seg := h.controller.segConfig
	opts := sessions.DefaultOptions(time.Now(), seg.DefaultPhases, seg.PhaseNames)

	if v := query.Get("date"); v != "" {
		opts.Date = v
	}
	if v := query.Get("action_type"); v != "" {
		opts.ActionType = sessions.ActionType(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"repetitions", &opts.Repetitions},
		{"num_phases", &opts.NumPhases},
	}
	for _, p := range ints {
		v := query.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, false, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, p.key, v)
		}
		*p.dst = n
	}

	if v := query.Get("phase_names"); v != "" {
		opts.PhaseNames = strings.Split(v, ",")
	}

	var overwrite bool
	bools := []struct {
		key string
		dst *bool
	}{
		{"advanced", &opts.AdvancedSegmentation},
		{"segmentation", &opts.EnableSegmentation},
		{"overwrite", &overwrite},
	}
	for _, p := range bools {
		v := query.Get(p.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, false, fmt.Errorf("%w: %s must be true or false, got %q", errBadRequest, p.key, v)
		}
		*p.dst = b
	}

	if err := opts.Validate(); err != nil {
		return opts, false, err
	}
	return opts, overwrite, nil
}
