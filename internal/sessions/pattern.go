package sessions

import (
	"fmt"

	"github.com/chrissnell/rehabtrack/internal/motion"
	"gonum.org/v1/gonum/stat"
)

// Pattern is the average movement of one repetition with its spread
type Pattern struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// RepetitionPattern cuts values into reps equal-length chunks, dropping any
// remainder, and returns the mean and population std across chunks at every
// normalized frame
func RepetitionPattern(values []float64, reps int) (*Pattern, error) {
	if reps < 1 {
		return nil, fmt.Errorf("number of repetitions must be positive, got %d", reps)
	}
	perRep := len(values) / reps
	if perRep == 0 {
		return nil, fmt.Errorf("not enough frames (%d) for %d repetitions: %w", len(values), reps, motion.ErrInsufficientData)
	}

	p := &Pattern{
		Mean: make([]float64, perRep),
		Std:  make([]float64, perRep),
	}
	column := make([]float64, reps)
	for i := 0; i < perRep; i++ {
		for rep := 0; rep < reps; rep++ {
			column[rep] = values[rep*perRep+i]
		}
		p.Mean[i], p.Std[i] = stat.PopMeanStdDev(column, nil)
	}
	return p, nil
}
