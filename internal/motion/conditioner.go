package motion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultFPS is the sampling rate assumed for recorded joint angles
	DefaultFPS = 30.0

	// DefaultSmoothingRadius is the Gaussian sigma in samples at DefaultFPS
	DefaultSmoothingRadius = 6.0

	// gaussianTruncate is the kernel half-width in standard deviations
	gaussianTruncate = 4.0
)

// ValidateSamples returns ErrInvalidSample if any value is NaN or infinite
func ValidateSamples(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sample %d (%v): %w", i, v, ErrInvalidSample)
		}
	}
	return nil
}

// ChangeRate smooths a signal with a Gaussian kernel and returns its first
// difference scaled to units per second. The kernel sigma is
// round(smoothingRadius*fps/30) samples so the smoothing covers the same time
// span at any frame rate; a radius of zero disables smoothing.
// The result has len(signal)-1 samples.
func ChangeRate(signal []float64, fps, smoothingRadius float64) []float64 {
	if len(signal) < 2 {
		return []float64{}
	}

	data := signal
	if smoothingRadius != 0 {
		sigma := math.RoundToEven(smoothingRadius * fps / 30)
		if sigma > 0 {
			data = GaussianSmooth(signal, sigma)
		}
	}

	rate := make([]float64, len(data)-1)
	floats.SubTo(rate, data[1:], data[:len(data)-1])
	floats.Scale(fps, rate)
	return rate
}

// GaussianSmooth convolves the signal with a normalized Gaussian kernel of the
// given standard deviation, truncated at four sigma. Samples beyond either end
// are mirrored about the edge (d c b a | a b c d | d c b a).
func GaussianSmooth(signal []float64, sigma float64) []float64 {
	n := len(signal)
	if n == 0 || sigma <= 0 {
		return append([]float64(nil), signal...)
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	smoothed := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for k, w := range kernel {
			sum += w * signal[reflectIndex(i+k-radius, n)]
		}
		smoothed[i] = sum
	}
	return smoothed
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	variance := sigma * sigma
	for i := -radius; i <= radius; i++ {
		x := float64(i)
		kernel[i+radius] = math.Exp(-0.5 * x * x / variance)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// reflectIndex maps any integer index onto [0,n) by half-sample symmetric reflection
func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
