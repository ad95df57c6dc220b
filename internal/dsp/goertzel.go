// internal/dsp/goertzel.go
package dsp

import (
	"errors"
	"math"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// GoertzelConfig holds configuration for the Goertzel filter
type GoertzelConfig struct {
	// TargetFrequency is the frequency to measure in Hz (from config: tone_frequency)
	TargetFrequency float64
	// SampleRate is the audio sample rate in Hz
	SampleRate float64
	// BlockSize is the number of samples per measurement
	BlockSize int
}

// Goertzel measures the magnitude of a single frequency bin.
// The envelope follower decides tone presence; Goertzel only reports how
// much of the detected energy sits at the expected pitch.
type Goertzel struct {
	config      GoertzelConfig
	coefficient float64 // 2 * cos(2π * k / N)
	normalizer  float64 // 2 / N
}

// NewGoertzel creates a Goertzel filter for the given configuration.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= cfg.SampleRate/2 {
		return nil, ErrInvalidFrequency
	}

	omega := 2.0 * math.Pi * cfg.TargetFrequency / cfg.SampleRate

	return &Goertzel{
		config:      cfg,
		coefficient: 2.0 * math.Cos(omega),
		normalizer:  2.0 / float64(cfg.BlockSize),
	}, nil
}

// Magnitude returns the normalized magnitude of the target frequency over
// the first BlockSize samples. A full-scale sine at the target frequency
// yields approximately its amplitude.
func (g *Goertzel) Magnitude(samples []float64) (float64, error) {
	if len(samples) < g.config.BlockSize {
		return 0, ErrInsufficientSamples
	}

	var s0, s1, s2 float64
	for _, x := range samples[:g.config.BlockSize] {
		s0 = x + g.coefficient*s1 - s2
		s2 = s1
		s1 = s0
	}

	power := s1*s1 + s2*s2 - g.coefficient*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * g.normalizer, nil
}

// Config returns the filter configuration
func (g *Goertzel) Config() GoertzelConfig {
	return g.config
}

// ToneLevel measures the Goertzel magnitude at frequencyHz across the
// longest On segment of an envelope detected from samples.
func ToneLevel(samples []float64, sampleRate int, segments []cw.Segment, frequencyHz float64) (float64, error) {
	var offsetMs, bestStart, bestLen int
	for _, s := range segments {
		if s.On && s.DurationMs > bestLen {
			bestStart, bestLen = offsetMs, s.DurationMs
		}
		offsetMs += s.DurationMs
	}
	if bestLen == 0 {
		return 0, cw.ErrNoSignalDetected
	}

	from := min(bestStart*sampleRate/1000, len(samples))
	to := min((bestStart+bestLen)*sampleRate/1000, len(samples))

	g, err := NewGoertzel(GoertzelConfig{
		TargetFrequency: frequencyHz,
		SampleRate:      float64(sampleRate),
		BlockSize:       to - from,
	})
	if err != nil {
		return 0, err
	}
	return g.Magnitude(samples[from:to])
}
