// internal/dsp/envelope.go
package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

// Envelope defaults
const (
	DefaultChunkMs   = 10
	DefaultThreshold = 0.1
)

var (
	// ErrInvalidChunk indicates the chunk length must give at least one sample
	ErrInvalidChunk = errors.New("chunk must span at least one sample")
	// ErrInvalidThreshold indicates threshold must be between 0 and 1
	ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")
)

// EnvelopeConfig holds configuration for the envelope follower.
// All values should come from the application config file.
type EnvelopeConfig struct {
	// ChunkMs is the analysis resolution in milliseconds (from config: chunk_ms)
	ChunkMs int
	// Threshold is the peak amplitude a chunk must exceed to count as tone (from config: envelope_threshold)
	Threshold float64
}

// DefaultEnvelopeConfig returns the reference envelope settings
func DefaultEnvelopeConfig() EnvelopeConfig {
	return EnvelopeConfig{
		ChunkMs:   DefaultChunkMs,
		Threshold: DefaultThreshold,
	}
}

// DetectEnvelope splits samples into fixed chunks, marks each chunk On
// when its peak absolute amplitude exceeds the threshold, and coalesces
// runs of equal state into segments. Every chunk counts as ChunkMs, the
// last partial chunk included.
func DetectEnvelope(samples []float64, sampleRate int, cfg EnvelopeConfig) ([]cw.Segment, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSampleRate, cw.ErrInvalidParameter)
	}
	if cfg.Threshold < 0 || cfg.Threshold >= 1 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidThreshold, cw.ErrInvalidParameter)
	}
	chunk := sampleRate * cfg.ChunkMs / 1000
	if cfg.ChunkMs <= 0 || chunk <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChunk, cw.ErrInvalidParameter)
	}

	var (
		segments []cw.Segment
		on       bool
		current  int
	)
	for i := 0; i < len(samples); i += chunk {
		end := min(i+chunk, len(samples))
		signal := peak(samples[i:end]) > cfg.Threshold

		if signal != on {
			if current > 0 {
				segments = append(segments, cw.Segment{On: on, DurationMs: current})
			}
			on = signal
			current = 0
		}
		current += cfg.ChunkMs
	}
	if current > 0 {
		segments = append(segments, cw.Segment{On: on, DurationMs: current})
	}

	return segments, nil
}

func peak(block []float64) float64 {
	var m float64
	for _, s := range block {
		m = math.Max(m, math.Abs(s))
	}
	return m
}
