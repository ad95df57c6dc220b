// Package dsp renders Morse schedules to PCM and follows the amplitude
// envelope of recorded audio.
package dsp

import (
	"errors"
	"fmt"
	"math"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

// Synthesis defaults
const (
	DefaultSampleRate    = 44100
	DefaultToneGain      = 0.5
	DefaultTailPaddingMs = 1000

	// MaxSamples bounds one rendered buffer (512 MiB of float64, about
	// 25 minutes at 44.1 kHz)
	MaxSamples = 1 << 26
)

var (
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidGain indicates gain must be in (0, 1]
	ErrInvalidGain = errors.New("gain must be between 0.0 and 1.0")
	// ErrInvalidPadding indicates tail padding must be non-negative
	ErrInvalidPadding = errors.New("tail padding must be non-negative")
	// ErrTooLong indicates the rendered buffer would exceed MaxSamples
	ErrTooLong = errors.New("rendered audio too long")
)

// SynthConfig holds configuration for waveform synthesis.
// All values should come from the application config file.
type SynthConfig struct {
	// SampleRate is the output sample rate in Hz (from config: sample_rate)
	SampleRate int
	// Gain is the tone amplitude (from config: tone_gain)
	Gain float64
	// TailPaddingMs is the silence appended after the last element (from config: tail_padding_ms)
	TailPaddingMs float64
}

// DefaultSynthConfig returns the reference synthesis settings
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		SampleRate:    DefaultSampleRate,
		Gain:          DefaultToneGain,
		TailPaddingMs: DefaultTailPaddingMs,
	}
}

func (c SynthConfig) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSampleRate, cw.ErrInvalidParameter)
	}
	if !(c.Gain > 0) || c.Gain > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidGain, cw.ErrInvalidParameter)
	}
	if c.TailPaddingMs < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPadding, cw.ErrInvalidParameter)
	}
	return nil
}

// Synthesize renders a Morse string to mono PCM in [-1, 1].
// It returns cw.ErrInvalidInput for an empty string.
func Synthesize(morse string, t cw.Timing, cfg SynthConfig) ([]float64, error) {
	sched, err := cw.NewSchedule(morse, t)
	if err != nil {
		return nil, err
	}
	return Render(sched, cfg)
}

// Render renders a schedule to a freshly allocated sample buffer.
// A buffer longer than MaxSamples is refused with ErrTooLong.
// Each tone is a sine at the schedule's frequency starting at phase zero.
func Render(s cw.Schedule, cfg SynthConfig) ([]float64, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rate := float64(cfg.SampleRate)
	n := math.Ceil((s.TotalMs() + cfg.TailPaddingMs) * rate / 1000)
	if !(n <= MaxSamples) {
		return nil, fmt.Errorf("%w: %v samples, limit %d: %w", ErrTooLong, n, MaxSamples, cw.ErrInvalidParameter)
	}
	total := int(n)
	samples := make([]float64, total)
	omega := 2 * math.Pi * s.Timing.FrequencyHz / rate

	// Element boundaries come from the running total in ms so rounding
	// never accumulates across a long message.
	var startMs float64
	for _, e := range s.Elements {
		endMs := startMs + e.Ms
		if e.Tone {
			from := sampleIndex(startMs, rate)
			to := min(sampleIndex(endMs, rate), total)
			for i := from; i < to; i++ {
				samples[i] = cfg.Gain * math.Sin(omega*float64(i-from))
			}
		}
		startMs = endMs
	}

	return samples, nil
}

func sampleIndex(ms, rate float64) int {
	return int(math.Round(ms * rate / 1000))
}
