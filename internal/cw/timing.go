// Package cw implements Morse timing, the text codec, element scheduling
// and classification of detected tone envelopes.
package cw

import (
	"errors"
	"fmt"
	"time"
)

// Morse code timing ratios (ITU standard), all relative to one dot
const (
	// DahDitRatio is the ratio of dash duration to dot duration (ITU: 3:1)
	DahDitRatio = 3.0
	// IntraCharSpaceRatio is the gap between elements of one character (ITU: 1:1)
	IntraCharSpaceRatio = 1.0
	// InterCharSpaceRatio is the total gap between characters (ITU: 3:1)
	InterCharSpaceRatio = 3.0
	// WordSpaceRatio is the total gap between words (ITU: 7:1)
	WordSpaceRatio = 7.0

	// DotMsNumerator gives the dot length in ms as DotMsNumerator / WPM ("PARIS" = 50 dots)
	DotMsNumerator = 1200.0
)

// Supported speed and pitch ranges, shared by the config file and
// per-request overrides
const (
	MinWPM         = 5
	MaxWPM         = 60
	MinFrequencyHz = 100
	MaxFrequencyHz = 3000
)

// Timing is the immutable timing profile every render, playback and decode
// works from. Changing speed or pitch means building a new value.
type Timing struct {
	WPM         float64
	FrequencyHz float64
	DotMs       float64
}

// NewTiming derives a timing profile from words-per-minute and tone frequency.
func NewTiming(wpm, frequencyHz float64) (Timing, error) {
	if !(wpm > 0) {
		return Timing{}, fmt.Errorf("wpm must be positive, got %v: %w", wpm, ErrInvalidParameter)
	}
	if !(frequencyHz > 0) {
		return Timing{}, fmt.Errorf("frequency must be positive, got %v: %w", frequencyHz, ErrInvalidParameter)
	}
	return Timing{
		WPM:         wpm,
		FrequencyHz: frequencyHz,
		DotMs:       DotMsNumerator / wpm,
	}, nil
}

// ValidateTiming reports every way a speed and pitch fall outside the
// supported ranges, including a tone at or above the Nyquist frequency of
// sampleRate. Each error wraps ErrInvalidParameter.
func ValidateTiming(wpm, frequencyHz float64, sampleRate int) error {
	var errs []error
	if !(wpm >= MinWPM && wpm <= MaxWPM) {
		errs = append(errs, fmt.Errorf("wpm must be between %d and %d, got %v: %w", MinWPM, MaxWPM, wpm, ErrInvalidParameter))
	}
	if !(frequencyHz >= MinFrequencyHz && frequencyHz <= MaxFrequencyHz) {
		errs = append(errs, fmt.Errorf("tone_frequency must be between %d and %d Hz, got %v: %w", MinFrequencyHz, MaxFrequencyHz, frequencyHz, ErrInvalidParameter))
	}
	if nyquist := float64(sampleRate) / 2; frequencyHz >= nyquist {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz): %w", frequencyHz, nyquist, ErrInvalidParameter))
	}
	return errors.Join(errs...)
}

// DashMs returns the dash length in milliseconds
func (t Timing) DashMs() float64 { return t.DotMs * DahDitRatio }

// IntraGapMs returns the gap between elements of one character
func (t Timing) IntraGapMs() float64 { return t.DotMs * IntraCharSpaceRatio }

// LetterGapMs returns the total gap between characters
func (t Timing) LetterGapMs() float64 { return t.DotMs * InterCharSpaceRatio }

// WordGapMs returns the total gap between words
func (t Timing) WordGapMs() float64 { return t.DotMs * WordSpaceRatio }

// Duration converts a millisecond value to a time.Duration
func Duration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
