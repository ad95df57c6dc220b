package cw

import "errors"

var (
	// ErrInvalidParameter indicates a non-positive WPM, frequency or sample rate
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidInput indicates a Morse string with nothing to render
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoSignalDetected indicates the envelope held no qualifying tone.
	// Callers treat it as a result, not a failure.
	ErrNoSignalDetected = errors.New("no signal detected")
	// ErrDecodeFailure indicates the audio input could not be demuxed to PCM
	ErrDecodeFailure = errors.New("audio decode failed")
)
