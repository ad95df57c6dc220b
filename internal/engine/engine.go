// Package engine ties the codec, synthesizer, envelope decoder and
// classifier into the operations the CLI and HTTP API expose.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ColonelBlimp/morsetrainer/internal/audio"
	"github.com/ColonelBlimp/morsetrainer/internal/config"
	"github.com/ColonelBlimp/morsetrainer/internal/cw"
	"github.com/ColonelBlimp/morsetrainer/internal/dsp"
	"github.com/ColonelBlimp/morsetrainer/internal/recovery"
)

// Options configures an Engine. Zero values of the nested configs are
// not defaulted; use FromSettings or the dsp Default* constructors.
type Options struct {
	Timing   cw.Timing
	Synth    dsp.SynthConfig
	Envelope dsp.EnvelopeConfig
	Load     audio.LoadOptions
	Logger   *slog.Logger
}

// Engine is immutable once built; a settings change means a new Engine.
// Every operation therefore works on a stable snapshot of its timing.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// Analysis is the outcome of decoding an audio recording
type Analysis struct {
	// Signal is false when no qualifying tone was found; the remaining
	// Morse fields are then empty.
	Signal          bool         `json:"signal"`
	Morse           string       `json:"morse"`
	Text            string       `json:"text"`
	DotReferenceMs  float64      `json:"dot_reference_ms"`
	DashThresholdMs float64      `json:"dash_threshold_ms"`
	Tones           int          `json:"tones"`
	Segments        []cw.Segment `json:"-"`
	SampleRate      int          `json:"sample_rate"`
	Channels        int          `json:"channels"`
	DurationMs      float64      `json:"duration_ms"`
	Format          audio.Type   `json:"format"`
	// ToneLevel is the Goertzel magnitude at the configured frequency over
	// the longest tone; near the tone amplitude when the pitch matches.
	ToneLevel float64 `json:"tone_level"`
}

// New builds an Engine from explicit options. The timing must lie within
// the supported speed and pitch ranges and below the Nyquist frequency of
// the synthesis sample rate; otherwise the error wraps cw.ErrInvalidParameter.
func New(opts Options) (*Engine, error) {
	if err := cw.ValidateTiming(opts.Timing.WPM, opts.Timing.FrequencyHz, opts.Synth.SampleRate); err != nil {
		return nil, fmt.Errorf("timing: %w", err)
	}
	t, err := cw.NewTiming(opts.Timing.WPM, opts.Timing.FrequencyHz)
	if err != nil {
		return nil, err
	}
	opts.Timing = t
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{opts: opts, log: opts.Logger}, nil
}

// FromSettings builds an Engine from validated application settings
func FromSettings(s *config.Settings) (*Engine, error) {
	t, err := cw.NewTiming(float64(s.WPM), s.ToneFrequency)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Timing: t,
		Synth: dsp.SynthConfig{
			SampleRate:    s.SampleRate,
			Gain:          s.ToneGain,
			TailPaddingMs: float64(s.TailPaddingMs),
		},
		Envelope: dsp.EnvelopeConfig{
			ChunkMs:   s.ChunkMs,
			Threshold: s.EnvelopeThreshold,
		},
		Load: audio.LoadOptions{Downmix: s.Downmix},
	})
}

// WithTiming returns a copy of the engine using a new speed and pitch,
// validated the same way as New
func (e *Engine) WithTiming(wpm, frequencyHz float64) (*Engine, error) {
	t, err := cw.NewTiming(wpm, frequencyHz)
	if err != nil {
		return nil, err
	}
	opts := e.opts
	opts.Timing = t
	return New(opts)
}

// Timing returns the engine's timing snapshot
func (e *Engine) Timing() cw.Timing {
	return e.opts.Timing
}

// Encode converts text to Morse
func (e *Engine) Encode(text string) string {
	return cw.Encode(text)
}

// Decode converts Morse to text
func (e *Engine) Decode(morse string) string {
	return cw.Decode(morse)
}

// Schedule lays out a Morse string with the engine's timing
func (e *Engine) Schedule(morse string) (cw.Schedule, error) {
	return cw.NewSchedule(morse, e.opts.Timing)
}

// Render synthesizes a Morse string into a WAV file
func (e *Engine) Render(morse string) ([]byte, error) {
	samples, err := dsp.Synthesize(morse, e.opts.Timing, e.opts.Synth)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	wav := audio.EncodeWAV(samples, e.opts.Synth.SampleRate)
	e.log.Debug("rendered morse",
		"wpm", e.opts.Timing.WPM,
		"frequency_hz", e.opts.Timing.FrequencyHz,
		"samples", len(samples),
		"bytes", len(wav))
	return wav, nil
}

// Analyze decodes Morse from a WAV or MP3 recording.
//
// A recording without any qualifying tone is not an error: the result has
// Signal false and err is nil. Demux failures and panics while decoding
// are returned wrapping cw.ErrDecodeFailure.
func (e *Engine) Analyze(r io.ReadSeeker) (Analysis, error) {
	var result Analysis
	err := recovery.Guard(func() error {
		var err error
		result, err = e.analyze(r)
		return err
	})
	if errors.Is(err, recovery.ErrPanic) {
		err = fmt.Errorf("analyze: %w: %w", err, cw.ErrDecodeFailure)
	}
	if err != nil {
		return Analysis{}, err
	}
	return result, nil
}

func (e *Engine) analyze(r io.ReadSeeker) (Analysis, error) {
	pcm, err := audio.Load(r, e.opts.Load)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}

	segments, err := dsp.DetectEnvelope(pcm.Samples, pcm.SampleRate, e.opts.Envelope)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}

	result := Analysis{
		Segments:   segments,
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		DurationMs: pcm.DurationMs(),
		Format:     pcm.Format,
	}

	c, err := cw.Classify(segments)
	if errors.Is(err, cw.ErrNoSignalDetected) {
		e.log.Debug("no signal detected", "segments", len(segments), "duration_ms", result.DurationMs)
		return result, nil
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze: %w", err)
	}

	result.Signal = true
	result.Morse = c.Morse
	result.Text = cw.Decode(c.Morse)
	result.DotReferenceMs = c.Thresholds.DotReferenceMs
	result.DashThresholdMs = c.Thresholds.DashThresholdMs
	result.Tones = c.Tones

	level, err := dsp.ToneLevel(pcm.Samples, pcm.SampleRate, segments, e.opts.Timing.FrequencyHz)
	if err != nil {
		e.log.Debug("tone level unavailable", "error", err)
	}
	result.ToneLevel = level

	e.log.Debug("decoded audio",
		"format", pcm.Format,
		"sample_rate", pcm.SampleRate,
		"segments", len(segments),
		"dot_reference_ms", c.Thresholds.DotReferenceMs,
		"dash_threshold_ms", c.Thresholds.DashThresholdMs,
		"tone_level", level)
	return result, nil
}

// Play sends a Morse string to sink element by element, in order.
// Cancelling ctx stops playback and returns ctx.Err().
func (e *Engine) Play(ctx context.Context, morse string, sink cw.Sink) error {
	sched, err := e.Schedule(morse)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return sched.Play(ctx, sink)
}

// Vibration returns the vibrate/pause pattern for a Morse string
func (e *Engine) Vibration(morse string) ([]int, error) {
	sched, err := e.Schedule(morse)
	if err != nil {
		return nil, fmt.Errorf("vibration: %w", err)
	}
	return sched.VibrationPattern(), nil
}
