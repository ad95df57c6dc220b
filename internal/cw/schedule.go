// internal/cw/schedule.go
package cw

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Element is one timed step of a Morse transmission: a tone or a silence
type Element struct {
	Tone bool
	Ms   float64
}

// Sink receives a schedule one element at a time. Each call must block
// until its element has fully elapsed so that playback stays ordered.
type Sink interface {
	Tone(ctx context.Context, frequencyHz float64, d time.Duration) error
	Pause(ctx context.Context, d time.Duration) error
}

// Schedule is the ordered tone/silence timeline of a Morse string
type Schedule struct {
	Timing   Timing
	Elements []Element
}

// NewSchedule lays out a Morse string on the timeline of t.
//
// Gaps are expressed as totals measured from the end of one tone to the
// start of the next: one dot inside a letter, three dots for a run of
// spaces and seven dots for any run containing a word separator. A run at
// the start or end of the string sets the leading or trailing silence.
// Characters other than '.', '-', ' ' and '/' are ignored.
func NewSchedule(morse string, t Timing) (Schedule, error) {
	if morse == "" {
		return Schedule{}, fmt.Errorf("empty morse string: %w", ErrInvalidInput)
	}
	if !(t.DotMs > 0) {
		return Schedule{}, fmt.Errorf("dot duration must be positive: %w", ErrInvalidParameter)
	}

	var (
		elements          []Element
		sawTone           bool
		inRun, runHasWord bool
	)
	gapFor := func() float64 {
		switch {
		case runHasWord:
			return t.WordGapMs()
		case inRun:
			return t.LetterGapMs()
		default:
			return t.IntraGapMs()
		}
	}

	for _, r := range morse {
		switch r {
		case '.', '-':
			if sawTone || inRun {
				elements = append(elements, Element{Ms: gapFor()})
			}
			ms := t.DotMs
			if r == '-' {
				ms = t.DashMs()
			}
			elements = append(elements, Element{Tone: true, Ms: ms})
			sawTone = true
			inRun, runHasWord = false, false
		case ' ':
			inRun = true
		case '/':
			inRun, runHasWord = true, true
		}
	}
	if !sawTone {
		return Schedule{}, fmt.Errorf("no dots or dashes in %q: %w", morse, ErrInvalidInput)
	}
	elements = append(elements, Element{Ms: gapFor()})

	return Schedule{Timing: t, Elements: elements}, nil
}

// TotalMs returns the length of the timeline in milliseconds
func (s Schedule) TotalMs() float64 {
	var total float64
	for _, e := range s.Elements {
		total += e.Ms
	}
	return total
}

// Play feeds the schedule to sink in order. It returns ctx.Err() if the
// context is cancelled before the last element completes.
func (s Schedule) Play(ctx context.Context, sink Sink) error {
	for _, e := range s.Elements {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if e.Tone {
			err = sink.Tone(ctx, s.Timing.FrequencyHz, Duration(e.Ms))
		} else {
			err = sink.Pause(ctx, Duration(e.Ms))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// VibrationPattern renders the schedule as alternating vibrate/pause
// durations in whole milliseconds, starting with a vibration. The
// trailing pause is dropped.
func (s Schedule) VibrationPattern() []int {
	var pattern []int
	for _, e := range s.Elements {
		ms := int(math.Round(e.Ms))
		// even index = vibrate, odd = pause
		wantVibrate := len(pattern)%2 == 0
		switch {
		case e.Tone == wantVibrate:
			pattern = append(pattern, ms)
		case len(pattern) == 0:
			pattern = append(pattern, 0, ms)
		default:
			pattern[len(pattern)-1] += ms
		}
	}
	if len(pattern)%2 == 0 && len(pattern) > 0 {
		pattern = pattern[:len(pattern)-1]
	}
	return pattern
}

// Wait blocks for d or until ctx is done. Sinks use it to hold an element.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
