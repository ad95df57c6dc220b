// internal/cw/classifier.go
package cw

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Classifier constants. These fix the decoding contract and are not configurable.
const (
	// NoiseMs is the longest tone treated as detection noise and discarded
	NoiseMs = 20
	// DotPercentile selects the dot reference from the sorted tone lengths (nearest rank)
	DotPercentile = 0.25
	// DashFactor scales the dot reference into the dot/dash and letter-gap threshold
	DashFactor = 2.2
	// WordGapFactor scales the dot reference into the word-gap threshold
	WordGapFactor = 5.0
)

// Segment is a maximal run of envelope chunks in one state
type Segment struct {
	On         bool
	DurationMs int
}

// Thresholds are derived from the tone population of a single input
type Thresholds struct {
	DotReferenceMs  float64
	DashThresholdMs float64
}

// Classification is the result of classifying an envelope
type Classification struct {
	Morse      string
	Thresholds Thresholds
	// Tones is the number of tones that survived the noise filter
	Tones int
}

// EstimateThresholds derives the dot reference and dash threshold from
// the tones longer than NoiseMs. It returns ErrNoSignalDetected when
// there are none.
func EstimateThresholds(segments []Segment) (Thresholds, int, error) {
	tones := lo.FilterMap(segments, func(s Segment, _ int) (int, bool) {
		return s.DurationMs, s.On && s.DurationMs > NoiseMs
	})
	if len(tones) == 0 {
		return Thresholds{}, 0, fmt.Errorf("no tone longer than %d ms: %w", NoiseMs, ErrNoSignalDetected)
	}
	sort.Ints(tones)
	dotRef := float64(tones[int(DotPercentile*float64(len(tones)))])
	return Thresholds{
		DotReferenceMs:  dotRef,
		DashThresholdMs: DashFactor * dotRef,
	}, len(tones), nil
}

// Classify turns an envelope into a Morse string in two passes: the first
// estimates the unit length from the data, the second classifies every
// segment against thresholds derived from it. Silence before the first
// tone and after the last one is not a gap and produces no separator.
func Classify(segments []Segment) (Classification, error) {
	th, n, err := EstimateThresholds(segments)
	if err != nil {
		return Classification{}, err
	}

	var (
		b       strings.Builder
		pending string
		started bool
	)
	for _, s := range segments {
		d := float64(s.DurationMs)
		if s.On {
			// same cutoff as EstimateThresholds: a tone of exactly NoiseMs
			// is noise here too, never a dot
			if s.DurationMs <= NoiseMs {
				continue
			}
			if started {
				b.WriteString(pending)
			}
			pending, started = "", true
			if d < th.DashThresholdMs {
				b.WriteByte('.')
			} else {
				b.WriteByte('-')
			}
			continue
		}
		// a skipped noise tone can leave two silences back to back; the longer wins
		switch {
		case d > WordGapFactor*th.DotReferenceMs:
			pending = " / "
		case d > DashFactor*th.DotReferenceMs && pending == "":
			pending = " "
		}
	}

	return Classification{
		Morse:      strings.TrimSpace(b.String()),
		Thresholds: th,
		Tones:      n,
	}, nil
}
