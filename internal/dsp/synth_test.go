package dsp

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

func timing20(t *testing.T) cw.Timing {
	t.Helper()
	timing, err := cw.NewTiming(20, 600)
	if err != nil {
		t.Fatalf("NewTiming() error = %v", err)
	}
	return timing
}

func TestSynthesize_Length(t *testing.T) {
	timing := timing20(t)

	tests := []struct {
		name    string
		morse   string
		padding float64
		want    int
	}{
		// .- is 360 ms of schedule
		{"letter A with padding", ".-", 1000, 59976},
		{"letter A without padding", ".-", 0, 15876},
		{"single dot", ".", 0, 5292},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSynthConfig()
			cfg.TailPaddingMs = tt.padding
			samples, err := Synthesize(tt.morse, timing, cfg)
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}
			if len(samples) != tt.want {
				t.Errorf("len(samples) = %d, want %d", len(samples), tt.want)
			}
		})
	}
}

func TestSynthesize_Waveform(t *testing.T) {
	samples, err := Synthesize(".-", timing20(t), DefaultSynthConfig())
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	const (
		dotEnd    = 2646  // 60 ms
		dashStart = 5292  // 120 ms
		dashEnd   = 13230 // 300 ms
	)

	if samples[0] != 0 {
		t.Errorf("samples[0] = %v, want 0 (tone starts at phase zero)", samples[0])
	}
	omega := 2 * math.Pi * 600 / DefaultSampleRate
	if want := DefaultToneGain * math.Sin(omega); math.Abs(samples[1]-want) > 1e-12 {
		t.Errorf("samples[1] = %v, want %v", samples[1], want)
	}

	var peakTone float64
	for i, s := range samples {
		inTone := i < dotEnd || (i >= dashStart && i < dashEnd)
		if !inTone && s != 0 {
			t.Fatalf("samples[%d] = %v, want silence", i, s)
		}
		peakTone = math.Max(peakTone, math.Abs(s))
	}
	if peakTone > DefaultToneGain || peakTone < DefaultToneGain*0.99 {
		t.Errorf("peak = %v, want about %v", peakTone, DefaultToneGain)
	}
}

func TestSynthesize_InvalidInput(t *testing.T) {
	for _, morse := range []string{"", " ", "/"} {
		if _, err := Synthesize(morse, timing20(t), DefaultSynthConfig()); !errors.Is(err, cw.ErrInvalidInput) {
			t.Errorf("Synthesize(%q) error = %v, want ErrInvalidInput", morse, err)
		}
	}
}

func TestSynthesize_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SynthConfig)
		wantErr error
	}{
		{"zero sample rate", func(c *SynthConfig) { c.SampleRate = 0 }, ErrInvalidSampleRate},
		{"negative sample rate", func(c *SynthConfig) { c.SampleRate = -44100 }, ErrInvalidSampleRate},
		{"zero gain", func(c *SynthConfig) { c.Gain = 0 }, ErrInvalidGain},
		{"gain above one", func(c *SynthConfig) { c.Gain = 1.5 }, ErrInvalidGain},
		{"negative padding", func(c *SynthConfig) { c.TailPaddingMs = -1 }, ErrInvalidPadding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSynthConfig()
			tt.mutate(&cfg)
			_, err := Synthesize(".", timing20(t), cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Synthesize() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, cw.ErrInvalidParameter) {
				t.Errorf("Synthesize() error = %v, want it to wrap ErrInvalidParameter", err)
			}
		})
	}
}

func TestRender_LeadingSilence(t *testing.T) {
	sched, err := cw.NewSchedule("/ .", timing20(t))
	if err != nil {
		t.Fatalf("NewSchedule() error = %v", err)
	}
	cfg := DefaultSynthConfig()
	cfg.TailPaddingMs = 0
	samples, err := Render(sched, cfg)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// 420 ms word gap before the first tone
	toneStart := 18522
	for i := 0; i < toneStart; i++ {
		if samples[i] != 0 {
			t.Fatalf("samples[%d] = %v, want silence before the first tone", i, samples[i])
		}
	}
	if samples[toneStart+1] == 0 {
		t.Error("tone missing after the leading silence")
	}
}

func TestSynthesize_TooLong(t *testing.T) {
	tests := []struct {
		name    string
		wpm     float64
		padding float64
	}{
		{"tiny wpm overflows int", 1e-12, DefaultTailPaddingMs},
		{"slow wpm exceeds limit", 0.001, DefaultTailPaddingMs},
		{"infinite padding", 20, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing, err := cw.NewTiming(tt.wpm, 600)
			if err != nil {
				t.Fatalf("NewTiming() error = %v", err)
			}
			cfg := DefaultSynthConfig()
			cfg.TailPaddingMs = tt.padding

			samples, err := Synthesize(".", timing, cfg)
			if !errors.Is(err, ErrTooLong) {
				t.Errorf("Synthesize() error = %v, want ErrTooLong", err)
			}
			if !errors.Is(err, cw.ErrInvalidParameter) {
				t.Errorf("Synthesize() error = %v, want it to wrap ErrInvalidParameter", err)
			}
			if samples != nil {
				t.Errorf("Synthesize() returned %d samples, want none", len(samples))
			}
		})
	}
}

func TestSynthesize_Concurrent(t *testing.T) {
	messages := []string{".-", "... --- ...", ".--. .- .-. .. ... / -.-. --.-", "-"}
	timing := timing20(t)
	cfg := DefaultSynthConfig()

	want := make([][]float64, len(messages))
	for i, m := range messages {
		samples, err := Synthesize(m, timing, cfg)
		if err != nil {
			t.Fatalf("Synthesize(%q) error = %v", m, err)
		}
		want[i] = samples
	}

	const rounds = 8
	got := make([][]float64, rounds*len(messages))
	errs := make([]error, len(got))
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = Synthesize(messages[i%len(messages)], timing, cfg)
		}(i)
	}
	wg.Wait()

	for i := range got {
		m := i % len(messages)
		if errs[i] != nil {
			t.Fatalf("Synthesize(%q) in goroutine %d error = %v", messages[m], i, errs[i])
		}
		if !slices.Equal(got[i], want[m]) {
			t.Errorf("Synthesize(%q) in goroutine %d differs from the sequential result", messages[m], i)
		}
	}
}
