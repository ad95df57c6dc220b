package audio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Type
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE"), TypeWAV},
		{"riff but not wave", []byte("RIFF\x24\x00\x00\x00AVI "), TypeUnknown},
		{"id3 tagged mp3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00\x00\x00"), TypeMP3},
		{"mpeg frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, TypeMP3},
		{"text", []byte("hello world!"), TypeUnknown},
		{"empty", nil, TypeUnknown},
		{"short", []byte("RI"), TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.header); got != tt.want {
				t.Errorf("Sniff() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrUnsupportedFormat},
		{"shorter than a header", []byte("RIF"), ErrUnsupportedFormat},
		{"garbage", []byte("this is not audio at all"), ErrUnsupportedFormat},
		{"truncated wav", EncodeWAV(make([]float64, 100), 44100)[:20], nil},
		{"no samples", EncodeWAV(nil, 44100), nil},
		{"broken mp3", append([]byte("ID3"), make([]byte, 64)...), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(bytes.NewReader(tt.data), LoadOptions{})
			if !errors.Is(err, cw.ErrDecodeFailure) {
				t.Fatalf("Load() error = %v, want ErrDecodeFailure", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// writeStereoWAV writes frames of (left, right) 16-bit samples to a file
func writeStereoWAV(t *testing.T, left, right int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 2, FormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		SourceBitDepth: 16,
	}
	for i := 0; i < 80; i++ {
		buf.Data = append(buf.Data, left, right)
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestLoad_Stereo(t *testing.T) {
	path := writeStereoWAV(t, 16384, 0)

	tests := []struct {
		name    string
		downmix bool
		want    float64
	}{
		{"first channel", false, 0.5},
		{"downmix", true, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := os.Open(path)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer f.Close()

			pcm, err := Load(f, LoadOptions{Downmix: tt.downmix})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if pcm.Channels != 2 {
				t.Errorf("Channels = %d, want 2", pcm.Channels)
			}
			if len(pcm.Samples) != 80 {
				t.Fatalf("len(Samples) = %d, want 80", len(pcm.Samples))
			}
			if pcm.Samples[0] != tt.want {
				t.Errorf("Samples[0] = %v, want %v", pcm.Samples[0], tt.want)
			}
			if got := pcm.DurationMs(); got != 10 {
				t.Errorf("DurationMs() = %v, want 10", got)
			}
		})
	}
}

func TestToMono_InvalidBuffer(t *testing.T) {
	for _, downmix := range []bool{false, true} {
		samples, err := toMono(&goaudio.FloatBuffer{Data: []float64{0.1, 0.2}}, downmix)
		if !errors.Is(err, goaudio.ErrInvalidBuffer) {
			t.Errorf("toMono(downmix=%v) error = %v, want ErrInvalidBuffer", downmix, err)
		}
		if samples != nil {
			t.Errorf("toMono(downmix=%v) = %v, want nil", downmix, samples)
		}
	}
}

func TestToMono_Downmix(t *testing.T) {
	buf := &goaudio.FloatBuffer{
		Format: &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:   []float64{0.5, 0.1, -0.2, 0.4},
	}
	samples, err := toMono(buf, true)
	if err != nil {
		t.Fatalf("toMono() error = %v", err)
	}
	want := []float64{0.3, 0.1}
	for i := range want {
		if math.Abs(samples[i]-want[i]) > 1e-12 {
			t.Errorf("samples[%d] = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestPCM_DurationMs_ZeroRate(t *testing.T) {
	if got := (PCM{Samples: make([]float64, 10)}).DurationMs(); got != 0 {
		t.Errorf("DurationMs() = %v, want 0", got)
	}
}
