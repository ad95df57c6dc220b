// internal/audio/load.go
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2/mp3"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

// Type identifies an input container
type Type string

// Supported input containers
const (
	TypeWAV     Type = "wav"
	TypeMP3     Type = "mp3"
	TypeUnknown Type = ""
)

// WAVE_FORMAT_EXTENSIBLE, used by some recorders for plain PCM
const formatExtensible = 0xFFFE

var (
	// ErrUnsupportedFormat indicates the input is neither WAV nor MP3
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrEmptyAudio indicates the input decoded to zero samples
	ErrEmptyAudio = errors.New("audio contains no samples")
)

// PCM is decoded mono audio ready for envelope analysis
type PCM struct {
	Samples    []float64
	SampleRate int
	// Channels is the channel count of the source before mono conversion
	Channels int
	Format   Type
}

// DurationMs returns the length of the audio in milliseconds
func (p PCM) DurationMs() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(len(p.Samples)) * 1000 / float64(p.SampleRate)
}

// LoadOptions controls conversion of multi-channel input to mono
type LoadOptions struct {
	// Downmix averages all channels (from config: downmix); otherwise the first channel is used
	Downmix bool
}

type decoderFunc func(r io.ReadSeeker) (*goaudio.FloatBuffer, error)

var decoders = map[Type]decoderFunc{
	TypeWAV: decodeWAV,
	TypeMP3: decodeMP3,
}

// Sniff identifies the container from its leading bytes
func Sniff(header []byte) Type {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return TypeWAV
	case len(header) >= 3 && bytes.Equal(header[0:3], []byte("ID3")):
		return TypeMP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return TypeMP3
	}
	return TypeUnknown
}

// Load decodes a WAV or MP3 stream to mono PCM. Every failure wraps
// cw.ErrDecodeFailure.
func Load(r io.ReadSeeker, opts LoadOptions) (PCM, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	// a short or empty stream still gets sniffed, and fails as unsupported
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return PCM{}, fmt.Errorf("read header: %w: %w", err, cw.ErrDecodeFailure)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return PCM{}, fmt.Errorf("rewind: %w: %w", err, cw.ErrDecodeFailure)
	}

	typ := Sniff(header[:n])
	decode, ok := decoders[typ]
	if !ok {
		return PCM{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, cw.ErrDecodeFailure)
	}

	buf, err := decode(r)
	if err != nil {
		return PCM{}, fmt.Errorf("decode %s: %w: %w", typ, err, cw.ErrDecodeFailure)
	}

	if buf == nil || buf.Format == nil {
		return PCM{}, fmt.Errorf("decode %s: %w: %w", typ, goaudio.ErrInvalidBuffer, cw.ErrDecodeFailure)
	}

	pcm := PCM{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Format:     typ,
	}
	// downmixing rewrites buf.Format, so read it first
	pcm.Samples, err = toMono(buf, opts.Downmix)
	if err != nil {
		return PCM{}, fmt.Errorf("downmix: %w: %w", err, cw.ErrDecodeFailure)
	}
	if len(pcm.Samples) == 0 {
		return PCM{}, fmt.Errorf("%w: %w", ErrEmptyAudio, cw.ErrDecodeFailure)
	}
	if pcm.SampleRate <= 0 {
		return PCM{}, fmt.Errorf("invalid sample rate %d: %w", pcm.SampleRate, cw.ErrDecodeFailure)
	}
	return pcm, nil
}

// toMono returns one sample per frame from an interleaved buffer
func toMono(buf *goaudio.FloatBuffer, downmix bool) ([]float64, error) {
	if downmix {
		if err := transforms.MonoDownmix(buf); err != nil {
			return nil, err
		}
		return buf.Data, nil
	}
	if buf == nil || buf.Format == nil {
		return nil, goaudio.ErrInvalidBuffer
	}
	channels := buf.Format.NumChannels
	if channels <= 1 {
		return buf.Data, nil
	}
	mono := make([]float64, len(buf.Data)/channels)
	for i := range mono {
		mono[i] = buf.Data[i*channels]
	}
	return mono, nil
}

func decodeWAV(r io.ReadSeeker) (*goaudio.FloatBuffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	if d.WavAudioFormat != FormatPCM && d.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("wav audio format %d is not PCM", d.WavAudioFormat)
	}
	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if ib.Format == nil {
		return nil, errors.New("wav file has no format chunk")
	}

	scale := fullScale(int(d.BitDepth))
	fb := &goaudio.FloatBuffer{
		Format: &goaudio.Format{NumChannels: ib.Format.NumChannels, SampleRate: ib.Format.SampleRate},
		Data:   make([]float64, len(ib.Data)),
	}
	for i, v := range ib.Data {
		if d.BitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		fb.Data[i] = float64(v) / scale
	}
	return fb, nil
}

func fullScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return float64(int64(1) << (bitDepth - 1))
}

func decodeMP3(r io.ReadSeeker) (*goaudio.FloatBuffer, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(r))
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		channels = 2
	}
	fb := &goaudio.FloatBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: int(format.SampleRate)},
	}

	block := make([][2]float64, 1024)
	for {
		n, ok := streamer.Stream(block)
		for _, frame := range block[:n] {
			fb.Data = append(fb.Data, frame[:channels]...)
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, err
	}
	return fb, nil
}
