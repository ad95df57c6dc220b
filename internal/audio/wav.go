package audio

import (
	"encoding/binary"
	"io"
)

// WAV layout constants for the minimal PCM container
const (
	// HeaderSize is the size of the canonical WAV header in bytes
	HeaderSize = 44
	// FormatPCM is the audio format code for uncompressed PCM
	FormatPCM = 1
	// BitsPerSample is the fixed output bit depth
	BitsPerSample = 16
	// NumChannels is the fixed output channel count
	NumChannels = 1
)

// EncodeWAV serializes mono samples in [-1, 1] into a 16-bit PCM WAV file.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	const blockAlign = NumChannels * BitsPerSample / 8
	dataSize := len(samples) * blockAlign
	buf := make([]byte, HeaderSize+dataSize)

	le := binary.LittleEndian
	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], FormatPCM)
	le.PutUint16(buf[22:24], NumChannels)
	le.PutUint32(buf[24:28], uint32(sampleRate))
	le.PutUint32(buf[28:32], uint32(sampleRate*blockAlign))
	le.PutUint16(buf[32:34], blockAlign)
	le.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		le.PutUint16(buf[HeaderSize+i*blockAlign:], uint16(Quantize(s)))
	}
	return buf
}

// WriteWAV writes EncodeWAV's output to w
func WriteWAV(w io.Writer, samples []float64, sampleRate int) error {
	_, err := w.Write(EncodeWAV(samples, sampleRate))
	return err
}

// Quantize converts a float sample to 16-bit PCM. The sample is clamped
// to [-1, 1]; positive values scale by 32767 and negative by 32768, and
// the result is truncated toward zero.
func Quantize(s float64) int16 {
	switch {
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}
