// Package audio handles the PCM container, decoding of uploaded audio and
// live tone playback.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

var (
	ErrNotInitialized = errors.New("audio playback not initialized")
	ErrAlreadyRunning = errors.New("audio playback already running")
	ErrNotRunning     = errors.New("audio playback not running")
)

// Config holds audio playback configuration
type Config struct {
	DeviceIndex int     // -1 for default device
	SampleRate  uint32  // e.g., 44100
	BufferSize  uint32  // frames per callback
	Gain        float64 // tone amplitude, 0.0-1.0
}

// DefaultConfig returns sensible defaults for tone playback
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  44100,
		BufferSize:  512,
		Gain:        0.2,
	}
}

// tone is the oscillator state shared with the audio thread
type tone struct {
	frequency float64
	phase     float64
}

// Player renders tones on a playback device. It implements cw.Sink: Tone
// keys the oscillator for the requested duration, Pause leaves it silent.
type Player struct {
	config  Config
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running bool
	mu      sync.RWMutex

	// keyed is read from the audio thread
	keyed atomic.Pointer[tone]
}

var _ cw.Sink = (*Player)(nil)

// NewPlayer creates a new playback instance
func NewPlayer(cfg Config) *Player {
	return &Player{config: cfg}
}

// Init initializes the audio backend
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	p.ctx = ctx
	return nil
}

// ListDevices returns available playback devices
func (p *Player) ListDevices() ([]malgo.DeviceInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.ctx == nil {
		return nil, ErrNotInitialized
	}

	infos, err := p.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start opens the playback device. The device streams silence until a
// tone is keyed and stops when ctx is cancelled.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	if p.ctx == nil {
		p.mu.Unlock()
		return ErrNotInitialized
	}
	p.mu.Unlock()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = p.config.SampleRate
	deviceConfig.PeriodSizeInFrames = p.config.BufferSize
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1

	if p.config.DeviceIndex >= 0 {
		devices, err := p.ListDevices()
		if err != nil {
			return err
		}
		if p.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				p.config.DeviceIndex, len(devices))
		}
		deviceConfig.Playback.DeviceID = devices[p.config.DeviceIndex].ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			p.fill(output, frameCount)
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	p.mu.Lock()
	p.device = device
	p.running = true
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()

	return nil
}

// fill writes frameCount mono float32 frames into output
func (p *Player) fill(output []byte, frameCount uint32) {
	t := p.keyed.Load()
	rate := float64(p.config.SampleRate)
	for i := 0; i < int(frameCount) && (i+1)*4 <= len(output); i++ {
		var v float32
		if t != nil {
			v = float32(p.config.Gain * math.Sin(t.phase))
			t.phase += 2 * math.Pi * t.frequency / rate
			if t.phase > 2*math.Pi {
				t.phase -= 2 * math.Pi
			}
		}
		binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(v))
	}
}

// Tone sounds frequencyHz for d, returning early if ctx is cancelled
func (p *Player) Tone(ctx context.Context, frequencyHz float64, d time.Duration) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}
	p.keyed.Store(&tone{frequency: frequencyHz})
	defer p.keyed.Store(nil)
	return cw.Wait(ctx, d)
}

// Pause keeps the device silent for d
func (p *Player) Pause(ctx context.Context, d time.Duration) error {
	return cw.Wait(ctx, d)
}

// Stop stops playback
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrNotRunning
	}

	p.keyed.Store(nil)
	if p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
	}

	p.running = false
	return nil
}

// Close releases all audio resources
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running && p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
		p.running = false
	}

	if p.ctx != nil {
		if err := p.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		p.ctx.Free()
		p.ctx = nil
	}
	return nil
}

// IsRunning returns true if the device is open
func (p *Player) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}
