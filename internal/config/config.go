// Package config loads application settings through Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

const (
	AppName       = "morsetrainer"
	ConfigType    = "yaml"
	DefaultConfig = `# Morse Trainer Configuration

# Timing and tone
wpm: 20                   # Words per minute (dot = 1200 / wpm ms)
tone_frequency: 600       # Tone frequency in Hz

# Rendering
sample_rate: 44100        # Output sample rate in Hz
tone_gain: 0.5            # Tone amplitude in rendered WAV files (0.0-1.0)
tail_padding_ms: 1000     # Silence appended after the last element

# Live playback
playback_gain: 0.2        # Tone amplitude for live playback (0.0-1.0)
device_index: -1          # -1 for default device
buffer_size: 512          # Playback buffer size in frames
vibration: false          # Emit vibration patterns instead of sound

# Decoding uploaded audio
envelope_threshold: 0.1   # Peak amplitude a chunk must exceed to count as tone
chunk_ms: 10              # Envelope resolution in milliseconds
downmix: false            # Average stereo channels instead of using the first

# HTTP API
listen_addr: ":8080"      # Address for 'morsetrainer serve'
max_upload_mb: 20         # Largest accepted upload

# Output
log_format: "text"        # text or json
debug: false              # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Timing and tone
	WPM           int     `mapstructure:"wpm"`
	ToneFrequency float64 `mapstructure:"tone_frequency"`

	// Rendering
	SampleRate    int     `mapstructure:"sample_rate"`
	ToneGain      float64 `mapstructure:"tone_gain"`
	TailPaddingMs int     `mapstructure:"tail_padding_ms"`

	// Live playback
	PlaybackGain float64 `mapstructure:"playback_gain"`
	DeviceIndex  int     `mapstructure:"device_index"`
	BufferSize   int     `mapstructure:"buffer_size"`
	Vibration    bool    `mapstructure:"vibration"`

	// Decoding
	EnvelopeThreshold float64 `mapstructure:"envelope_threshold"`
	ChunkMs           int     `mapstructure:"chunk_ms"`
	Downmix           bool    `mapstructure:"downmix"`

	// HTTP API
	ListenAddr  string `mapstructure:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`

	// Output
	LogFormat string `mapstructure:"log_format"`
	Debug     bool   `mapstructure:"debug"`
}

// SetDefaults registers every default with Viper
func SetDefaults() {
	viper.SetDefault("wpm", 20)
	viper.SetDefault("tone_frequency", 600)
	viper.SetDefault("sample_rate", 44100)
	viper.SetDefault("tone_gain", 0.5)
	viper.SetDefault("tail_padding_ms", 1000)
	viper.SetDefault("playback_gain", 0.2)
	viper.SetDefault("device_index", -1)
	viper.SetDefault("buffer_size", 512)
	viper.SetDefault("vibration", false)
	viper.SetDefault("envelope_threshold", 0.1)
	viper.SetDefault("chunk_ms", 10)
	viper.SetDefault("downmix", false)
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("max_upload_mb", 20)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/morsetrainer/
func Init() error {
	SetDefaults()

	viper.SetConfigType(ConfigType)
	viper.SetEnvPrefix("MORSE")
	viper.AutomaticEnv()

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
		// No config found - create default in ~/.config/morsetrainer/
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Timing and tone, including the Nyquist limit for sample_rate
	if err := cw.ValidateTiming(float64(s.WPM), s.ToneFrequency, s.SampleRate); err != nil {
		errs = append(errs, err)
	}

	// Rendering
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}
	if s.ToneGain <= 0 || s.ToneGain > 1 {
		errs = append(errs, fmt.Errorf("tone_gain must be greater than 0.0 and at most 1.0, got %v", s.ToneGain))
	}
	if s.TailPaddingMs < 0 || s.TailPaddingMs > 10000 {
		errs = append(errs, fmt.Errorf("tail_padding_ms must be between 0 and 10000, got %d", s.TailPaddingMs))
	}

	// Live playback
	if s.PlaybackGain <= 0 || s.PlaybackGain > 1 {
		errs = append(errs, fmt.Errorf("playback_gain must be greater than 0.0 and at most 1.0, got %v", s.PlaybackGain))
	}
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device index, got %d", s.DeviceIndex))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if s.BufferSize&(s.BufferSize-1) != 0 {
		errs = append(errs, fmt.Errorf("buffer_size should be a power of 2, got %d", s.BufferSize))
	}

	// Decoding
	if s.EnvelopeThreshold <= 0 || s.EnvelopeThreshold >= 1 {
		errs = append(errs, fmt.Errorf("envelope_threshold must be between 0.0 and 1.0 exclusive, got %v", s.EnvelopeThreshold))
	}
	if s.ChunkMs < 1 || s.ChunkMs > 100 {
		errs = append(errs, fmt.Errorf("chunk_ms must be between 1 and 100, got %d", s.ChunkMs))
	}

	// HTTP API
	if s.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	if s.MaxUploadMB < 1 || s.MaxUploadMB > 512 {
		errs = append(errs, fmt.Errorf("max_upload_mb must be between 1 and 512, got %d", s.MaxUploadMB))
	}

	// Output
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be one of text, json, got %q", s.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
