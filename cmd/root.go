// cmd/root.go
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ColonelBlimp/morsetrainer/internal/config"
	"github.com/ColonelBlimp/morsetrainer/internal/cw"
	"github.com/ColonelBlimp/morsetrainer/internal/engine"
	"github.com/ColonelBlimp/morsetrainer/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "morsetrainer",
	Short: "Morse code trainer: encode, play, render and decode CW",
	Long: `A Morse code teaching tool. Converts text to and from Morse, plays it as
tones or vibration patterns, renders WAV files and decodes Morse from
recorded audio.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("wpm", "w", 20, "speed in words per minute")
	rootCmd.PersistentFlags().Float64P("frequency", "f", 600, "tone frequency in Hz")
	rootCmd.PersistentFlags().IntP("device", "d", -1, "playback device index (-1 for default)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	bindFlags()

	rootCmd.AddCommand(encodeCmd, decodeCmd, renderCmd, analyzeCmd, playCmd, patternCmd, tableCmd, serveCmd)
}

// bindFlags lets the global flags override config file values
func bindFlags() {
	viper.BindPFlag("wpm", rootCmd.PersistentFlags().Lookup("wpm"))
	viper.BindPFlag("tone_frequency", rootCmd.PersistentFlags().Lookup("frequency"))
	viper.BindPFlag("device_index", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings validates the merged configuration and installs the logger
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	s, err := config.Get()
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cmd.ErrOrStderr(), s.LogFormat, s.Debug); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// loadEngine builds an engine from the current settings
func loadEngine(cmd *cobra.Command) (*engine.Engine, *config.Settings, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.FromSettings(s)
	if err != nil {
		return nil, nil, err
	}
	return e, s, nil
}

// readInput joins positional arguments, or reads stdin when there are none
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(bufio.NewReader(cmd.InOrStdin()))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// morseInput returns Morse from the arguments, encoding them first unless
// they already are Morse
func morseInput(cmd *cobra.Command, args []string, isMorse bool) (string, error) {
	in, err := readInput(cmd, args)
	if err != nil {
		return "", err
	}
	if isMorse {
		return strings.TrimSpace(in), nil
	}
	return cw.Encode(in), nil
}
