package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsetrainer/internal/audio"
	"github.com/ColonelBlimp/morsetrainer/internal/cw"
	"github.com/ColonelBlimp/morsetrainer/internal/engine"
)

var playCmd = &cobra.Command{
	Use:   "play [text...]",
	Short: "Play Morse code as tones",
	Long: `Play text (or Morse with --morse) on the audio device. Each element finishes
before the next starts. Ctrl-C stops playback. --bell uses the terminal bell
instead of the audio device; --vibrate prints a vibration pattern.`,
	RunE: runPlay,
}

var patternCmd = &cobra.Command{
	Use:   "pattern [text...]",
	Short: "Print the vibration pattern for Morse code",
	Long:  "Print alternating vibrate/pause durations in milliseconds as a JSON array, starting with a vibration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		isMorse, _ := cmd.Flags().GetBool("morse")
		morse, err := morseInput(cmd, args, isMorse)
		if err != nil {
			return err
		}
		return printPattern(cmd.OutOrStdout(), e, morse)
	},
}

func init() {
	playCmd.Flags().BoolP("morse", "m", false, "input is already Morse code")
	playCmd.Flags().Bool("bell", false, "use the terminal bell instead of the audio device")
	playCmd.Flags().Bool("vibrate", false, "print the vibration pattern instead of playing (default from config: vibration)")
	patternCmd.Flags().BoolP("morse", "m", false, "input is already Morse code")
}

func runPlay(cmd *cobra.Command, args []string) error {
	e, s, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	isMorse, _ := cmd.Flags().GetBool("morse")
	morse, err := morseInput(cmd, args, isMorse)
	if err != nil {
		return err
	}

	vibrate := s.Vibration
	if cmd.Flags().Changed("vibrate") {
		vibrate, _ = cmd.Flags().GetBool("vibrate")
	}
	if vibrate {
		return printPattern(cmd.OutOrStdout(), e, morse)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var sink cw.Sink
	if bell, _ := cmd.Flags().GetBool("bell"); bell {
		sink = &bellSink{w: cmd.OutOrStdout(), dot: cw.Duration(e.Timing().DotMs)}
	} else {
		player := audio.NewPlayer(audio.Config{
			DeviceIndex: s.DeviceIndex,
			SampleRate:  uint32(s.SampleRate),
			BufferSize:  uint32(s.BufferSize),
			Gain:        s.PlaybackGain,
		})
		defer player.Close()
		if err := player.Init(); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		if err := player.Start(ctx); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		sink = player
	}

	fmt.Fprintln(cmd.OutOrStdout(), morse)
	err = e.Play(ctx, morse, sink)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nstopped")
		return nil
	}
	return err
}

func printPattern(w io.Writer, e *engine.Engine, morse string) error {
	pattern, err := e.Vibration(morse)
	if err != nil {
		return err
	}
	data, err := json.Marshal(pattern)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// bellSink plays a schedule on the terminal: a bell and the symbol for
// each tone, a space or slash for letter and word gaps.
type bellSink struct {
	w   io.Writer
	dot time.Duration
}

func (b *bellSink) Tone(ctx context.Context, _ float64, d time.Duration) error {
	symbol := "."
	if d > 2*b.dot {
		symbol = "-"
	}
	fmt.Fprint(b.w, "\a"+symbol)
	return cw.Wait(ctx, d)
}

func (b *bellSink) Pause(ctx context.Context, d time.Duration) error {
	switch {
	case d > 5*b.dot:
		fmt.Fprint(b.w, " / ")
	case d > 2*b.dot:
		fmt.Fprint(b.w, " ")
	}
	return cw.Wait(ctx, d)
}
