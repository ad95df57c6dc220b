package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [text...]",
	Short: "Render Morse code to a WAV file",
	Long: `Render text (or Morse with --morse) as a 16-bit mono PCM WAV file using the
configured speed and tone frequency. Use -o - to write to stdout.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "morse.wav", "output file, - for stdout")
	renderCmd.Flags().BoolP("morse", "m", false, "input is already Morse code")
}

func runRender(cmd *cobra.Command, args []string) error {
	e, _, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	isMorse, _ := cmd.Flags().GetBool("morse")
	morse, err := morseInput(cmd, args, isMorse)
	if err != nil {
		return err
	}

	wav, err := e.Render(morse)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "-" {
		_, err = cmd.OutOrStdout().Write(wav)
		return err
	}
	if err := os.WriteFile(output, wav, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	slog.Info("rendered", "file", output, "morse", morse)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", output, humanize.Bytes(uint64(len(wav))))
	return nil
}
