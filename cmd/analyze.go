package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsetrainer/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Decode Morse code from a WAV or MP3 recording",
	Long: `Decode Morse code from a recording by following its amplitude envelope.
Thresholds are estimated from the recording itself, so no speed setting is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")
	analyzeCmd.Flags().Bool("segments", false, "print the detected on/off segments")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, _, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	result, err := e.Analyze(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if showSegments, _ := cmd.Flags().GetBool("segments"); showSegments {
		printSegments(out, result)
	}
	printAnalysis(out, result)
	return nil
}

func printAnalysis(w io.Writer, a engine.Analysis) {
	length := time.Duration(a.DurationMs * float64(time.Millisecond)).Round(time.Millisecond)
	fmt.Fprintf(w, "Input:  %s, %d Hz, %d ch, %s\n", a.Format, a.SampleRate, a.Channels, length)
	if !a.Signal {
		fmt.Fprintln(w, "No signal detected")
		return
	}
	fmt.Fprintf(w, "Dot:    %.0f ms (dash threshold %.0f ms, %s tones)\n",
		a.DotReferenceMs, a.DashThresholdMs, humanize.Comma(int64(a.Tones)))
	fmt.Fprintf(w, "Morse:  %s\n", a.Morse)
	fmt.Fprintf(w, "Text:   %s\n", a.Text)
}

func printSegments(w io.Writer, a engine.Analysis) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "State", "Duration (ms)"})
	for i, s := range a.Segments {
		state := "off"
		if s.On {
			state = "ON"
		}
		t.AppendRow(table.Row{i + 1, state, s.DurationMs})
	}
	t.Render()
}
