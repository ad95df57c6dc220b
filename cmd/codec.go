package cmd

import (
	"fmt"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [text...]",
	Short: "Convert text to Morse code",
	Long:  "Convert text to Morse code. Reads stdin when no text is given. Characters without a Morse code are dropped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cw.Encode(text))
		return err
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [morse...]",
	Short: "Convert Morse code to text",
	Long:  "Convert Morse code to text. Letters are separated by single spaces and words by '/'. Unknown codes decode to '?'.",
	RunE: func(cmd *cobra.Command, args []string) error {
		morse, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cw.Decode(morse))
		return err
	},
}
