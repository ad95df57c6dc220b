package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the Morse code reference table",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := loadEngine(cmd)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Char", "Code", "Length (ms)"})
		for _, entry := range cw.Table() {
			sched, err := e.Schedule(entry.Code)
			if err != nil {
				return err
			}
			// the trailing gap belongs to whatever follows
			length := sched.TotalMs() - e.Timing().IntraGapMs()
			t.AppendRow(table.Row{string(entry.Char), entry.Code, int(length + 0.5)})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}
