package main

import (
	"github.com/ColonelBlimp/morsetrainer/cmd"
	"github.com/ColonelBlimp/morsetrainer/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
