package main

import (
	"os"

	"github.com/erik-smit/scrutinizer/cmd/scrutinizer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
