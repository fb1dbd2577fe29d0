package main

import (
	"os"

	"heimdall/cmd"
	"heimdall/monitor"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(monitor.ExitCode(err))
	}
}
