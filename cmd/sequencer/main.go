// Command sequencer is the LUT-driven panel sequencer toolchain.
package main

import (
	"fmt"
	"os"

	"github.com/raydet/sequencer/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
