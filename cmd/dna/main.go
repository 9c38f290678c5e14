// Command dna is the decision graph engine.
package main

import (
	"fmt"
	"os"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// Set by the release build with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cmd.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
