package main

import (
	"fmt"
	"os"

	"github.com/temirov/workspace/cmd/cli"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the workspace command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(repoerrors.ExitCode(executionError))
	}
}
