package shared

import (
	"fmt"
	"io"
	"os"
)

// Reporter writes per-repository progress lines for batch commands. Warnings go to a separate stream so
// they stay visible when progress output is redirected.
type Reporter interface {
	Progress(format string, args ...any)
	Warning(format string, args ...any)
}

type streamReporter struct {
	progressWriter io.Writer
	warningWriter  io.Writer
}

// NewStreamReporter builds a Reporter over progress and warning writers; nil writers select standard output
// and standard error.
func NewStreamReporter(progressWriter io.Writer, warningWriter io.Writer) Reporter {
	if progressWriter == nil {
		progressWriter = os.Stdout
	}
	if warningWriter == nil {
		warningWriter = os.Stderr
	}
	return streamReporter{progressWriter: progressWriter, warningWriter: warningWriter}
}

func (reporter streamReporter) Progress(format string, args ...any) {
	fmt.Fprintf(reporter.progressWriter, format, args...)
}

func (reporter streamReporter) Warning(format string, args ...any) {
	fmt.Fprintf(reporter.warningWriter, format, args...)
}
