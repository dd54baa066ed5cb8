package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	capturedStreamLimitConstant            = 64 * 1024
)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command using os/exec. A non-zero exit is reported through the result, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		executable.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	}

	standardOutputBuffer := newCaptureBuffer(command.Details.OutputStream)
	standardErrorBuffer := newCaptureBuffer(command.Details.ErrorStream)
	executable.Stdout = teeWriter(standardOutputBuffer, command.Details.OutputStream)
	executable.Stderr = teeWriter(standardErrorBuffer, command.Details.ErrorStream)

	switch {
	case command.Details.InputStream != nil:
		executable.Stdin = command.Details.InputStream
	case len(command.Details.StandardInput) > 0:
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

func mergeEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	mergedEnvironment := append([]string{}, baseEnvironment...)
	overrideKeys := make([]string, 0, len(overrides))
	for environmentKey := range overrides {
		overrideKeys = append(overrideKeys, environmentKey)
	}
	sort.Strings(overrideKeys)
	for _, environmentKey := range overrideKeys {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, overrides[environmentKey]))
	}
	return mergedEnvironment
}

func teeWriter(buffer *captureBuffer, stream io.Writer) io.Writer {
	if stream == nil {
		return buffer
	}
	return io.MultiWriter(buffer, stream)
}

// captureBuffer records process output. A positive limit keeps only the most recent limit bytes.
type captureBuffer struct {
	buffer bytes.Buffer
	limit  int
}

func newCaptureBuffer(stream io.Writer) *captureBuffer {
	if stream == nil {
		return &captureBuffer{}
	}
	return &captureBuffer{limit: capturedStreamLimitConstant}
}

func (capture *captureBuffer) Write(data []byte) (int, error) {
	written, writeError := capture.buffer.Write(data)
	if capture.limit > 0 && capture.buffer.Len() > capture.limit {
		capture.buffer.Next(capture.buffer.Len() - capture.limit)
	}
	return written, writeError
}

func (capture *captureBuffer) String() string {
	return capture.buffer.String()
}
