package testsupport

import (
	"context"
	"strings"
	"sync"

	"github.com/temirov/workspace/internal/execshell"
)

// ScriptedResponse configures the outcome of one git invocation.
type ScriptedResponse struct {
	Result execshell.ExecutionResult
	Error  error
}

// CommandExecutorStub records git and shell invocations and answers them from a script keyed by the joined arguments.
// Unscripted git invocations succeed with empty output.
type CommandExecutorStub struct {
	mutex                 sync.Mutex
	Responses             map[string]ScriptedResponse
	ExecutedGitCommands   []execshell.CommandDetails
	ExecutedShellCommands []execshell.CommandDetails
	ShellExitCodes        map[string]int
}

// ExecuteGit records details and returns the scripted response.
func (executor *CommandExecutorStub) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.ExecutedGitCommands = append(executor.ExecutedGitCommands, details)

	response, scripted := executor.Responses[strings.Join(details.Arguments, " ")]
	if !scripted {
		return execshell.ExecutionResult{}, nil
	}
	if response.Error != nil {
		return execshell.ExecutionResult{}, response.Error
	}
	if response.Result.ExitCode != 0 {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  response.Result,
		}
	}
	return response.Result, nil
}

// ExecuteShell records details and fails with the exit code configured for the working directory.
func (executor *CommandExecutorStub) ExecuteShell(_ context.Context, script string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	details.Arguments = []string{"-c", script}
	executor.ExecutedShellCommands = append(executor.ExecutedShellCommands, details)

	exitCode := executor.ShellExitCodes[details.WorkingDirectory]
	if exitCode != 0 {
		result := execshell.ExecutionResult{ExitCode: exitCode}
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandShell, Details: details},
			Result:  result,
		}
	}
	return execshell.ExecutionResult{}, nil
}

// GitArguments returns the recorded git argument lists joined by spaces.
func (executor *CommandExecutorStub) GitArguments() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	joined := make([]string, 0, len(executor.ExecutedGitCommands))
	for _, details := range executor.ExecutedGitCommands {
		joined = append(joined, strings.Join(details.Arguments, " "))
	}
	return joined
}
