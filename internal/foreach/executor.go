// Package foreach runs a shell command in every checkout of a workspace, in configuration order.
package foreach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/execshell"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	resolverMissingMessageConstant      = "foreach resolver not configured"
	shellExecutorMissingMessageConstant = "foreach shell executor not configured"
	fileSystemMissingMessageConstant    = "foreach file system not configured"
	commandRequiredMessageConstant      = "command required"
	workspaceNotFoundMessageConstant    = "workspace not found"
	commandFailedTemplateConstant       = "command failed in %s with exit code %d"
	headerTemplateConstant              = "=== %s ===\n"
	skippingTemplateConstant            = "Skipping %s: not checked out\n"
	commandArgumentSeparatorConstant    = " "
	environmentNameConstant             = "name"
	environmentPathConstant             = "path"
	environmentDisplayPathConstant      = "displaypath"
	environmentTopLevelConstant         = "toplevel"
	repositoryLogFieldConstant          = "repository"
	foreachStartedLogConstant           = "Running command in checkout"
)

// ErrResolverNotConfigured indicates the executor was constructed without a resolver.
var ErrResolverNotConfigured = errors.New(resolverMissingMessageConstant)

// ErrShellExecutorNotConfigured indicates the executor was constructed without a shell executor.
var ErrShellExecutorNotConfigured = errors.New(shellExecutorMissingMessageConstant)

// ErrFileSystemNotConfigured indicates the executor was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// ErrCommandRequired indicates an empty command.
var ErrCommandRequired = errors.New(commandRequiredMessageConstant)

// ConfigResolver resolves the ordered repository specs of a workspace.
type ConfigResolver interface {
	Resolve(executionContext context.Context, workspaceName string) ([]shared.RepositorySpec, error)
}

// CommandFailedError reports the first repository whose command exited non-zero.
type CommandFailedError struct {
	Repository string
	Code       int
	Cause      error
}

// Error describes the failing repository.
func (failure CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedTemplateConstant, failure.Repository, failure.Code)
}

// ExitCode returns the command's exit status so the process can propagate it.
func (failure CommandFailedError) ExitCode() int {
	return failure.Code
}

// Unwrap exposes the executor error.
func (failure CommandFailedError) Unwrap() error {
	return failure.Cause
}

// Dependencies enumerates collaborators required by Executor.
type Dependencies struct {
	Resolver      ConfigResolver
	ShellExecutor shared.ShellExecutor
	FileSystem    shared.FileSystem
	Logger        *zap.Logger
}

// Options configures one run.
type Options struct {
	WorkspaceName    string
	Command          []string
	Quiet            bool
	WorkingDirectory string
	// Input is handed to every command as its standard input. Nil leaves standard input empty.
	Input  io.Reader
	Output io.Writer
	Errors io.Writer
}

// Executor runs commands across the checkouts of a workspace.
type Executor struct {
	resolver      ConfigResolver
	shellExecutor shared.ShellExecutor
	fileSystem    shared.FileSystem
	logger        *zap.Logger
	layout        shared.Layout
}

// NewExecutor validates dependencies and constructs an Executor for layout.
func NewExecutor(dependencies Dependencies, layout shared.Layout) (*Executor, error) {
	if dependencies.Resolver == nil {
		return nil, ErrResolverNotConfigured
	}
	if dependencies.ShellExecutor == nil {
		return nil, ErrShellExecutorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		resolver:      dependencies.Resolver,
		shellExecutor: dependencies.ShellExecutor,
		fileSystem:    dependencies.FileSystem,
		logger:        logger,
		layout:        layout,
	}, nil
}

// Run evaluates the command with sh -c in each existing checkout. Missing checkouts are reported and skipped.
// The first non-zero exit stops the run with CommandFailedError.
func (executor *Executor) Run(executionContext context.Context, options Options) error {
	script := strings.TrimSpace(strings.Join(options.Command, commandArgumentSeparatorConstant))
	if len(script) == 0 {
		return repoerrors.NewUsageError(ErrCommandRequired)
	}
	if validationError := shared.ValidateWorkspaceName(options.WorkspaceName); validationError != nil {
		return validationError
	}

	workspacePath := executor.layout.WorkspacePath(options.WorkspaceName)
	if info, statError := executor.fileSystem.Stat(workspacePath); statError != nil || !info.IsDir() {
		return repoerrors.NewNotFoundError(options.WorkspaceName, "", repoerrors.OperationForeach, workspaceNotFoundMessageConstant)
	}

	specs, resolveError := executor.resolver.Resolve(executionContext, options.WorkspaceName)
	if resolveError != nil {
		return resolveError
	}

	output := writerOrDefault(options.Output, os.Stdout)
	errorOutput := writerOrDefault(options.Errors, os.Stderr)
	reporter := shared.NewStreamReporter(output, errorOutput)

	for _, spec := range specs {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		checkoutPath := executor.layout.CheckoutPath(options.WorkspaceName, spec.Name)
		if _, statError := executor.fileSystem.Stat(checkoutPath); errors.Is(statError, fs.ErrNotExist) {
			reporter.Warning(skippingTemplateConstant, spec.Name)
			continue
		}

		if !options.Quiet {
			reporter.Progress(headerTemplateConstant, spec.Name)
		}
		executor.logger.Debug(foreachStartedLogConstant, zap.String(repositoryLogFieldConstant, spec.Name))

		_, executionError := executor.shellExecutor.ExecuteShell(executionContext, script, execshell.CommandDetails{
			WorkingDirectory:     checkoutPath,
			EnvironmentVariables: executor.environment(options, spec.Name, workspacePath, checkoutPath),
			InputStream:          options.Input,
			OutputStream:         output,
			ErrorStream:          errorOutput,
		})
		if executionError != nil {
			var failedError execshell.CommandFailedError
			if errors.As(executionError, &failedError) {
				return CommandFailedError{Repository: spec.Name, Code: failedError.Result.ExitCode, Cause: executionError}
			}
			return repoerrors.Wrap(nil, options.WorkspaceName, spec.Name, repoerrors.OperationForeach, "", executionError)
		}
	}
	return nil
}

func (executor *Executor) environment(options Options, repositoryName string, workspacePath string, checkoutPath string) map[string]string {
	relativePath, relativeError := filepath.Rel(workspacePath, checkoutPath)
	if relativeError != nil {
		relativePath = repositoryName
	}
	displayPath := relativePath
	if len(options.WorkingDirectory) > 0 {
		if workingDirectory, absoluteError := executor.fileSystem.Abs(options.WorkingDirectory); absoluteError == nil {
			if relativeToCaller, callerError := filepath.Rel(workingDirectory, checkoutPath); callerError == nil {
				displayPath = relativeToCaller
			}
		}
	}
	return map[string]string{
		environmentNameConstant:        repositoryName,
		environmentPathConstant:        filepath.ToSlash(relativePath),
		environmentDisplayPathConstant: filepath.ToSlash(displayPath),
		environmentTopLevelConstant:    workspacePath,
	}
}

func writerOrDefault(writer io.Writer, fallback io.Writer) io.Writer {
	if writer == nil {
		return fallback
	}
	return writer
}
