package commands

import (
	"github.com/spf13/cobra"

	"github.com/temirov/workspace/internal/foreach"
	flagutils "github.com/temirov/workspace/internal/utils/flags"
)

const (
	foreachUseConstant      = "foreach [--quiet] <command...>"
	foreachShortDescription = "Run a shell command in every checkout of the current workspace"
	foreachLongDescription  = "foreach evaluates the command with sh in each checkout of the workspace containing the current directory, in configuration order, and stops at the first non-zero exit. The variables name, path, displaypath and toplevel describe the checkout. Flags after the first command word are passed to the command."
)

func (builder *CommandBuilder) buildForeachCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   foreachUseConstant,
		Short: foreachShortDescription,
		Long:  foreachLongDescription,
		Args:  cobra.ArbitraryArgs,
	}
	quiet := flagutils.BindQuietFlag(command)
	command.Flags().SetInterspersed(false)
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.runForeach(command, arguments, *quiet)
	}
	return command
}

func (builder *CommandBuilder) runForeach(command *cobra.Command, arguments []string, quiet bool) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	manager, managerError := environment.newManager()
	if managerError != nil {
		return managerError
	}
	executor, executorError := environment.newForeachExecutor()
	if executorError != nil {
		return executorError
	}

	workspaceName, currentError := manager.CurrentWorkspace(environment.workingDirectory)
	if currentError != nil {
		return currentError
	}

	return executor.Run(command.Context(), foreach.Options{
		WorkspaceName:    workspaceName,
		Command:          arguments,
		Quiet:            quiet,
		WorkingDirectory: environment.workingDirectory,
		Input:            command.InOrStdin(),
		Output:           command.OutOrStdout(),
		Errors:           command.ErrOrStderr(),
	})
}
