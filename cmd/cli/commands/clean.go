package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/repos/shared"
	flagutils "github.com/temirov/workspace/internal/utils/flags"
	"github.com/temirov/workspace/internal/workspaces"
)

const (
	cleanUseConstant              = "clean <workspace>"
	cleanShortDescription         = "Remove a workspace"
	cleanLongDescription          = "clean unlinks every checkout of the workspace, deletes its directory and its configuration overrides. Central repositories and nested workspaces are kept."
	cleanPromptTemplateConstant   = "Delete workspace: %s? [y/N] "
	cleanRemovedTemplateConstant  = "Workspace removed: %s\n"
	cleanCancelledMessageConstant = "Cancelled"
)

func (builder *CommandBuilder) buildCleanCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   cleanUseConstant,
		Short: cleanShortDescription,
		Long:  cleanLongDescription,
		Args:  UsageArgs(cobra.ExactArgs(1)),
	}
	assumeYes := flagutils.BindAssumeYesFlag(command)
	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.runClean(command, arguments[0], *assumeYes)
	}
	return command
}

func (builder *CommandBuilder) runClean(command *cobra.Command, workspaceName string, assumeYes bool) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	manager, managerError := environment.newManager()
	if managerError != nil {
		return managerError
	}

	output := command.OutOrStdout()
	report, cleanError := manager.Clean(command.Context(), workspaceName, shared.ConfirmationPolicyFromBool(assumeYes))
	if errors.Is(cleanError, workspaces.ErrConfirmationRequired) {
		confirmation, promptError := builder.resolvePrompter(command).Confirm(fmt.Sprintf(cleanPromptTemplateConstant, workspaceName))
		if promptError != nil {
			return promptError
		}
		if !confirmation.Confirmed {
			fmt.Fprintln(output, cleanCancelledMessageConstant)
			return nil
		}
		report, cleanError = manager.Clean(command.Context(), workspaceName, shared.ConfirmationAssumeYes)
	}
	if cleanError != nil {
		return cleanError
	}

	environment.logger.Debug("workspace checkouts removed",
		zap.String("workspace", report.WorkspaceName),
		zap.Strings("checkouts", report.RemovedCheckouts),
	)
	fmt.Fprintf(output, cleanRemovedTemplateConstant, workspaceName)
	return nil
}
