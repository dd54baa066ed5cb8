package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/workspaces"
)

const (
	syncUseConstant             = "sync [workspace]"
	syncShortDescription        = "Fast-forward the tracking checkouts of a workspace"
	syncLongDescription         = "sync fetches every central repository once and fast-forwards checkouts that track a branch. Pinned checkouts are never moved. Without an argument the workspace containing the current directory is used, falling back to the default workspace."
	syncStartedTemplateConstant = "Syncing workspace: %s\n"
	syncSummaryTemplateConstant = "Workspace synced: %s (%d updated, %d unchanged, %d skipped)\n"
)

func (builder *CommandBuilder) buildSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   syncUseConstant,
		Short: syncShortDescription,
		Long:  syncLongDescription,
		Args:  UsageArgs(cobra.MaximumNArgs(1)),
		RunE:  builder.runSync,
	}
}

func (builder *CommandBuilder) runSync(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	manager, managerError := environment.newManager()
	if managerError != nil {
		return managerError
	}

	workspaceName, nameError := currentOrDefaultWorkspace(manager, environment, arguments)
	if nameError != nil {
		return nameError
	}

	output := command.OutOrStdout()
	fmt.Fprintf(output, syncStartedTemplateConstant, workspaceName)

	report, syncError := manager.Sync(command.Context(), workspaceName)
	printOutcomes(output, newOutputPalette(builder.colorOutput()), report.BatchReport)
	if syncError != nil {
		return syncError
	}

	fmt.Fprintf(output, syncSummaryTemplateConstant,
		workspaceName,
		report.Count(workspaces.OutcomeUpdated),
		report.Count(workspaces.OutcomeUnchanged),
		report.Count(workspaces.OutcomeSkipped),
	)
	return nil
}

// currentOrDefaultWorkspace picks the explicit argument, then the workspace containing the working directory,
// then the configured default.
func currentOrDefaultWorkspace(manager *workspaces.Manager, environment commandEnvironment, arguments []string) (string, error) {
	if len(arguments) > 0 {
		return arguments[0], nil
	}
	currentWorkspace, currentError := manager.CurrentWorkspace(environment.workingDirectory)
	if currentError == nil {
		return currentWorkspace, nil
	}
	if errors.Is(currentError, repoerrors.ErrNotInWorkspace) {
		return environment.configuration.DefaultWorkspace, nil
	}
	return "", currentError
}
