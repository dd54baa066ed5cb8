package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	listUseConstant           = "list"
	listShortDescription      = "List workspaces"
	listLongDescription       = "list prints every workspace under the worktrees directory and marks the one containing the current directory."
	listHeaderConstant        = "Available Workspaces"
	listEmptyMessageConstant  = "No workspaces found"
	listColumnWorkspace       = "WORKSPACE"
	listColumnPath            = "PATH"
	listColumnCurrent         = "CURRENT"
	listCurrentMarkerConstant = "*"
)

func (builder *CommandBuilder) buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   listUseConstant,
		Short: listShortDescription,
		Long:  listLongDescription,
		Args:  UsageArgs(cobra.NoArgs),
		RunE:  builder.runList,
	}
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	manager, managerError := environment.newManager()
	if managerError != nil {
		return managerError
	}

	workspaceNames, listError := manager.List(command.Context())
	if listError != nil {
		return listError
	}

	output := command.OutOrStdout()
	fmt.Fprintln(output, listHeaderConstant)
	if len(workspaceNames) == 0 {
		fmt.Fprintln(output, listEmptyMessageConstant)
		return nil
	}

	currentWorkspace, _ := manager.CurrentWorkspace(environment.workingDirectory)
	workspaceTable := newTable(output, listColumnWorkspace, listColumnPath, listColumnCurrent)
	for _, workspaceName := range workspaceNames {
		marker := ""
		if workspaceName == currentWorkspace {
			marker = listCurrentMarkerConstant
		}
		workspaceTable.AppendRow([]any{workspaceName, environment.layout.WorkspacePath(workspaceName), marker})
	}
	workspaceTable.Render()
	return nil
}
