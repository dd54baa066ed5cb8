package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	switchUseConstant               = "switch [workspace]"
	switchShortDescription          = "Create or update a workspace"
	switchLongDescription           = "switch links every configured repository into the workspace, creating the workspace and missing central clones when needed. Without an argument the default workspace is used."
	switchStartedTemplateConstant   = "Switching to workspace: %s\n"
	switchReadyTemplateConstant     = "Workspace ready: %s\n"
	switchRemovedTemplateConstant   = "Workspace not created: %s\n"
	switchEmptyMessageConstant      = "No repositories configured; the workspace is empty"
	initUseConstant                 = "init [workspace]"
	initShortDescription            = "Create a workspace"
	initLongDescription             = "init creates the workspace and links every configured repository into it. It behaves like switch and is kept for scripts written against the older command name."
	initStartedTemplateConstant     = "Initializing workspace: %s\n"
	initInitializedTemplateConstant = "Workspace initialized: %s\n"
)

type switchMessages struct {
	started string
	ready   string
}

func (builder *CommandBuilder) buildSwitchCommand() *cobra.Command {
	messages := switchMessages{started: switchStartedTemplateConstant, ready: switchReadyTemplateConstant}
	return &cobra.Command{
		Use:   switchUseConstant,
		Short: switchShortDescription,
		Long:  switchLongDescription,
		Args:  UsageArgs(cobra.MaximumNArgs(1)),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runSwitch(command, arguments, messages)
		},
	}
}

func (builder *CommandBuilder) buildInitCommand() *cobra.Command {
	messages := switchMessages{started: initStartedTemplateConstant, ready: initInitializedTemplateConstant}
	return &cobra.Command{
		Use:   initUseConstant,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  UsageArgs(cobra.MaximumNArgs(1)),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.runSwitch(command, arguments, messages)
		},
	}
}

func (builder *CommandBuilder) runSwitch(command *cobra.Command, arguments []string, messages switchMessages) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	manager, managerError := environment.newManager()
	if managerError != nil {
		return managerError
	}

	workspaceName := environment.configuration.DefaultWorkspace
	if len(arguments) > 0 {
		workspaceName = arguments[0]
	}

	output := command.OutOrStdout()
	fmt.Fprintf(output, messages.started, workspaceName)

	report, switchError := manager.Switch(command.Context(), workspaceName)
	printOutcomes(output, newOutputPalette(builder.colorOutput()), report.BatchReport)
	if report.Removed {
		fmt.Fprintf(output, switchRemovedTemplateConstant, workspaceName)
	}
	if switchError != nil {
		return switchError
	}

	if len(report.Outcomes) == 0 {
		fmt.Fprintln(output, switchEmptyMessageConstant)
	}
	fmt.Fprintf(output, messages.ready, report.WorkspacePath)
	return nil
}
