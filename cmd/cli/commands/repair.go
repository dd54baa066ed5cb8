package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	repairUseConstant             = "repair <workspace> <repository>"
	repairShortDescription        = "Rebuild a broken checkout"
	repairLongDescription         = "repair removes a broken or missing checkout of one repository and links it again from the central repository, preserving whether it tracks a branch or is pinned. A standalone clone is replaced only when it has no uncommitted changes."
	repairStartedTemplateConstant = "Attempting to repair %s in workspace %s\n"
	repairReasonTemplateConstant  = "  problem: %s\n"
	repairStepTemplateConstant    = "  - %s\n"
	repairDoneTemplateConstant    = "Repaired %s: %s\n"
	repairNoopTemplateConstant    = "Nothing to repair for %s\n"
)

func (builder *CommandBuilder) buildRepairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   repairUseConstant,
		Short: repairShortDescription,
		Long:  repairLongDescription,
		Args:  UsageArgs(cobra.ExactArgs(2)),
		RunE:  builder.runRepair,
	}
}

func (builder *CommandBuilder) runRepair(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	manager, managerError := environment.newManager()
	if managerError != nil {
		return managerError
	}

	workspaceName, repositoryName := arguments[0], arguments[1]
	output := command.OutOrStdout()
	palette := newOutputPalette(builder.colorOutput())
	fmt.Fprintf(output, repairStartedTemplateConstant, repositoryName, workspaceName)

	report, repairError := manager.Repair(command.Context(), workspaceName, repositoryName)
	if len(report.Reason) > 0 {
		fmt.Fprintf(output, repairReasonTemplateConstant, palette.warning.Sprint(report.Reason))
	}
	for _, step := range report.Steps {
		fmt.Fprintf(output, repairStepTemplateConstant, step)
	}
	if repairError != nil {
		return repairError
	}

	if report.Repaired {
		fmt.Fprintf(output, repairDoneTemplateConstant, repositoryName, palette.success.Sprint(report.Path))
		return nil
	}
	fmt.Fprintf(output, repairNoopTemplateConstant, repositoryName)
	return nil
}
