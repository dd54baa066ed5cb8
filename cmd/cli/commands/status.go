package commands

import (
	"github.com/spf13/cobra"

	"github.com/temirov/workspace/internal/status"
)

const (
	statusUseConstant      = "status"
	statusShortDescription = "Show the state of every workspace"
	statusLongDescription  = "status lists each workspace with the branch or pinned reference of its checkouts, whether they have local modifications, and checkouts that are missing or broken."
)

func (builder *CommandBuilder) buildStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   statusUseConstant,
		Short: statusShortDescription,
		Long:  statusLongDescription,
		Args:  UsageArgs(cobra.NoArgs),
		RunE:  builder.runStatus,
	}
}

func (builder *CommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}
	reporter, reporterError := environment.newStatusReporter()
	if reporterError != nil {
		return reporterError
	}

	statuses, reportError := reporter.Report(command.Context())
	if reportError != nil {
		return reportError
	}
	return status.NewRenderer(builder.colorOutput()).Render(command.OutOrStdout(), statuses)
}
