package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	configUseConstant                     = "config"
	configShortDescription                = "Manage repository configuration"
	configLongDescription                 = "config edits the default repositories inherited by every workspace and the per-workspace overrides, shows the effective configuration and imports legacy flat files."
	configSetDefaultUseConstant           = "set-default <url> [branch] [ref]"
	configSetDefaultShortDescription      = "Add or replace a default repository"
	configSetUseConstant                  = "set <workspace> <url-or-name> [branch] [ref]"
	configSetShortDescription             = "Add or replace a repository override for one workspace"
	configShowUseConstant                 = "show [workspace]"
	configShowShortDescription            = "Show configured repositories"
	configImportUseConstant               = "import <workspace> [file]"
	configImportShortDescription          = "Import a legacy flat file as workspace overrides"
	configSetDefaultTemplateConstant      = "Set default repository config: %s\n"
	configSetTemplateConstant             = "Set repository config for %s: %s\n"
	configImportStartTemplateConstant     = "Importing configuration from %s into %s\n"
	configImportEntryTemplateConstant     = "  %s\n"
	configImportDoneTemplateConstant      = "Import complete: %d repositories\n"
	configImportMissingTemplateConstant   = "%s not found"
	configUnknownRepositoryConstant       = "repository not configured; pass its url"
	configOverridesSectionConstant        = "Workspace-specific repositories:"
	configDefaultsInheritedSectionConst   = "Default repositories (inherited):"
	configDefaultsSectionConstant         = "Default repositories:"
	configLegacySectionTemplateConstant   = "Legacy configuration (from %s):"
	configWorkspaceSectionTemplateConst   = "Repositories for workspace %s:"
	configNoRepositoriesMessageConstant   = "No repositories configured"
	configColumnName                      = "NAME"
	configColumnURL                       = "URL"
	configColumnBranch                    = "BRANCH"
	configColumnPinned                    = "PINNED"
	configUnsetValueConstant              = "-"
	configRepositoryURLSeparatorsConstant = "/:"
)

func (builder *CommandBuilder) buildConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   configUseConstant,
		Short: configShortDescription,
		Long:  configLongDescription,
		Args:  UsageArgs(cobra.NoArgs),
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	command.AddCommand(
		&cobra.Command{
			Use:   configSetDefaultUseConstant,
			Short: configSetDefaultShortDescription,
			Args:  UsageArgs(cobra.RangeArgs(1, 3)),
			RunE:  builder.runConfigSetDefault,
		},
		&cobra.Command{
			Use:   configSetUseConstant,
			Short: configSetShortDescription,
			Args:  UsageArgs(cobra.RangeArgs(2, 4)),
			RunE:  builder.runConfigSet,
		},
		&cobra.Command{
			Use:   configShowUseConstant,
			Short: configShowShortDescription,
			Args:  UsageArgs(cobra.MaximumNArgs(1)),
			RunE:  builder.runConfigShow,
		},
		&cobra.Command{
			Use:   configImportUseConstant,
			Short: configImportShortDescription,
			Args:  UsageArgs(cobra.RangeArgs(1, 2)),
			RunE:  builder.runConfigImport,
		},
	)
	return command
}

func (builder *CommandBuilder) runConfigSetDefault(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}

	branch, pinnedRef := optionalArgument(arguments, 1), optionalArgument(arguments, 2)
	spec, specError := shared.NewRepositorySpec(arguments[0], branch, pinnedRef)
	if specError != nil {
		return specError
	}
	if storeError := environment.store.SetDefault(spec); storeError != nil {
		return storeError
	}

	fmt.Fprintf(command.OutOrStdout(), configSetDefaultTemplateConstant, spec.Name)
	return nil
}

func (builder *CommandBuilder) runConfigSet(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}

	workspaceName := arguments[0]
	if validationError := shared.ValidateWorkspaceName(workspaceName); validationError != nil {
		return validationError
	}

	repositoryURL := arguments[1]
	if !strings.ContainsAny(repositoryURL, configRepositoryURLSeparatorsConstant) {
		resolvedURL, lookupError := builder.lookupRepositoryURL(command, environment, workspaceName, repositoryURL)
		if lookupError != nil {
			return lookupError
		}
		repositoryURL = resolvedURL
	}

	spec, specError := shared.NewRepositorySpec(repositoryURL, optionalArgument(arguments, 2), optionalArgument(arguments, 3))
	if specError != nil {
		return specError
	}
	if storeError := environment.store.SetOverride(workspaceName, spec); storeError != nil {
		return storeError
	}

	fmt.Fprintf(command.OutOrStdout(), configSetTemplateConstant, workspaceName, spec.Name)
	return nil
}

// lookupRepositoryURL maps a bare repository name to the URL the workspace already resolves it to.
func (builder *CommandBuilder) lookupRepositoryURL(command *cobra.Command, environment commandEnvironment, workspaceName string, repositoryName string) (string, error) {
	specs, resolveError := environment.resolver.Resolve(command.Context(), workspaceName)
	if resolveError != nil {
		return "", resolveError
	}
	for _, spec := range specs {
		if spec.Name == repositoryName {
			return spec.URL, nil
		}
	}
	return "", repoerrors.NewNotFoundError(workspaceName, repositoryName, repoerrors.OperationConfigure, configUnknownRepositoryConstant)
}

func (builder *CommandBuilder) runConfigShow(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}

	output := command.OutOrStdout()
	if len(arguments) == 1 {
		return showWorkspaceConfiguration(command, environment, output, arguments[0])
	}
	return showStoredConfiguration(environment, output)
}

func showWorkspaceConfiguration(command *cobra.Command, environment commandEnvironment, output io.Writer, workspaceName string) error {
	tieredSpecs, resolveError := environment.resolver.ResolveWithTiers(command.Context(), workspaceName)
	if resolveError != nil {
		return resolveError
	}
	if len(tieredSpecs) == 0 {
		fmt.Fprintln(output, configNoRepositoriesMessageConstant)
		return nil
	}

	sections := []struct {
		tier  shared.ConfigTier
		title string
	}{
		{tier: shared.TierWorkspaceOverride, title: configOverridesSectionConstant},
		{tier: shared.TierDefaultTemplate, title: configDefaultsInheritedSectionConst},
		{tier: shared.TierLegacyFile, title: fmt.Sprintf(configLegacySectionTemplateConstant, environment.layout.LegacyFileName)},
	}
	for _, section := range sections {
		var sectionSpecs []shared.RepositorySpec
		for _, tieredSpec := range tieredSpecs {
			if tieredSpec.Tier == section.tier {
				sectionSpecs = append(sectionSpecs, tieredSpec.Spec)
			}
		}
		if len(sectionSpecs) == 0 {
			continue
		}
		renderSpecSection(output, section.title, sectionSpecs, func(spec shared.RepositorySpec) string {
			return spec.EffectiveBranch(workspaceName)
		})
	}
	return nil
}

func showStoredConfiguration(environment commandEnvironment, output io.Writer) error {
	defaults, defaultsError := environment.store.Defaults()
	if defaultsError != nil {
		return defaultsError
	}
	legacy, legacyError := environment.store.Legacy()
	if legacyError != nil {
		return legacyError
	}
	overriddenWorkspaces, workspacesError := environment.store.OverriddenWorkspaces()
	if workspacesError != nil {
		return workspacesError
	}
	if len(defaults) == 0 && len(legacy) == 0 && len(overriddenWorkspaces) == 0 {
		fmt.Fprintln(output, configNoRepositoriesMessageConstant)
		return nil
	}

	configuredBranch := func(spec shared.RepositorySpec) string {
		return spec.Branch
	}
	if len(defaults) > 0 {
		renderSpecSection(output, configDefaultsSectionConstant, defaults, configuredBranch)
	}
	if len(legacy) > 0 {
		renderSpecSection(output, fmt.Sprintf(configLegacySectionTemplateConstant, environment.layout.LegacyFileName), legacy, configuredBranch)
	}
	for _, workspaceName := range overriddenWorkspaces {
		overrides, overridesError := environment.store.Overrides(workspaceName)
		if overridesError != nil {
			return overridesError
		}
		renderSpecSection(output, fmt.Sprintf(configWorkspaceSectionTemplateConst, workspaceName), overrides, configuredBranch)
	}
	return nil
}

func renderSpecSection(output io.Writer, title string, specs []shared.RepositorySpec, branchOf func(shared.RepositorySpec) string) {
	fmt.Fprintln(output, title)
	specTable := newTable(output, configColumnName, configColumnURL, configColumnBranch, configColumnPinned)
	for _, spec := range specs {
		specTable.AppendRow([]any{spec.Name, spec.URL, displayValue(branchOf(spec)), displayValue(spec.PinnedRef)})
	}
	specTable.Render()
}

func (builder *CommandBuilder) runConfigImport(command *cobra.Command, arguments []string) error {
	environment, environmentError := builder.resolveEnvironment(command)
	if environmentError != nil {
		return environmentError
	}

	workspaceName := arguments[0]
	if validationError := shared.ValidateWorkspaceName(workspaceName); validationError != nil {
		return validationError
	}

	sourcePath := environment.layout.LegacyPath()
	if providedPath := optionalArgument(arguments, 1); len(providedPath) > 0 {
		sourcePath = providedPath
		if !filepath.IsAbs(sourcePath) {
			sourcePath = filepath.Join(environment.workingDirectory, sourcePath)
		}
	}

	sourceFile, openError := os.Open(sourcePath)
	if errors.Is(openError, fs.ErrNotExist) {
		return repoerrors.NewNotFoundError(workspaceName, "", repoerrors.OperationImport, fmt.Sprintf(configImportMissingTemplateConstant, sourcePath))
	}
	if openError != nil {
		return repoerrors.NewConfigError(workspaceName, repoerrors.OperationImport, "", openError)
	}
	defer sourceFile.Close()

	output := command.OutOrStdout()
	fmt.Fprintf(output, configImportStartTemplateConstant, sourcePath, workspaceName)
	result, importError := environment.store.ImportLegacy(workspaceName, sourceFile)
	if importError != nil {
		return importError
	}
	for _, spec := range result.Imported {
		fmt.Fprintf(output, configImportEntryTemplateConstant, spec.Describe(workspaceName))
	}
	fmt.Fprintf(output, configImportDoneTemplateConstant, len(result.Imported))
	return nil
}

func optionalArgument(arguments []string, index int) string {
	if index < len(arguments) {
		return strings.TrimSpace(arguments[index])
	}
	return ""
}

func displayValue(value string) string {
	if len(value) == 0 {
		return configUnsetValueConstant
	}
	return value
}
