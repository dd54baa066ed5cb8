// Package commands builds the cobra commands that operate on workspaces and their configuration.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/branches/refresh"
	"github.com/temirov/workspace/internal/checkouts"
	"github.com/temirov/workspace/internal/configstore"
	"github.com/temirov/workspace/internal/foreach"
	"github.com/temirov/workspace/internal/registry"
	"github.com/temirov/workspace/internal/repos/dependencies"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
	"github.com/temirov/workspace/internal/resolver"
	"github.com/temirov/workspace/internal/status"
	"github.com/temirov/workspace/internal/utils"
	pathutils "github.com/temirov/workspace/internal/utils/path"
	"github.com/temirov/workspace/internal/workspaces"
)

const (
	rootLocationFailureMessageConstant = "unable to locate workspace root"
	workingDirectoryFailureMessage     = "unable to determine working directory"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// PrompterFactory creates confirmation prompters scoped to a Cobra command.
type PrompterFactory func(*cobra.Command) shared.ConfirmationPrompter

// CommandBuilder assembles the workspace commands. Collaborators left nil are replaced by OS-backed defaults
// when a command runs.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() Configuration
	HumanReadableLoggingProvider func() bool
	ColorOutputProvider          func() bool
	CommandExecutor              dependencies.CommandExecutor
	FileSystem                   shared.FileSystem
	PrompterFactory              PrompterFactory
	WorkingDirectoryProvider     pathutils.DirectoryProvider
}

// Build constructs every workspace command in help order.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	return []*cobra.Command{
		builder.buildSwitchCommand(),
		builder.buildInitCommand(),
		builder.buildSyncCommand(),
		builder.buildStatusCommand(),
		builder.buildForeachCommand(),
		builder.buildListCommand(),
		builder.buildCleanCommand(),
		builder.buildRepairCommand(),
		builder.buildConfigCommand(),
	}, nil
}

// UsageArgs wraps a positional argument validator so its failures are reported as usage errors.
func UsageArgs(validator cobra.PositionalArgs) cobra.PositionalArgs {
	return func(command *cobra.Command, arguments []string) error {
		if validationError := validator(command, arguments); validationError != nil {
			return repoerrors.NewUsageError(validationError)
		}
		return nil
	}
}

// commandEnvironment carries the collaborators shared by the workspace commands of one invocation.
type commandEnvironment struct {
	logger            *zap.Logger
	configuration     Configuration
	layout            shared.Layout
	workingDirectory  string
	fileSystem        shared.FileSystem
	executor          dependencies.CommandExecutor
	repositoryManager shared.GitRepositoryManager
	store             *configstore.FileStore
	resolver          *resolver.Resolver
}

func (builder *CommandBuilder) resolveEnvironment(command *cobra.Command) (commandEnvironment, error) {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return commandEnvironment{}, repoerrors.NewConfigError("", repoerrors.OperationLocate, workingDirectoryFailureMessage, workingDirectoryError)
	}

	layout, layoutError := builder.resolveLayout(command, configuration)
	if layoutError != nil {
		return commandEnvironment{}, layoutError
	}

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	executor, executorError := dependencies.ResolveCommandExecutor(builder.CommandExecutor, logger, builder.humanReadableLogging())
	if executorError != nil {
		return commandEnvironment{}, executorError
	}
	repositoryManager, managerError := dependencies.ResolveGitRepositoryManager(nil, executor)
	if managerError != nil {
		return commandEnvironment{}, managerError
	}

	store, storeError := configstore.NewFileStore(configstore.Dependencies{FileSystem: fileSystem}, layout)
	if storeError != nil {
		return commandEnvironment{}, storeError
	}
	configurationResolver, resolverError := resolver.NewResolver(store)
	if resolverError != nil {
		return commandEnvironment{}, resolverError
	}

	configurationFilePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	logger.Debug("workspace environment resolved",
		zap.String("config_file", configurationFilePath),
		zap.String("root", layout.RootPath),
		zap.String("store", layout.StorePath()),
		zap.String("working_directory", workingDirectory),
	)

	return commandEnvironment{
		logger:            logger,
		configuration:     configuration,
		layout:            layout,
		workingDirectory:  workingDirectory,
		fileSystem:        fileSystem,
		executor:          executor,
		repositoryManager: repositoryManager,
		store:             store,
		resolver:          configurationResolver,
	}, nil
}

func (environment commandEnvironment) newManager() (*workspaces.Manager, error) {
	workspaceRegistry, registryError := registry.NewRegistry(registry.Dependencies{
		GitExecutor:       environment.executor,
		RepositoryManager: environment.repositoryManager,
		FileSystem:        environment.fileSystem,
		Logger:            environment.logger,
	}, environment.layout, environment.configuration.RemoteName)
	if registryError != nil {
		return nil, registryError
	}

	inspector, inspectorError := checkouts.NewInspector(environment.fileSystem)
	if inspectorError != nil {
		return nil, inspectorError
	}

	refresher, refresherError := refresh.NewService(refresh.Dependencies{
		GitExecutor:       environment.executor,
		RepositoryManager: environment.repositoryManager,
	})
	if refresherError != nil {
		return nil, refresherError
	}

	return workspaces.NewManager(workspaces.Dependencies{
		Resolver:          environment.resolver,
		Store:             environment.store,
		Registry:          workspaceRegistry,
		Inspector:         inspector,
		Refresher:         refresher,
		RepositoryManager: environment.repositoryManager,
		Discoverer:        dependencies.ResolveWorkspaceDiscoverer(nil),
		FileSystem:        environment.fileSystem,
		Logger:            environment.logger,
	}, environment.layout)
}

func (environment commandEnvironment) newForeachExecutor() (*foreach.Executor, error) {
	return foreach.NewExecutor(foreach.Dependencies{
		Resolver:      environment.resolver,
		ShellExecutor: environment.executor,
		FileSystem:    environment.fileSystem,
		Logger:        environment.logger,
	}, environment.layout)
}

func (environment commandEnvironment) newStatusReporter() (*status.Reporter, error) {
	inspector, inspectorError := checkouts.NewInspector(environment.fileSystem)
	if inspectorError != nil {
		return nil, inspectorError
	}
	return status.NewReporter(status.Dependencies{
		Resolver:          environment.resolver,
		Inspector:         inspector,
		RepositoryManager: environment.repositoryManager,
		Discoverer:        dependencies.ResolveWorkspaceDiscoverer(nil),
		Logger:            environment.logger,
	}, environment.layout)
}

func (builder *CommandBuilder) resolveLayout(command *cobra.Command, configuration Configuration) (shared.Layout, error) {
	if command != nil {
		if workspaceRoot, rootAvailable := utils.NewCommandContextAccessor().WorkspaceRoot(command.Context()); rootAvailable {
			return configuration.Layout(workspaceRoot), nil
		}
	}

	locator := pathutils.NewRootLocator(pathutils.RootLocatorDependencies{WorkingDirectory: builder.WorkingDirectoryProvider})
	workspaceRoot, locateError := locator.Locate(configuration.Root, configuration.RootMarkers())
	if locateError != nil {
		return shared.Layout{}, repoerrors.NewConfigError("", repoerrors.OperationLocate, rootLocationFailureMessageConstant, locateError)
	}
	return configuration.Layout(workspaceRoot), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if builder.WorkingDirectoryProvider != nil {
		return builder.WorkingDirectoryProvider()
	}
	return os.Getwd()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) colorOutput() bool {
	if builder.ColorOutputProvider == nil {
		return false
	}
	return builder.ColorOutputProvider()
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command) shared.ConfirmationPrompter {
	if builder.PrompterFactory != nil {
		if prompter := builder.PrompterFactory(command); prompter != nil {
			return prompter
		}
	}
	return utils.NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}
