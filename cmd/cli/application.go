package cli

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/workspace/cmd/cli/commands"
	"github.com/temirov/workspace/internal/repos/dependencies"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
	"github.com/temirov/workspace/internal/utils"
	flagutils "github.com/temirov/workspace/internal/utils/flags"
	pathutils "github.com/temirov/workspace/internal/utils/path"
)

const (
	applicationNameConstant                 = "workspace"
	applicationShortDescriptionConstant     = "Orchestrate several git repositories as named workspaces"
	applicationLongDescriptionConstant      = "workspace keeps one central clone per repository under repos/ and links a checkout of each configured repository into every workspace under worktrees/, tracking a branch or pinned to a reference."
	environmentPrefixConstant               = "WORKSPACE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationDirectoryNameConstant      = "workspace"
	xdgConfigHomeEnvironmentNameConstant    = "XDG_CONFIG_HOME"
	userConfigDirectoryNameConstant         = ".config"
	developmentVersionConstant              = "(devel)"
	unknownVersionConstant                  = "dev"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	workspaceRootFieldConstant              = "workspace_root"
	configurationLoadMessageConstant        = "unable to load configuration"
	loggerCreationMessageConstant           = "unable to create logger"
	rootLocationMessageConstant             = "unable to locate workspace root"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration `mapstructure:"common"`
	Workspace commands.Configuration         `mapstructure:"workspace"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel    string            `mapstructure:"log_level"`
	LogFormat   string            `mapstructure:"log_format"`
	LogFile     string            `mapstructure:"log_file"`
	LogRotation utils.LogRotation `mapstructure:"log_rotation"`
}

// ApplicationOptions replaces process-level collaborators, mainly for tests. Zero values select the defaults.
type ApplicationOptions struct {
	WorkingDirectoryProvider pathutils.DirectoryProvider
	CommandExecutor          dependencies.CommandExecutor
	PrompterFactory          commands.PrompterFactory
	LogOutput                io.Writer
	SearchPaths              []string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	globalFlags            *flagutils.GlobalFlagValues
	commandContextAccessor utils.CommandContextAccessor
	options                ApplicationOptions
}

// NewApplication assembles a CLI application bound to the process environment.
func NewApplication() *Application {
	return NewApplicationWithOptions(ApplicationOptions{})
}

// NewApplicationWithOptions assembles a CLI application with replaced collaborators.
func NewApplicationWithOptions(options ApplicationOptions) *Application {
	searchPaths := options.SearchPaths
	if searchPaths == nil {
		searchPaths = defaultConfigurationSearchPaths()
	}

	application := &Application{
		configurationLoader: utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
			Name:              configurationNameConstant,
			Type:              configurationTypeConstant,
			EnvironmentPrefix: environmentPrefixConstant,
			SearchPaths:       searchPaths,
			Embedded:          embeddedDefaultConfigurationContent,
		}),
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		options:                options,
	}

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          commands.UsageArgs(cobra.NoArgs),
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetContext(context.Background())
	rootCommand.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return repoerrors.NewUsageError(flagError)
	})

	application.globalFlags = flagutils.BindGlobalFlags(rootCommand, flagutils.GlobalFlagDefaults{
		LogLevel:   string(utils.LogLevelWarn),
		LogLevels:  utils.SupportedLogLevels(),
		LogFormat:  string(utils.LogFormatConsole),
		LogFormats: utils.SupportedLogFormats(),
	})

	commandBuilder := commands.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() commands.Configuration {
			return application.configuration.Workspace
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ColorOutputProvider: func() bool {
			return utils.IsTerminal(os.Stdout)
		},
		CommandExecutor:          options.CommandExecutor,
		PrompterFactory:          application.prompterFactory(),
		WorkingDirectoryProvider: options.WorkingDirectoryProvider,
	}
	workspaceCommands, buildError := commandBuilder.Build()
	if buildError == nil {
		rootCommand.AddCommand(workspaceCommands...)
	}

	application.rootCommand = rootCommand
	return application
}

// Execute runs the command hierarchy with a context cancelled on SIGINT or SIGTERM and flushes the logger.
func (application *Application) Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	executionError := application.rootCommand.ExecuteContext(signalContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Command exposes the root command so callers can set arguments and streams before Execute.
func (application *Application) Command() *cobra.Command {
	return application.rootCommand
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.Load(application.globalFlags.ConfigFile, &application.configuration)
	if loadError != nil {
		return repoerrors.NewConfigError("", repoerrors.OperationConfigure, configurationLoadMessageConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if flagutils.Changed(command, flagutils.LogLevelFlagName) {
		application.configuration.Common.LogLevel = application.globalFlags.LogLevel
	}
	if flagutils.Changed(command, flagutils.LogFormatFlagName) {
		application.configuration.Common.LogFormat = application.globalFlags.LogFormat
	}
	if flagutils.Changed(command, flagutils.RootFlagName) {
		application.configuration.Workspace.Root = application.globalFlags.Root
	}
	application.configuration.Workspace = application.configuration.Workspace.Sanitize()

	logger, loggerError := application.loggerFactory.CreateLogger(utils.LoggerOptions{
		Level:    utils.LogLevel(application.configuration.Common.LogLevel),
		Format:   utils.LogFormat(application.configuration.Common.LogFormat),
		FilePath: application.configuration.Common.LogFile,
		Rotation: application.configuration.Common.LogRotation,
		Output:   application.options.LogOutput,
	})
	if loggerError != nil {
		return repoerrors.NewConfigError("", repoerrors.OperationConfigure, loggerCreationMessageConstant, loggerError)
	}
	application.logger = logger

	locator := pathutils.NewRootLocator(pathutils.RootLocatorDependencies{WorkingDirectory: application.options.WorkingDirectoryProvider})
	workspaceRoot, locateError := locator.Locate(application.configuration.Workspace.Root, application.configuration.Workspace.RootMarkers())
	if locateError != nil {
		return repoerrors.NewConfigError("", repoerrors.OperationLocate, rootLocationMessageConstant, locateError)
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(workspaceRootFieldConstant, workspaceRoot),
	)

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	updatedContext = application.commandContextAccessor.WithWorkspaceRoot(updatedContext, workspaceRoot)
	command.SetContext(updatedContext)
	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return utils.LogFormat(application.configuration.Common.LogFormat).IsHumanReadable()
}

func (application *Application) prompterFactory() commands.PrompterFactory {
	if application.options.PrompterFactory != nil {
		return application.options.PrompterFactory
	}
	return func(command *cobra.Command) shared.ConfirmationPrompter {
		return utils.NewConfirmationPrompter(os.Stdin, os.Stderr)
	}
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func defaultConfigurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	configurationHome := os.Getenv(xdgConfigHomeEnvironmentNameConstant)
	if len(configurationHome) == 0 {
		if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
			configurationHome = filepath.Join(homeDirectory, userConfigDirectoryNameConstant)
		}
	}
	if len(configurationHome) > 0 {
		searchPaths = append(searchPaths, filepath.Join(configurationHome, configurationDirectoryNameConstant))
	}
	return searchPaths
}

func resolveVersion() string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 || buildInformation.Main.Version == developmentVersionConstant {
		return unknownVersionConstant
	}
	return buildInformation.Main.Version
}
