package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	workspaceRootContextKeyConstant         = commandContextKey("workspaceRoot")
)

type commandContextKey string

// CommandContextAccessor stores and reads values resolved before a command runs.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file that was loaded.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return context.WithValue(nonNilContext(parentContext), configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath returns the loaded configuration file, if one was recorded.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithWorkspaceRoot attaches the resolved workspace root directory.
func (accessor CommandContextAccessor) WithWorkspaceRoot(parentContext context.Context, workspaceRoot string) context.Context {
	return context.WithValue(nonNilContext(parentContext), workspaceRootContextKeyConstant, workspaceRoot)
}

// WorkspaceRoot returns the workspace root recorded for the command, if any.
func (accessor CommandContextAccessor) WorkspaceRoot(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, workspaceRootContextKeyConstant)
}

func nonNilContext(parentContext context.Context) context.Context {
	if parentContext == nil {
		return context.Background()
	}
	return parentContext
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	if !available || len(value) == 0 {
		return "", false
	}
	return value, true
}
