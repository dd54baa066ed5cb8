package commands

import (
	"strings"

	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	defaultWorkspaceNameConstant = "main"
)

// Configuration holds the workspace section of the CLI configuration.
type Configuration struct {
	Root             string `mapstructure:"root"`
	StoreFile        string `mapstructure:"store_file"`
	LegacyFile       string `mapstructure:"legacy_file"`
	DefaultWorkspace string `mapstructure:"default_workspace"`
	RemoteName       string `mapstructure:"remote_name"`
}

// DefaultConfiguration returns the values used when nothing is configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		StoreFile:        shared.DefaultStoreFileNameConstant,
		LegacyFile:       shared.DefaultLegacyFileNameConstant,
		DefaultWorkspace: defaultWorkspaceNameConstant,
		RemoteName:       shared.OriginRemoteNameConstant,
	}
}

// Sanitize trims every value and replaces blank ones with defaults. Root stays blank when unset.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	return Configuration{
		Root:             strings.TrimSpace(configuration.Root),
		StoreFile:        valueOrDefault(configuration.StoreFile, defaults.StoreFile),
		LegacyFile:       valueOrDefault(configuration.LegacyFile, defaults.LegacyFile),
		DefaultWorkspace: valueOrDefault(configuration.DefaultWorkspace, defaults.DefaultWorkspace),
		RemoteName:       valueOrDefault(configuration.RemoteName, defaults.RemoteName),
	}
}

// Layout returns the on-disk layout rooted at rootPath with the configured file names.
func (configuration Configuration) Layout(rootPath string) shared.Layout {
	layout := shared.NewLayout(rootPath)
	layout.StoreFileName = configuration.StoreFile
	layout.LegacyFileName = configuration.LegacyFile
	return layout
}

// RootMarkers lists the entries whose presence identifies a workspace root.
func (configuration Configuration) RootMarkers() []string {
	return []string{
		configuration.StoreFile,
		configuration.LegacyFile,
		shared.RepositoriesDirectoryNameConstant,
		shared.WorktreesDirectoryNameConstant,
	}
}

func valueOrDefault(value string, defaultValue string) string {
	if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
		return trimmed
	}
	return defaultValue
}
