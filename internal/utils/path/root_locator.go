// Package pathutils locates the workspace root and expands user-supplied paths.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tildeSymbolConstant = "~"

// DirectoryProvider returns a directory such as the user's home or the process working directory.
type DirectoryProvider func() (string, error)

// RootLocatorDependencies enumerates the directory lookups of a RootLocator. Nil providers use the operating system.
type RootLocatorDependencies struct {
	HomeDirectory    DirectoryProvider
	WorkingDirectory DirectoryProvider
}

// RootLocator resolves the workspace root from configuration or from the directories above the working directory.
type RootLocator struct {
	homeDirectoryProvider    DirectoryProvider
	workingDirectoryProvider DirectoryProvider
	homeDirectory            string
	homeDirectoryError       error
	homeLookupGuard          sync.Once
}

// NewRootLocator constructs a RootLocator.
func NewRootLocator(dependencies RootLocatorDependencies) *RootLocator {
	homeDirectoryProvider := dependencies.HomeDirectory
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	workingDirectoryProvider := dependencies.WorkingDirectory
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &RootLocator{
		homeDirectoryProvider:    homeDirectoryProvider,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// ExpandHome resolves a leading "~" or "~/" to the user's home directory. Other paths are returned unchanged,
// as are all paths when the home directory is unknown.
func (locator *RootLocator) ExpandHome(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}
	homeDirectory := locator.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	if candidatePath == tildeSymbolConstant {
		return homeDirectory
	}
	for _, separator := range []rune{'/', os.PathSeparator} {
		prefix := tildeSymbolConstant + string(separator)
		if strings.HasPrefix(candidatePath, prefix) {
			return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, prefix))
		}
	}
	return candidatePath
}

// Locate returns the absolute workspace root. A non-blank configuredRoot wins after home expansion. Otherwise the
// nearest ancestor of the working directory, itself included, containing one of markerEntries is the root; when
// none does the working directory is.
func (locator *RootLocator) Locate(configuredRoot string, markerEntries []string) (string, error) {
	if trimmedRoot := strings.TrimSpace(configuredRoot); len(trimmedRoot) > 0 {
		return filepath.Abs(locator.ExpandHome(trimmedRoot))
	}

	workingDirectory, workingDirectoryError := locator.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", workingDirectoryError
	}
	workingDirectory, absoluteError := filepath.Abs(workingDirectory)
	if absoluteError != nil {
		return "", absoluteError
	}

	candidateDirectory := workingDirectory
	for {
		if containsAnyEntry(candidateDirectory, markerEntries) {
			return candidateDirectory, nil
		}
		parentDirectory := filepath.Dir(candidateDirectory)
		if parentDirectory == candidateDirectory {
			return workingDirectory, nil
		}
		candidateDirectory = parentDirectory
	}
}

func (locator *RootLocator) resolveHomeDirectory() string {
	locator.homeLookupGuard.Do(func() {
		locator.homeDirectory, locator.homeDirectoryError = locator.homeDirectoryProvider()
	})
	if locator.homeDirectoryError != nil {
		return ""
	}
	return locator.homeDirectory
}

func containsAnyEntry(directory string, entryNames []string) bool {
	for _, entryName := range entryNames {
		if len(entryName) == 0 {
			continue
		}
		if _, statError := os.Stat(filepath.Join(directory, entryName)); statError == nil {
			return true
		}
	}
	return false
}
