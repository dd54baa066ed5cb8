package discovery

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	gitMetadataEntryNameConstant    = ".git"
	workspaceMarkerFileNameConstant = ".workspace"
	hiddenEntryPrefixConstant       = "."
)

// FilesystemWorkspaceDiscoverer locates workspaces and their checkouts on disk.
type FilesystemWorkspaceDiscoverer struct{}

// NewFilesystemWorkspaceDiscoverer constructs a discoverer backed by filepath.WalkDir.
func NewFilesystemWorkspaceDiscoverer() *FilesystemWorkspaceDiscoverer {
	return &FilesystemWorkspaceDiscoverer{}
}

// DiscoverWorkspaces walks worktreesRoot and returns slash-separated workspace names, sorted.
// A directory is a workspace when it holds the marker file or directly contains a checkout.
// Nested workspaces are listed too. A missing root yields no workspaces.
func (discoverer *FilesystemWorkspaceDiscoverer) DiscoverWorkspaces(worktreesRoot string) ([]string, error) {
	if _, statError := os.Stat(worktreesRoot); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, statError
	}

	var workspaceNames []string
	walkError := filepath.WalkDir(worktreesRoot, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == worktreesRoot {
				return walkError
			}
			return nil
		}
		if !directoryEntry.IsDir() || path == worktreesRoot {
			return nil
		}
		if strings.HasPrefix(directoryEntry.Name(), hiddenEntryPrefixConstant) || hasEntry(path, gitMetadataEntryNameConstant) {
			return fs.SkipDir
		}
		if !hasEntry(path, workspaceMarkerFileNameConstant) && !containsCheckout(path) {
			return nil
		}

		relativePath, relativeError := filepath.Rel(worktreesRoot, path)
		if relativeError != nil {
			return relativeError
		}
		workspaceNames = append(workspaceNames, filepath.ToSlash(relativePath))
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Strings(workspaceNames)
	return workspaceNames, nil
}

// DiscoverCheckouts returns the names of checkout directories directly inside a workspace, sorted.
// Hidden entries and nested workspaces are excluded.
func (discoverer *FilesystemWorkspaceDiscoverer) DiscoverCheckouts(workspacePath string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(workspacePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, readError
	}

	var checkoutNames []string
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() || strings.HasPrefix(directoryEntry.Name(), hiddenEntryPrefixConstant) {
			continue
		}
		if hasEntry(filepath.Join(workspacePath, directoryEntry.Name()), workspaceMarkerFileNameConstant) {
			continue
		}
		checkoutNames = append(checkoutNames, directoryEntry.Name())
	}
	sort.Strings(checkoutNames)
	return checkoutNames, nil
}

func containsCheckout(directoryPath string) bool {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return false
	}
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() && hasEntry(filepath.Join(directoryPath, directoryEntry.Name()), gitMetadataEntryNameConstant) {
			return true
		}
	}
	return false
}

func hasEntry(directoryPath string, entryName string) bool {
	_, statError := os.Lstat(filepath.Join(directoryPath, entryName))
	return statError == nil
}
