package shared

import (
	"path/filepath"
	"strings"
)

const (
	// RepositoriesDirectoryNameConstant holds central repositories beneath the root.
	RepositoriesDirectoryNameConstant = "repos"
	// WorktreesDirectoryNameConstant holds workspace directories beneath the root.
	WorktreesDirectoryNameConstant = "worktrees"
	// WorkspaceMarkerFileNameConstant marks a directory under worktrees as a workspace.
	WorkspaceMarkerFileNameConstant = ".workspace"
	// DefaultStoreFileNameConstant is the configuration store file name.
	DefaultStoreFileNameConstant = "workspace.yaml"
	// DefaultLegacyFileNameConstant is the legacy flat configuration file name.
	DefaultLegacyFileNameConstant = "workspace.conf"
	// GitMetadataEntryNameConstant is the git metadata entry of a checkout.
	GitMetadataEntryNameConstant = ".git"

	stagingDirectoryPrefixConstant = "."
	stagingDirectorySuffixConstant = ".partial-"
	stagingDirectoryWildcard       = "*"
	workspaceNameSeparatorConstant = "/"
)

// Layout computes every path of the on-disk layout from the workspace root.
type Layout struct {
	RootPath       string
	StoreFileName  string
	LegacyFileName string
}

// NewLayout returns a Layout with the default file names.
func NewLayout(rootPath string) Layout {
	return Layout{
		RootPath:       filepath.Clean(rootPath),
		StoreFileName:  DefaultStoreFileNameConstant,
		LegacyFileName: DefaultLegacyFileNameConstant,
	}
}

// RepositoriesDirectory returns the directory holding central repositories.
func (layout Layout) RepositoriesDirectory() string {
	return filepath.Join(layout.RootPath, RepositoriesDirectoryNameConstant)
}

// WorktreesDirectory returns the directory holding workspaces.
func (layout Layout) WorktreesDirectory() string {
	return filepath.Join(layout.RootPath, WorktreesDirectoryNameConstant)
}

// CentralPath returns the central repository path for a repository name.
func (layout Layout) CentralPath(repositoryName string) string {
	return filepath.Join(layout.RepositoriesDirectory(), repositoryName)
}

// StagingPattern returns the os.MkdirTemp pattern used for in-progress clones of a repository.
func (layout Layout) StagingPattern(repositoryName string) string {
	return stagingDirectoryPrefixConstant + repositoryName + stagingDirectorySuffixConstant + stagingDirectoryWildcard
}

// IsStagingEntry reports whether a directory entry name under repos/ is an in-progress clone of the repository.
func (layout Layout) IsStagingEntry(repositoryName string, entryName string) bool {
	return strings.HasPrefix(entryName, stagingDirectoryPrefixConstant+repositoryName+stagingDirectorySuffixConstant)
}

// WorkspacePath returns the directory of a workspace. Slashes in the name become nested directories.
func (layout Layout) WorkspacePath(workspaceName string) string {
	return filepath.Join(layout.WorktreesDirectory(), filepath.FromSlash(workspaceName))
}

// MarkerPath returns the marker file of a workspace.
func (layout Layout) MarkerPath(workspaceName string) string {
	return filepath.Join(layout.WorkspacePath(workspaceName), WorkspaceMarkerFileNameConstant)
}

// CheckoutPath returns the checkout directory of a repository inside a workspace.
func (layout Layout) CheckoutPath(workspaceName string, repositoryName string) string {
	return filepath.Join(layout.WorkspacePath(workspaceName), repositoryName)
}

// StorePath returns the configuration store file.
func (layout Layout) StorePath() string {
	return filepath.Join(layout.RootPath, layout.StoreFileName)
}

// LegacyPath returns the legacy configuration file.
func (layout Layout) LegacyPath() string {
	return filepath.Join(layout.RootPath, layout.LegacyFileName)
}

// WorkspaceNameForPath converts a directory beneath the worktrees directory into a slash-separated candidate name.
func (layout Layout) WorkspaceNameForPath(directoryPath string) (string, bool) {
	relativePath, relativeError := filepath.Rel(layout.WorktreesDirectory(), filepath.Clean(directoryPath))
	if relativeError != nil || relativePath == "." || strings.HasPrefix(relativePath, "..") {
		return "", false
	}
	return filepath.ToSlash(relativePath), true
}

// CandidateWorkspaceNames lists every prefix of the path's name beneath the worktrees directory, shortest first.
func (layout Layout) CandidateWorkspaceNames(directoryPath string) []string {
	relativeName, withinWorktrees := layout.WorkspaceNameForPath(directoryPath)
	if !withinWorktrees {
		return nil
	}
	segments := strings.Split(relativeName, workspaceNameSeparatorConstant)
	candidates := make([]string, 0, len(segments))
	for segmentCount := 1; segmentCount <= len(segments); segmentCount++ {
		candidates = append(candidates, strings.Join(segments[:segmentCount], workspaceNameSeparatorConstant))
	}
	return candidates
}
