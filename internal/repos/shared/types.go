package shared

import (
	"context"
	"io/fs"

	"github.com/temirov/workspace/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the remote every central repository is cloned from.
	OriginRemoteNameConstant = "origin"
	// DefaultWorkspaceNameConstant names the workspace used when none is given.
	DefaultWorkspaceNameConstant = "main"
)

// FileSystem exposes filesystem operations required by workspace services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	Rename(oldPath string, newPath string) error
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	MkdirTemp(directory string, pattern string) (string, error)
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
	AtomicWrite(path string, data []byte, permissions fs.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
}

// ConfirmationResult captures the outcome of a user confirmation prompt.
type ConfirmationResult struct {
	Confirmed bool
}

// ConfirmationPrompter collects user confirmations prior to destructive actions.
type ConfirmationPrompter interface {
	Confirm(prompt string) (ConfirmationResult, error)
}

// GitExecutor exposes the subset of shell execution used by git-facing services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ShellExecutor evaluates user commands through the shell.
type ShellExecutor interface {
	ExecuteShell(executionContext context.Context, script string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes repository-level git queries.
type GitRepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error)
	ResolveRevision(executionContext context.Context, repositoryPath string, revision string) (string, error)
	IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error)
	RemoteDefaultBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
}

// WorkspaceDiscoverer locates workspace directories beneath the worktrees directory.
type WorkspaceDiscoverer interface {
	DiscoverWorkspaces(worktreesRoot string) ([]string, error)
	DiscoverCheckouts(workspacePath string) ([]string, error)
}
