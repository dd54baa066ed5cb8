package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/execshell"
	"github.com/temirov/workspace/internal/gitrepo"
	"github.com/temirov/workspace/internal/repos/discovery"
	"github.com/temirov/workspace/internal/repos/filesystem"
	"github.com/temirov/workspace/internal/repos/shared"
)

// CommandExecutor runs both git and shell invocations.
type CommandExecutor interface {
	shared.GitExecutor
	shared.ShellExecutor
}

// ResolveWorkspaceDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveWorkspaceDiscoverer(existing shared.WorkspaceDiscoverer) shared.WorkspaceDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemWorkspaceDiscoverer()
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveCommandExecutor returns the provided executor or constructs a shell-backed default.
// humanReadable selects the console lifecycle messages.
func ResolveCommandExecutor(existing CommandExecutor, logger *zap.Logger, humanReadable bool) (CommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadable)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.GitExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}
