// Package testsupport provides fixtures shared by package tests: throwaway git repositories and
// scripted executors.
package testsupport

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/execshell"
	"github.com/temirov/workspace/internal/gitrepo"
)

const (
	fixtureBranchNameConstant   = "main"
	fixtureFilePermissions      = 0o644
	fixtureDirectoryPermissions = 0o755
	gitUnavailableMessage       = "git not available"
)

// RequireGit skips the test when the git binary is unavailable.
func RequireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(string(execshell.CommandGit)); lookupError != nil {
		testInstance.Skip(gitUnavailableMessage)
	}
}

// RunGit executes git in directory with a deterministic identity and returns trimmed standard output.
func RunGit(testInstance *testing.T, directory string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(string(execshell.CommandGit), arguments...)
	command.Dir = directory
	command.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Workspace Test",
		"GIT_AUTHOR_EMAIL=workspace@example.com",
		"GIT_COMMITTER_NAME=Workspace Test",
		"GIT_COMMITTER_EMAIL=workspace@example.com",
		"GIT_TERMINAL_PROMPT=0",
	)
	output, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
	return strings.TrimSpace(string(output))
}

// CommitFile writes content to name inside repositoryPath and commits it.
func CommitFile(testInstance *testing.T, repositoryPath string, name string, content string) {
	testInstance.Helper()
	filePath := filepath.Join(repositoryPath, name)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), fixtureDirectoryPermissions))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), fixtureFilePermissions))
	RunGit(testInstance, repositoryPath, "add", name)
	RunGit(testInstance, repositoryPath, "commit", "--quiet", "-m", "update "+name)
}

// InitUpstream creates a repository named name under parentDirectory with one commit on main and returns its path.
func InitUpstream(testInstance *testing.T, parentDirectory string, name string) string {
	testInstance.Helper()
	repositoryPath := filepath.Join(parentDirectory, name)
	require.NoError(testInstance, os.MkdirAll(repositoryPath, fixtureDirectoryPermissions))
	RunGit(testInstance, repositoryPath, "init", "--quiet")
	RunGit(testInstance, repositoryPath, "symbolic-ref", "HEAD", "refs/heads/"+fixtureBranchNameConstant)
	CommitFile(testInstance, repositoryPath, "README.md", "# "+name+"\n")
	return repositoryPath
}

// NewGitCollaborators builds a real shell executor and repository manager.
func NewGitCollaborators(testInstance *testing.T, logger *zap.Logger) (*execshell.ShellExecutor, *gitrepo.RepositoryManager) {
	testInstance.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), false)
	require.NoError(testInstance, executorError)
	manager, managerError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, managerError)
	return executor, manager
}
