package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/workspace/internal/execshell"
)

const (
	gitStatusSubcommandConstant           = "status"
	gitPorcelainFlagConstant              = "--porcelain"
	gitRevParseSubcommandConstant         = "rev-parse"
	gitAbbrevRefFlagConstant              = "--abbrev-ref"
	gitVerifyFlagConstant                 = "--verify"
	gitQuietFlagConstant                  = "--quiet"
	gitHeadReferenceConstant              = "HEAD"
	gitRemoteSubcommandConstant           = "remote"
	gitGetURLActionConstant               = "get-url"
	gitMergeBaseSubcommandConstant        = "merge-base"
	gitIsAncestorFlagConstant             = "--is-ancestor"
	gitSymbolicRefSubcommandConstant      = "symbolic-ref"
	gitShortFlagConstant                  = "--short"
	remoteReferencePrefixTemplateConstant = "refs/remotes/%s/"
	remoteHeadReferenceTemplateConstant   = "refs/remotes/%s/HEAD"
	remoteBranchReferenceTemplateConstant = "refs/remotes/%s/%s"
	shortRemoteBranchPrefixTemplate       = "%s/"
	commitPeelSuffixConstant              = "^{commit}"
	terminalPromptEnvironmentKeyConstant  = "GIT_TERMINAL_PROMPT"
	terminalPromptDisabledValueConstant   = "0"
	repositoryPathRequiredMessageConstant = "repository path is required"
	executorNotConfiguredMessageConstant  = "git executor not configured"
	defaultBranchNotFoundMessageConstant  = "default branch not found"
	defaultBranchNotFoundTemplateConstant = "%w for remote %s"
	notAncestorExitCodeConstant           = 1
)

var fallbackDefaultBranchNames = []string{"main", "master"}

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryPathRequired indicates an empty repository path was supplied.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrDefaultBranchNotFound indicates no default branch could be determined for a remote.
var ErrDefaultBranchNotFound = errors.New(defaultBranchNotFoundMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// NonInteractiveEnvironment returns the environment applied to every git invocation so credential prompts never block.
func NonInteractiveEnvironment() map[string]string {
	return map[string]string{terminalPromptEnvironmentKeyConstant: terminalPromptDisabledValueConstant}
}

// RepositoryManager answers repository-level questions through the git CLI.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether the working tree has no staged, unstaged or untracked changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	output, statusError := manager.run(executionContext, repositoryPath, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return false, statusError
	}
	return len(output) == 0, nil
}

// GetCurrentBranch returns the checked-out branch, or HEAD when detached.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	return manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
}

// GetRemoteURL returns the fetch URL of the named remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	return manager.run(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitGetURLActionConstant, remoteName)
}

// ReferenceExists reports whether the reference resolves to a commit.
func (manager *RepositoryManager) ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error) {
	_, verifyError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference+commitPeelSuffixConstant)
	if verifyError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(verifyError, &failedError) {
		return false, nil
	}
	return false, verifyError
}

// ResolveRevision returns the commit hash a revision points to.
func (manager *RepositoryManager) ResolveRevision(executionContext context.Context, repositoryPath string, revision string) (string, error) {
	return manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitVerifyFlagConstant, revision+commitPeelSuffixConstant)
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (manager *RepositoryManager) IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error) {
	_, mergeBaseError := manager.run(executionContext, repositoryPath, gitMergeBaseSubcommandConstant, gitIsAncestorFlagConstant, ancestor, descendant)
	if mergeBaseError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(mergeBaseError, &failedError) && failedError.Result.ExitCode == notAncestorExitCodeConstant {
		return false, nil
	}
	return false, mergeBaseError
}

// RemoteDefaultBranch returns the branch the remote's HEAD points to, falling back to main and master.
func (manager *RepositoryManager) RemoteDefaultBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	symbolicTarget, symbolicError := manager.run(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, fmt.Sprintf(remoteHeadReferenceTemplateConstant, remoteName))
	if symbolicError == nil && len(symbolicTarget) > 0 {
		branchName := strings.TrimPrefix(symbolicTarget, fmt.Sprintf(shortRemoteBranchPrefixTemplate, remoteName))
		return strings.TrimPrefix(branchName, fmt.Sprintf(remoteReferencePrefixTemplateConstant, remoteName)), nil
	}
	if executionContext.Err() != nil {
		return "", executionContext.Err()
	}

	for _, candidateBranch := range fallbackDefaultBranchNames {
		exists, existsError := manager.ReferenceExists(executionContext, repositoryPath, fmt.Sprintf(remoteBranchReferenceTemplateConstant, remoteName, candidateBranch))
		if existsError != nil {
			return "", existsError
		}
		if exists {
			return candidateBranch, nil
		}
	}

	return "", fmt.Errorf(defaultBranchNotFoundTemplateConstant, ErrDefaultBranchNotFound, remoteName)
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "", ErrRepositoryPathRequired
	}
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     trimmedPath,
		EnvironmentVariables: NonInteractiveEnvironment(),
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}
