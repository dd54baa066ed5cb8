// Package refresh fast-forwards a checkout to its upstream branch without ever rewriting local history.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/workspace/internal/execshell"
	"github.com/temirov/workspace/internal/gitrepo"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	repositoryPathRequiredMessageConstant   = "repository path must be provided"
	branchNameRequiredMessageConstant       = "branch name must be provided"
	gitExecutorMissingMessageConstant       = "git executor not configured"
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	upstreamMissingMessageConstant          = "upstream branch not found"
	upstreamMissingTemplateConstant         = "%w: %s"
	divergedTemplateConstant                = "%s has diverged from %s"
	mergeBlockedTemplateConstant            = "fast-forward to %s blocked"
	headLookupFailureTemplateConstant       = "failed to resolve HEAD: %w"
	upstreamLookupFailureTemplateConstant   = "failed to resolve %s: %w"
	ancestryFailureTemplateConstant         = "failed to compare HEAD with %s: %w"
	remoteBranchReferenceTemplateConstant   = "refs/remotes/%s/%s"
	remoteBranchShortTemplateConstant       = "%s/%s"
	gitHeadReferenceConstant                = "HEAD"
	gitMergeSubcommandConstant              = "merge"
	gitMergeFastForwardOnlyFlagConstant     = "--ff-only"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name option was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrUpstreamMissing indicates the branch has no remote-tracking counterpart.
var ErrUpstreamMissing = errors.New(upstreamMissingMessageConstant)

// Dependencies enumerates external collaborators required for refresh operations.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
}

// Options configures a refresh. WorkspaceName and RepositoryName only label errors.
type Options struct {
	RepositoryPath string
	BranchName     string
	RemoteName     string
	WorkspaceName  string
	RepositoryName string
}

// Outcome describes what a successful refresh did.
type Outcome int

const (
	// OutcomeUpToDate means HEAD already matched the upstream.
	OutcomeUpToDate Outcome = iota
	// OutcomeAhead means HEAD contains the upstream plus local commits.
	OutcomeAhead
	// OutcomeFastForwarded means HEAD moved forward to the upstream.
	OutcomeFastForwarded
)

// String returns the label used in sync reports.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeUpToDate:
		return "up to date"
	case OutcomeAhead:
		return "ahead of upstream"
	case OutcomeFastForwarded:
		return "fast-forwarded"
	default:
		return "unknown"
	}
}

// Result captures the observable outcomes of a refresh.
type Result struct {
	RepositoryPath string
	BranchName     string
	PreviousHead   string
	CurrentHead    string
	Outcome        Outcome
}

// Service fast-forwards checkouts through git.
type Service struct {
	executor          shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &Service{executor: dependencies.GitExecutor, repositoryManager: dependencies.RepositoryManager}, nil
}

// Refresh fast-forwards the checkout to <remote>/<branch>. A missing upstream yields ErrUpstreamMissing;
// divergence or a merge blocked by local changes yields a SyncConflictError with the tree untouched.
func (service *Service) Refresh(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}
	trimmedBranchName := strings.TrimSpace(options.BranchName)
	if len(trimmedBranchName) == 0 {
		return Result{}, ErrBranchNameRequired
	}
	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = shared.OriginRemoteNameConstant
	}

	result := Result{RepositoryPath: trimmedRepositoryPath, BranchName: trimmedBranchName}
	upstreamReference := fmt.Sprintf(remoteBranchReferenceTemplateConstant, remoteName, trimmedBranchName)
	upstreamLabel := fmt.Sprintf(remoteBranchShortTemplateConstant, remoteName, trimmedBranchName)

	upstreamExists, existsError := service.repositoryManager.ReferenceExists(executionContext, trimmedRepositoryPath, upstreamReference)
	if existsError != nil {
		return result, fmt.Errorf(upstreamLookupFailureTemplateConstant, upstreamLabel, existsError)
	}
	if !upstreamExists {
		return result, fmt.Errorf(upstreamMissingTemplateConstant, ErrUpstreamMissing, upstreamLabel)
	}

	headHash, headError := service.repositoryManager.ResolveRevision(executionContext, trimmedRepositoryPath, gitHeadReferenceConstant)
	if headError != nil {
		return result, fmt.Errorf(headLookupFailureTemplateConstant, headError)
	}
	upstreamHash, upstreamError := service.repositoryManager.ResolveRevision(executionContext, trimmedRepositoryPath, upstreamReference)
	if upstreamError != nil {
		return result, fmt.Errorf(upstreamLookupFailureTemplateConstant, upstreamLabel, upstreamError)
	}
	result.PreviousHead = headHash
	result.CurrentHead = headHash

	if headHash == upstreamHash {
		result.Outcome = OutcomeUpToDate
		return result, nil
	}

	fastForwardable, ancestryError := service.repositoryManager.IsAncestor(executionContext, trimmedRepositoryPath, headHash, upstreamHash)
	if ancestryError != nil {
		return result, fmt.Errorf(ancestryFailureTemplateConstant, upstreamLabel, ancestryError)
	}
	if !fastForwardable {
		upstreamBehind, behindError := service.repositoryManager.IsAncestor(executionContext, trimmedRepositoryPath, upstreamHash, headHash)
		if behindError != nil {
			return result, fmt.Errorf(ancestryFailureTemplateConstant, upstreamLabel, behindError)
		}
		if upstreamBehind {
			result.Outcome = OutcomeAhead
			return result, nil
		}
		return result, repoerrors.NewSyncConflictError(options.WorkspaceName, options.RepositoryName, fmt.Sprintf(divergedTemplateConstant, trimmedBranchName, upstreamLabel), nil)
	}

	if _, mergeError := service.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitMergeSubcommandConstant, gitMergeFastForwardOnlyFlagConstant, upstreamLabel},
		WorkingDirectory:     trimmedRepositoryPath,
		EnvironmentVariables: gitrepo.NonInteractiveEnvironment(),
	}); mergeError != nil {
		return result, repoerrors.NewSyncConflictError(options.WorkspaceName, options.RepositoryName, fmt.Sprintf(mergeBlockedTemplateConstant, upstreamLabel), mergeError)
	}

	result.CurrentHead = upstreamHash
	result.Outcome = OutcomeFastForwarded
	return result, nil
}
