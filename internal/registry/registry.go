// Package registry owns central repositories and links workspace checkouts to them as git worktrees.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/execshell"
	"github.com/temirov/workspace/internal/gitrepo"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	gitCloneSubcommandConstant             = "clone"
	gitNoCheckoutFlagConstant              = "--no-checkout"
	gitFetchSubcommandConstant             = "fetch"
	gitPruneFlagConstant                   = "--prune"
	gitWorktreeSubcommandConstant          = "worktree"
	gitWorktreeAddActionConstant           = "add"
	gitWorktreeRemoveActionConstant        = "remove"
	gitWorktreePruneActionConstant         = "prune"
	gitForceFlagConstant                   = "--force"
	gitTrackFlagConstant                   = "--track"
	gitNoTrackFlagConstant                 = "--no-track"
	gitBranchCreationFlagConstant          = "-b"
	gitDetachFlagConstant                  = "--detach"
	gitWorktreeListActionConstant          = "list"
	gitPorcelainFlagConstant               = "--porcelain"
	gitBranchSubcommandConstant            = "branch"
	gitSymbolicRefSubcommandConstant       = "symbolic-ref"
	gitUpdateRefSubcommandConstant         = "update-ref"
	gitNoDerefFlagConstant                 = "--no-deref"
	gitQuietFlagConstant                   = "--quiet"
	gitHeadReferenceConstant               = "HEAD"
	worktreeListPathPrefixConstant         = "worktree "
	worktreeListBranchPrefixConstant       = "branch "
	localBranchReferenceTemplateConstant   = "refs/heads/%s"
	remoteBranchReferenceTemplateConstant  = "refs/remotes/%s/%s"
	remoteBranchShortTemplateConstant      = "%s/%s"
	directoryPermissions                   = 0o755
	executorNotConfiguredMessageConstant   = "registry git executor not configured"
	managerNotConfiguredMessageConstant    = "registry repository manager not configured"
	fileSystemNotConfiguredMessageConstant = "registry file system not configured"
	rootNotConfiguredMessageConstant       = "registry workspace root not configured"
	centralPreparationMessageConstant      = "unable to prepare central repository directory"
	centralMismatchLogMessageConstant      = "central repository origin differs from configured url; reusing it"
	stagingCleanupLogMessageConstant       = "removed interrupted clone"
	worktreeAddFailureMessageConstant      = "unable to add worktree"
	branchInUseTemplateConstant            = "branch %s is checked out at %s"
	centralHeadDetachMessageConstant       = "unable to detach central repository HEAD"
	fastForwardLogMessageConstant          = "fast-forwarded local branch to remote"
	logFieldBranchConstant                 = "branch"
	worktreeRemoveFallbackLogMessage       = "worktree removal failed; deleting directory"
	checkoutRemovalFailureMessageConstant  = "unable to remove checkout directory"
	logFieldRepositoryConstant             = "repository"
	logFieldConfiguredURLConstant          = "configured_url"
	logFieldOriginURLConstant              = "origin_url"
	logFieldPathConstant                   = "path"
)

// ErrGitExecutorNotConfigured indicates the registry was constructed without a git executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the registry was constructed without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// ErrFileSystemNotConfigured indicates the registry was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// ErrRootNotConfigured indicates the registry was constructed without a layout root.
var ErrRootNotConfigured = errors.New(rootNotConfiguredMessageConstant)

// Dependencies enumerates collaborators required by the registry.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
	FileSystem        shared.FileSystem
	Logger            *zap.Logger
}

// Registry manages central repositories under repos/ and their linked checkouts under worktrees/.
type Registry struct {
	gitExecutor       shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
	fileSystem        shared.FileSystem
	logger            *zap.Logger
	layout            shared.Layout
	remoteName        string
}

// NewRegistry constructs a Registry for layout. An empty remoteName selects origin.
func NewRegistry(dependencies Dependencies, layout shared.Layout, remoteName string) (*Registry, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if len(strings.TrimSpace(layout.RootPath)) == 0 {
		return nil, ErrRootNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		remoteName = shared.OriginRemoteNameConstant
	}
	return &Registry{
		gitExecutor:       dependencies.GitExecutor,
		repositoryManager: dependencies.RepositoryManager,
		fileSystem:        dependencies.FileSystem,
		logger:            logger,
		layout:            layout,
		remoteName:        remoteName,
	}, nil
}

// Central returns the central repository of a name and whether it exists on disk.
func (registry *Registry) Central(repositoryName string) (shared.CentralRepository, bool) {
	centralPath := registry.layout.CentralPath(repositoryName)
	central := shared.CentralRepository{Name: repositoryName, Path: centralPath}
	info, statError := registry.fileSystem.Stat(centralPath)
	return central, statError == nil && info.IsDir()
}

// EnsureCentral returns the central repository for spec, cloning it when missing. An existing central is
// fetched when refresh is set. Clone and fetch failures are NetworkErrors.
func (registry *Registry) EnsureCentral(executionContext context.Context, spec shared.RepositorySpec, refresh bool) (shared.CentralRepository, error) {
	central, exists := registry.Central(spec.Name)
	central.URL = spec.URL

	if exists {
		registry.warnOnOriginMismatch(executionContext, central)
		if refresh {
			if fetchError := registry.FetchCentral(executionContext, central); fetchError != nil {
				return central, fetchError
			}
		}
		return central, nil
	}

	if cloneError := registry.clone(executionContext, spec, central.Path); cloneError != nil {
		return central, cloneError
	}
	return central, nil
}

// FetchCentral updates the central repository's remote-tracking references.
func (registry *Registry) FetchCentral(executionContext context.Context, central shared.CentralRepository) error {
	_, fetchError := registry.runGit(executionContext, central.Path, gitFetchSubcommandConstant, gitPruneFlagConstant, registry.remoteName)
	if fetchError != nil {
		return repoerrors.NewNetworkError(central.Name, repoerrors.OperationFetch, fetchError)
	}
	return nil
}

// LinkCheckout creates the checkout of spec inside the workspace. An existing checkout is returned untouched;
// a non-empty directory that is not a checkout is a LinkConflictError.
func (registry *Registry) LinkCheckout(executionContext context.Context, central shared.CentralRepository, workspaceName string, spec shared.RepositorySpec) (shared.RepositoryCheckout, error) {
	checkout := shared.RepositoryCheckout{
		Path:        registry.layout.CheckoutPath(workspaceName, spec.Name),
		Spec:        spec,
		State:       shared.CheckoutAbsent,
		CentralPath: central.Path,
	}

	occupied, occupancyError := registry.inspectCheckoutPath(workspaceName, spec.Name, checkout.Path)
	if occupancyError != nil {
		return checkout, occupancyError
	}
	if occupied {
		checkout.State = shared.CheckoutLinked
		return checkout, nil
	}

	if mkdirError := registry.fileSystem.MkdirAll(filepath.Dir(checkout.Path), directoryPermissions); mkdirError != nil {
		return checkout, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, worktreeAddFailureMessageConstant, mkdirError)
	}
	if pruneError := registry.PruneWorktrees(executionContext, central.Path); pruneError != nil {
		return checkout, pruneError
	}

	if spec.IsPinned() {
		return registry.linkPinned(executionContext, central, workspaceName, spec, checkout)
	}

	if detachError := registry.detachCentralHead(executionContext, central.Path); detachError != nil {
		return checkout, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, centralHeadDetachMessageConstant, detachError)
	}
	worktreeArguments, argumentsError := registry.worktreeAddArguments(executionContext, central, workspaceName, spec, checkout.Path)
	if argumentsError != nil {
		return checkout, argumentsError
	}
	if _, addError := registry.runGit(executionContext, central.Path, worktreeArguments...); addError != nil {
		return checkout, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, worktreeAddFailureMessageConstant, addError)
	}
	checkout.State = shared.CheckoutTracking
	return checkout, nil
}

func (registry *Registry) linkPinned(executionContext context.Context, central shared.CentralRepository, workspaceName string, spec shared.RepositorySpec, checkout shared.RepositoryCheckout) (shared.RepositoryCheckout, error) {
	pinnedExists, lookupError := registry.repositoryManager.ReferenceExists(executionContext, central.Path, spec.PinnedRef)
	if lookupError != nil {
		return checkout, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationPin, "", lookupError)
	}
	if !pinnedExists {
		return checkout, repoerrors.NewRefNotFoundError(workspaceName, spec.Name, spec.PinnedRef, nil)
	}
	if _, addError := registry.runGit(executionContext, central.Path, gitWorktreeSubcommandConstant, gitWorktreeAddActionConstant, gitDetachFlagConstant, checkout.Path, spec.PinnedRef); addError != nil {
		return checkout, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationPin, worktreeAddFailureMessageConstant, addError)
	}
	checkout.State = shared.CheckoutPinned
	return checkout, nil
}

// UnlinkCheckout removes a checkout and its worktree registration. The central object store is never touched.
func (registry *Registry) UnlinkCheckout(executionContext context.Context, checkout shared.RepositoryCheckout) error {
	centralPath := checkout.CentralPath
	if len(centralPath) == 0 {
		centralPath = registry.layout.CentralPath(checkout.Spec.Name)
	}

	if info, statError := registry.fileSystem.Stat(centralPath); statError == nil && info.IsDir() {
		if _, removeError := registry.runGit(executionContext, centralPath, gitWorktreeSubcommandConstant, gitWorktreeRemoveActionConstant, gitForceFlagConstant, checkout.Path); removeError != nil {
			registry.logger.Debug(worktreeRemoveFallbackLogMessage, zap.String(logFieldPathConstant, checkout.Path), zap.Error(removeError))
		}
		if removalError := registry.fileSystem.RemoveAll(checkout.Path); removalError != nil {
			return repoerrors.Wrap(nil, "", checkout.Spec.Name, repoerrors.OperationUnlink, checkoutRemovalFailureMessageConstant, removalError)
		}
		return registry.PruneWorktrees(executionContext, centralPath)
	}

	if removalError := registry.fileSystem.RemoveAll(checkout.Path); removalError != nil {
		return repoerrors.Wrap(nil, "", checkout.Spec.Name, repoerrors.OperationUnlink, checkoutRemovalFailureMessageConstant, removalError)
	}
	return nil
}

// PruneWorktrees drops worktree registrations whose directories no longer exist.
func (registry *Registry) PruneWorktrees(executionContext context.Context, centralPath string) error {
	if _, pruneError := registry.runGit(executionContext, centralPath, gitWorktreeSubcommandConstant, gitWorktreePruneActionConstant); pruneError != nil {
		return repoerrors.Wrap(nil, "", filepath.Base(centralPath), repoerrors.OperationUnlink, "", pruneError)
	}
	return nil
}

// RemoteName returns the remote centrals are cloned from.
func (registry *Registry) RemoteName() string {
	return registry.remoteName
}

// worktreeAddArguments selects how the checkout's branch is created. An existing local branch is reused after a
// fast-forward to its remote counterpart and must not be checked out by another workspace.
func (registry *Registry) worktreeAddArguments(executionContext context.Context, central shared.CentralRepository, workspaceName string, spec shared.RepositorySpec, checkoutPath string) ([]string, error) {
	branchName := spec.EffectiveBranch(workspaceName)
	remoteReference := fmt.Sprintf(remoteBranchReferenceTemplateConstant, registry.remoteName, branchName)

	localExists, localError := registry.repositoryManager.ReferenceExists(executionContext, central.Path, fmt.Sprintf(localBranchReferenceTemplateConstant, branchName))
	if localError != nil {
		return nil, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, "", localError)
	}
	if localExists {
		holderPath, held, holderError := registry.branchHolder(executionContext, central.Path, branchName)
		if holderError != nil {
			return nil, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, "", holderError)
		}
		if held {
			return nil, repoerrors.Wrap(repoerrors.ErrLinkConflict, workspaceName, spec.Name, repoerrors.OperationLink, fmt.Sprintf(branchInUseTemplateConstant, branchName, holderPath), nil)
		}
		if forwardError := registry.fastForwardLocalBranch(executionContext, central.Path, branchName, remoteReference); forwardError != nil {
			return nil, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, "", forwardError)
		}
		return []string{gitWorktreeSubcommandConstant, gitWorktreeAddActionConstant, checkoutPath, branchName}, nil
	}

	remoteExists, remoteError := registry.repositoryManager.ReferenceExists(executionContext, central.Path, remoteReference)
	if remoteError != nil {
		return nil, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, "", remoteError)
	}
	if remoteExists {
		return []string{
			gitWorktreeSubcommandConstant, gitWorktreeAddActionConstant, gitTrackFlagConstant,
			gitBranchCreationFlagConstant, branchName, checkoutPath, fmt.Sprintf(remoteBranchShortTemplateConstant, registry.remoteName, branchName),
		}, nil
	}

	defaultBranch, defaultError := registry.repositoryManager.RemoteDefaultBranch(executionContext, central.Path, registry.remoteName)
	if defaultError != nil {
		if errors.Is(defaultError, gitrepo.ErrDefaultBranchNotFound) {
			return nil, repoerrors.NewRefNotFoundError(workspaceName, spec.Name, branchName, defaultError)
		}
		return nil, repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationLink, "", defaultError)
	}
	return []string{
		gitWorktreeSubcommandConstant, gitWorktreeAddActionConstant, gitNoTrackFlagConstant,
		gitBranchCreationFlagConstant, branchName, checkoutPath, fmt.Sprintf(remoteBranchShortTemplateConstant, registry.remoteName, defaultBranch),
	}, nil
}

// branchHolder returns the worktree that has the branch checked out, if any.
func (registry *Registry) branchHolder(executionContext context.Context, centralPath string, branchName string) (string, bool, error) {
	listResult, listError := registry.runGit(executionContext, centralPath, gitWorktreeSubcommandConstant, gitWorktreeListActionConstant, gitPorcelainFlagConstant)
	if listError != nil {
		return "", false, listError
	}
	branchLine := worktreeListBranchPrefixConstant + fmt.Sprintf(localBranchReferenceTemplateConstant, branchName)
	worktreePath := ""
	for _, line := range strings.Split(listResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmedLine, worktreeListPathPrefixConstant):
			worktreePath = strings.TrimPrefix(trimmedLine, worktreeListPathPrefixConstant)
		case trimmedLine == branchLine:
			return worktreePath, true, nil
		}
	}
	return "", false, nil
}

// fastForwardLocalBranch moves a local branch to its remote counterpart when it is strictly behind it.
// Diverged branches keep their local commits.
func (registry *Registry) fastForwardLocalBranch(executionContext context.Context, centralPath string, branchName string, remoteReference string) error {
	remoteExists, remoteError := registry.repositoryManager.ReferenceExists(executionContext, centralPath, remoteReference)
	if remoteError != nil || !remoteExists {
		return remoteError
	}
	localReference := fmt.Sprintf(localBranchReferenceTemplateConstant, branchName)
	behind, ancestorError := registry.repositoryManager.IsAncestor(executionContext, centralPath, localReference, remoteReference)
	if ancestorError != nil || !behind {
		return ancestorError
	}
	if _, branchError := registry.runGit(executionContext, centralPath, gitBranchSubcommandConstant, gitForceFlagConstant, branchName, remoteReference); branchError != nil {
		return branchError
	}
	registry.logger.Debug(fastForwardLogMessageConstant, zap.String(logFieldPathConstant, centralPath), zap.String(logFieldBranchConstant, branchName))
	return nil
}

// detachCentralHead points the central repository's HEAD at its commit so no branch counts as checked out there.
// An unborn HEAD is left alone.
func (registry *Registry) detachCentralHead(executionContext context.Context, centralPath string) error {
	if _, symbolicError := registry.runGit(executionContext, centralPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitHeadReferenceConstant); symbolicError != nil {
		return nil
	}
	headCommit, resolveError := registry.repositoryManager.ResolveRevision(executionContext, centralPath, gitHeadReferenceConstant)
	if resolveError != nil || len(headCommit) == 0 {
		return nil
	}
	_, updateError := registry.runGit(executionContext, centralPath, gitUpdateRefSubcommandConstant, gitNoDerefFlagConstant, gitHeadReferenceConstant, headCommit)
	return updateError
}

func (registry *Registry) inspectCheckoutPath(workspaceName string, repositoryName string, checkoutPath string) (bool, error) {
	info, statError := registry.fileSystem.Lstat(checkoutPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, nil
		}
		return false, repoerrors.Wrap(nil, workspaceName, repositoryName, repoerrors.OperationLink, "", statError)
	}
	if !info.IsDir() {
		return false, repoerrors.NewLinkConflictError(workspaceName, repositoryName, checkoutPath)
	}
	if _, gitStatError := registry.fileSystem.Lstat(filepath.Join(checkoutPath, shared.GitMetadataEntryNameConstant)); gitStatError == nil {
		return true, nil
	}
	entries, readError := registry.fileSystem.ReadDir(checkoutPath)
	if readError != nil {
		return false, repoerrors.Wrap(nil, workspaceName, repositoryName, repoerrors.OperationLink, "", readError)
	}
	if len(entries) > 0 {
		return false, repoerrors.NewLinkConflictError(workspaceName, repositoryName, checkoutPath)
	}
	return false, nil
}

func (registry *Registry) clone(executionContext context.Context, spec shared.RepositorySpec, centralPath string) error {
	repositoriesDirectory := registry.layout.RepositoriesDirectory()
	if mkdirError := registry.fileSystem.MkdirAll(repositoriesDirectory, directoryPermissions); mkdirError != nil {
		return repoerrors.Wrap(nil, "", spec.Name, repoerrors.OperationClone, centralPreparationMessageConstant, mkdirError)
	}
	registry.removeInterruptedClones(spec.Name)

	stagingPath, stagingError := registry.fileSystem.MkdirTemp(repositoriesDirectory, registry.layout.StagingPattern(spec.Name))
	if stagingError != nil {
		return repoerrors.Wrap(nil, "", spec.Name, repoerrors.OperationClone, centralPreparationMessageConstant, stagingError)
	}

	if _, cloneError := registry.runGit(executionContext, repositoriesDirectory, gitCloneSubcommandConstant, gitNoCheckoutFlagConstant, spec.URL, stagingPath); cloneError != nil {
		_ = registry.fileSystem.RemoveAll(stagingPath)
		return repoerrors.NewNetworkError(spec.Name, repoerrors.OperationClone, cloneError)
	}

	if renameError := registry.fileSystem.Rename(stagingPath, centralPath); renameError != nil {
		_ = registry.fileSystem.RemoveAll(stagingPath)
		return repoerrors.Wrap(nil, "", spec.Name, repoerrors.OperationClone, centralPreparationMessageConstant, renameError)
	}
	return nil
}

func (registry *Registry) removeInterruptedClones(repositoryName string) {
	entries, readError := registry.fileSystem.ReadDir(registry.layout.RepositoriesDirectory())
	if readError != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() || !registry.layout.IsStagingEntry(repositoryName, entry.Name()) {
			continue
		}
		stagingPath := filepath.Join(registry.layout.RepositoriesDirectory(), entry.Name())
		if removalError := registry.fileSystem.RemoveAll(stagingPath); removalError == nil {
			registry.logger.Debug(stagingCleanupLogMessageConstant, zap.String(logFieldPathConstant, stagingPath))
		}
	}
}

func (registry *Registry) warnOnOriginMismatch(executionContext context.Context, central shared.CentralRepository) {
	originURL, originError := registry.repositoryManager.GetRemoteURL(executionContext, central.Path, registry.remoteName)
	if originError != nil || len(central.URL) == 0 {
		return
	}
	if !gitrepo.RemoteURLsEquivalent(originURL, central.URL) {
		registry.logger.Warn(centralMismatchLogMessageConstant,
			zap.String(logFieldRepositoryConstant, central.Name),
			zap.String(logFieldConfiguredURLConstant, central.URL),
			zap.String(logFieldOriginURLConstant, originURL),
		)
	}
}

func (registry *Registry) runGit(executionContext context.Context, workingDirectory string, arguments ...string) (execshell.ExecutionResult, error) {
	return registry.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: gitrepo.NonInteractiveEnvironment(),
	})
}
