package workspaces

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/branches/refresh"
	"github.com/temirov/workspace/internal/checkouts"
	"github.com/temirov/workspace/internal/configstore"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	resolverMissingMessageConstant          = "workspace manager resolver not configured"
	storeMissingMessageConstant             = "workspace manager configuration store not configured"
	registryMissingMessageConstant          = "workspace manager registry not configured"
	inspectorMissingMessageConstant         = "workspace manager checkout inspector not configured"
	refresherMissingMessageConstant         = "workspace manager refresh service not configured"
	repositoryManagerMissingMessageConstant = "workspace manager repository manager not configured"
	discovererMissingMessageConstant        = "workspace manager discoverer not configured"
	fileSystemMissingMessageConstant        = "workspace manager file system not configured"
	confirmationRequiredMessageConstant     = "confirmation required"
	workspaceNotFoundMessageConstant        = "workspace not found"
	repositoryNotFoundMessageConstant       = "repository not configured for workspace"
	worktreesDirectoryRefusedMessage        = "refusing to operate on the worktrees directory itself"
	insideCheckoutTemplateConstant          = "workspace lies inside checkout %s"
	markerFilePermissions                   = 0o644
	directoryPermissions                    = 0o755
)

// ErrResolverNotConfigured indicates the manager was constructed without a resolver.
var ErrResolverNotConfigured = errors.New(resolverMissingMessageConstant)

// ErrStoreNotConfigured indicates the manager was constructed without a configuration store.
var ErrStoreNotConfigured = errors.New(storeMissingMessageConstant)

// ErrRegistryNotConfigured indicates the manager was constructed without a registry.
var ErrRegistryNotConfigured = errors.New(registryMissingMessageConstant)

// ErrInspectorNotConfigured indicates the manager was constructed without a checkout inspector.
var ErrInspectorNotConfigured = errors.New(inspectorMissingMessageConstant)

// ErrRefresherNotConfigured indicates the manager was constructed without a refresh service.
var ErrRefresherNotConfigured = errors.New(refresherMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the manager was constructed without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrDiscovererNotConfigured indicates the manager was constructed without a workspace discoverer.
var ErrDiscovererNotConfigured = errors.New(discovererMissingMessageConstant)

// ErrFileSystemNotConfigured indicates the manager was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// ErrConfirmationRequired indicates a destructive operation was invoked without confirmation.
var ErrConfirmationRequired = errors.New(confirmationRequiredMessageConstant)

// ConfigResolver resolves the ordered repository specs of a workspace.
type ConfigResolver interface {
	Resolve(executionContext context.Context, workspaceName string) ([]shared.RepositorySpec, error)
}

// RepositoryRegistry manages central repositories and checkout linkage.
type RepositoryRegistry interface {
	Central(repositoryName string) (shared.CentralRepository, bool)
	EnsureCentral(executionContext context.Context, spec shared.RepositorySpec, refresh bool) (shared.CentralRepository, error)
	FetchCentral(executionContext context.Context, central shared.CentralRepository) error
	LinkCheckout(executionContext context.Context, central shared.CentralRepository, workspaceName string, spec shared.RepositorySpec) (shared.RepositoryCheckout, error)
	UnlinkCheckout(executionContext context.Context, checkout shared.RepositoryCheckout) error
	PruneWorktrees(executionContext context.Context, centralPath string) error
	RemoteName() string
}

// CheckoutInspector classifies checkouts.
type CheckoutInspector interface {
	Inspect(executionContext context.Context, layout shared.Layout, workspaceName string, spec shared.RepositorySpec) (shared.RepositoryCheckout, checkouts.CheckoutMetadata)
}

// BranchRefresher fast-forwards tracking checkouts.
type BranchRefresher interface {
	Refresh(executionContext context.Context, options refresh.Options) (refresh.Result, error)
}

// Dependencies enumerates collaborators required by Manager.
type Dependencies struct {
	Resolver          ConfigResolver
	Store             configstore.Store
	Registry          RepositoryRegistry
	Inspector         CheckoutInspector
	Refresher         BranchRefresher
	RepositoryManager shared.GitRepositoryManager
	Discoverer        shared.WorkspaceDiscoverer
	FileSystem        shared.FileSystem
	Logger            *zap.Logger
}

// Manager drives workspace lifecycle operations over one workspace root.
type Manager struct {
	resolver          ConfigResolver
	store             configstore.Store
	registry          RepositoryRegistry
	inspector         CheckoutInspector
	refresher         BranchRefresher
	repositoryManager shared.GitRepositoryManager
	discoverer        shared.WorkspaceDiscoverer
	fileSystem        shared.FileSystem
	logger            *zap.Logger
	layout            shared.Layout
	failurePolicy     shared.FailurePolicy
}

// NewManager validates dependencies and constructs a Manager for layout.
func NewManager(dependencies Dependencies, layout shared.Layout) (*Manager, error) {
	switch {
	case dependencies.Resolver == nil:
		return nil, ErrResolverNotConfigured
	case dependencies.Store == nil:
		return nil, ErrStoreNotConfigured
	case dependencies.Registry == nil:
		return nil, ErrRegistryNotConfigured
	case dependencies.Inspector == nil:
		return nil, ErrInspectorNotConfigured
	case dependencies.Refresher == nil:
		return nil, ErrRefresherNotConfigured
	case dependencies.RepositoryManager == nil:
		return nil, ErrRepositoryManagerNotConfigured
	case dependencies.Discoverer == nil:
		return nil, ErrDiscovererNotConfigured
	case dependencies.FileSystem == nil:
		return nil, ErrFileSystemNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		resolver:          dependencies.Resolver,
		store:             dependencies.Store,
		registry:          dependencies.Registry,
		inspector:         dependencies.Inspector,
		refresher:         dependencies.Refresher,
		repositoryManager: dependencies.RepositoryManager,
		discoverer:        dependencies.Discoverer,
		fileSystem:        dependencies.FileSystem,
		logger:            logger,
		layout:            layout,
		failurePolicy:     shared.FailureIsolate,
	}, nil
}

// Layout returns the on-disk layout the manager operates on.
func (manager *Manager) Layout() shared.Layout {
	return manager.layout
}

// WorkspaceExists reports whether the workspace directory exists and is a workspace: it carries the marker file
// or directly contains a checkout, and is not itself a checkout.
func (manager *Manager) WorkspaceExists(workspaceName string) bool {
	workspacePath := manager.layout.WorkspacePath(workspaceName)
	if !manager.directoryExists(workspacePath) || manager.isWorktreesDirectory(workspacePath) {
		return false
	}
	if manager.entryExists(filepath.Join(workspacePath, shared.GitMetadataEntryNameConstant)) {
		return false
	}
	if manager.entryExists(manager.layout.MarkerPath(workspaceName)) {
		return true
	}
	entries, readError := manager.fileSystem.ReadDir(workspacePath)
	if readError != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() && manager.entryExists(filepath.Join(workspacePath, entry.Name(), shared.GitMetadataEntryNameConstant)) {
			return true
		}
	}
	return false
}

// List returns the names of every workspace on disk, sorted.
func (manager *Manager) List(executionContext context.Context) ([]string, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	workspaceNames, discoveryError := manager.discoverer.DiscoverWorkspaces(manager.layout.WorktreesDirectory())
	if discoveryError != nil {
		return nil, repoerrors.Wrap(nil, "", "", repoerrors.OperationListing, "", discoveryError)
	}
	return workspaceNames, nil
}

// CurrentWorkspace maps a directory beneath the worktrees directory to the deepest known workspace containing it.
func (manager *Manager) CurrentWorkspace(workingDirectory string) (string, error) {
	absolutePath, absoluteError := manager.fileSystem.Abs(workingDirectory)
	if absoluteError != nil {
		return "", repoerrors.NewNotInWorkspaceError(workingDirectory)
	}
	candidates := manager.layout.CandidateWorkspaceNames(absolutePath)
	if len(candidates) == 0 {
		return "", repoerrors.NewNotInWorkspaceError(workingDirectory)
	}

	knownWorkspaces, discoveryError := manager.discoverer.DiscoverWorkspaces(manager.layout.WorktreesDirectory())
	if discoveryError != nil {
		return "", repoerrors.Wrap(nil, "", "", repoerrors.OperationLocate, "", discoveryError)
	}
	knownSet := make(map[string]struct{}, len(knownWorkspaces))
	for _, workspaceName := range knownWorkspaces {
		knownSet[workspaceName] = struct{}{}
	}
	for candidateIndex := len(candidates) - 1; candidateIndex >= 0; candidateIndex-- {
		if _, known := knownSet[candidates[candidateIndex]]; known {
			return candidates[candidateIndex], nil
		}
	}
	return "", repoerrors.NewNotInWorkspaceError(workingDirectory)
}

func (manager *Manager) requireWorkspace(workspaceName string, operation repoerrors.Operation) error {
	if validationError := shared.ValidateWorkspaceName(workspaceName); validationError != nil {
		return validationError
	}
	if !manager.WorkspaceExists(workspaceName) {
		return repoerrors.NewNotFoundError(workspaceName, "", operation, workspaceNotFoundMessageConstant)
	}
	return nil
}

// enclosingCheckout returns the checkout directory the workspace path lies in, the path itself included.
func (manager *Manager) enclosingCheckout(workspaceName string) (string, bool) {
	for _, candidateName := range manager.layout.CandidateWorkspaceNames(manager.layout.WorkspacePath(workspaceName)) {
		candidatePath := manager.layout.WorkspacePath(candidateName)
		if manager.entryExists(filepath.Join(candidatePath, shared.GitMetadataEntryNameConstant)) {
			return candidatePath, true
		}
	}
	return "", false
}

func (manager *Manager) ensureWorkspaceDirectory(workspaceName string) (bool, error) {
	workspacePath := manager.layout.WorkspacePath(workspaceName)
	if manager.isWorktreesDirectory(workspacePath) {
		return false, repoerrors.NewConfigError(workspaceName, repoerrors.OperationSwitch, worktreesDirectoryRefusedMessage, nil)
	}
	if checkoutPath, inside := manager.enclosingCheckout(workspaceName); inside {
		return false, repoerrors.Wrap(repoerrors.ErrLinkConflict, workspaceName, "", repoerrors.OperationSwitch, fmt.Sprintf(insideCheckoutTemplateConstant, checkoutPath), nil)
	}
	created := !manager.directoryExists(workspacePath)
	if mkdirError := manager.fileSystem.MkdirAll(workspacePath, directoryPermissions); mkdirError != nil {
		return created, repoerrors.Wrap(nil, workspaceName, "", repoerrors.OperationSwitch, "", mkdirError)
	}
	markerPath := manager.layout.MarkerPath(workspaceName)
	if _, statError := manager.fileSystem.Stat(markerPath); errors.Is(statError, fs.ErrNotExist) {
		if writeError := manager.fileSystem.WriteFile(markerPath, nil, markerFilePermissions); writeError != nil {
			return created, repoerrors.Wrap(nil, workspaceName, "", repoerrors.OperationSwitch, "", writeError)
		}
	}
	return created, nil
}

// removeWorkspaceDirectory deletes the workspace directory except nested workspaces, then prunes empty
// parents up to the worktrees directory.
func (manager *Manager) removeWorkspaceDirectory(workspaceName string) error {
	workspacePath := manager.layout.WorkspacePath(workspaceName)
	if manager.isWorktreesDirectory(workspacePath) {
		return repoerrors.NewConfigError(workspaceName, repoerrors.OperationClean, worktreesDirectoryRefusedMessage, nil)
	}
	entries, readError := manager.fileSystem.ReadDir(workspacePath)
	if readError != nil && !errors.Is(readError, fs.ErrNotExist) {
		return readError
	}
	for _, entry := range entries {
		entryPath := filepath.Join(workspacePath, entry.Name())
		if entry.IsDir() {
			if _, markerError := manager.fileSystem.Stat(filepath.Join(entryPath, shared.WorkspaceMarkerFileNameConstant)); markerError == nil {
				continue
			}
		}
		if removalError := manager.fileSystem.RemoveAll(entryPath); removalError != nil {
			return removalError
		}
	}
	if removalError := manager.fileSystem.Remove(workspacePath); removalError != nil && !errors.Is(removalError, fs.ErrNotExist) {
		manager.logger.Debug(removalError.Error())
		return nil
	}
	manager.pruneEmptyParents(filepath.Dir(workspacePath))
	return nil
}

func (manager *Manager) isWorktreesDirectory(directoryPath string) bool {
	return filepath.Clean(directoryPath) == filepath.Clean(manager.layout.WorktreesDirectory())
}

func (manager *Manager) directoryExists(directoryPath string) bool {
	info, statError := manager.fileSystem.Stat(directoryPath)
	return statError == nil && info.IsDir()
}

func (manager *Manager) entryExists(entryPath string) bool {
	_, statError := manager.fileSystem.Lstat(entryPath)
	return statError == nil
}

func (manager *Manager) pruneEmptyParents(directoryPath string) {
	worktreesDirectory := manager.layout.WorktreesDirectory()
	for current := filepath.Clean(directoryPath); strings.HasPrefix(current, worktreesDirectory+string(filepath.Separator)); current = filepath.Dir(current) {
		entries, readError := manager.fileSystem.ReadDir(current)
		if readError != nil || len(entries) > 0 {
			return
		}
		if removalError := manager.fileSystem.Remove(current); removalError != nil {
			return
		}
	}
}
