// Package status reports the read-only health of every workspace and checkout.
package status

import (
	"context"
	"errors"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/checkouts"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	resolverMissingMessageConstant          = "status resolver not configured"
	inspectorMissingMessageConstant         = "status inspector not configured"
	repositoryManagerMissingMessageConstant = "status repository manager not configured"
	discovererMissingMessageConstant        = "status discoverer not configured"
	detachedLabelPrefixConstant             = "detached@"
	shortHashLengthConstant                 = 7
	resolveFailedLogConstant                = "Failed to resolve workspace configuration"
	workspaceLogFieldConstant               = "workspace"
)

var fullHashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ErrResolverNotConfigured indicates the reporter was constructed without a resolver.
var ErrResolverNotConfigured = errors.New(resolverMissingMessageConstant)

// ErrInspectorNotConfigured indicates the reporter was constructed without an inspector.
var ErrInspectorNotConfigured = errors.New(inspectorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the reporter was constructed without a repository manager.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrDiscovererNotConfigured indicates the reporter was constructed without a discoverer.
var ErrDiscovererNotConfigured = errors.New(discovererMissingMessageConstant)

// ConfigResolver resolves the ordered repository specs of a workspace.
type ConfigResolver interface {
	Resolve(executionContext context.Context, workspaceName string) ([]shared.RepositorySpec, error)
}

// CheckoutInspector classifies checkouts.
type CheckoutInspector interface {
	Inspect(executionContext context.Context, layout shared.Layout, workspaceName string, spec shared.RepositorySpec) (shared.RepositoryCheckout, checkouts.CheckoutMetadata)
}

// RepositoryStatus is the state of one checkout.
type RepositoryStatus struct {
	Name         string
	RefLabel     string
	Dirty        bool
	State        shared.CheckoutState
	BrokenReason string
	Configured   bool
	Err          error
}

// WorkspaceStatus groups the checkouts of one workspace. Err carries a configuration failure.
type WorkspaceStatus struct {
	Name         string
	Repositories []RepositoryStatus
	Err          error
}

// Dependencies enumerates collaborators required by Reporter.
type Dependencies struct {
	Resolver          ConfigResolver
	Inspector         CheckoutInspector
	RepositoryManager shared.GitRepositoryManager
	Discoverer        shared.WorkspaceDiscoverer
	Logger            *zap.Logger
}

// Reporter collects workspace status without changing anything on disk.
type Reporter struct {
	resolver          ConfigResolver
	inspector         CheckoutInspector
	repositoryManager shared.GitRepositoryManager
	discoverer        shared.WorkspaceDiscoverer
	logger            *zap.Logger
	layout            shared.Layout
}

// NewReporter validates dependencies and constructs a Reporter for layout.
func NewReporter(dependencies Dependencies, layout shared.Layout) (*Reporter, error) {
	switch {
	case dependencies.Resolver == nil:
		return nil, ErrResolverNotConfigured
	case dependencies.Inspector == nil:
		return nil, ErrInspectorNotConfigured
	case dependencies.RepositoryManager == nil:
		return nil, ErrRepositoryManagerNotConfigured
	case dependencies.Discoverer == nil:
		return nil, ErrDiscovererNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		resolver:          dependencies.Resolver,
		inspector:         dependencies.Inspector,
		repositoryManager: dependencies.RepositoryManager,
		discoverer:        dependencies.Discoverer,
		logger:            logger,
		layout:            layout,
	}, nil
}

// Report returns the status of every workspace, sorted by name. Within a workspace configured
// repositories come first in configuration order, followed by unconfigured checkouts sorted by name.
func (reporter *Reporter) Report(executionContext context.Context) ([]WorkspaceStatus, error) {
	workspaceNames, discoveryError := reporter.discoverer.DiscoverWorkspaces(reporter.layout.WorktreesDirectory())
	if discoveryError != nil {
		return nil, discoveryError
	}
	sort.Strings(workspaceNames)

	statuses := make([]WorkspaceStatus, 0, len(workspaceNames))
	for _, workspaceName := range workspaceNames {
		if contextError := executionContext.Err(); contextError != nil {
			return statuses, contextError
		}
		statuses = append(statuses, reporter.reportWorkspace(executionContext, workspaceName))
	}
	return statuses, nil
}

func (reporter *Reporter) reportWorkspace(executionContext context.Context, workspaceName string) WorkspaceStatus {
	workspaceStatus := WorkspaceStatus{Name: workspaceName}

	specs, resolveError := reporter.resolver.Resolve(executionContext, workspaceName)
	if resolveError != nil {
		reporter.logger.Debug(resolveFailedLogConstant, zap.String(workspaceLogFieldConstant, workspaceName), zap.Error(resolveError))
		workspaceStatus.Err = resolveError
	}

	configured := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		configured[spec.Name] = struct{}{}
		workspaceStatus.Repositories = append(workspaceStatus.Repositories, reporter.reportRepository(executionContext, workspaceName, spec, true))
	}

	onDisk, discoveryError := reporter.discoverer.DiscoverCheckouts(reporter.layout.WorkspacePath(workspaceName))
	if discoveryError != nil {
		workspaceStatus.Err = errors.Join(workspaceStatus.Err, discoveryError)
		return workspaceStatus
	}
	sort.Strings(onDisk)
	for _, repositoryName := range onDisk {
		if _, known := configured[repositoryName]; known {
			continue
		}
		workspaceStatus.Repositories = append(workspaceStatus.Repositories, reporter.reportRepository(executionContext, workspaceName, shared.RepositorySpec{Name: repositoryName}, false))
	}
	return workspaceStatus
}

func (reporter *Reporter) reportRepository(executionContext context.Context, workspaceName string, spec shared.RepositorySpec, configured bool) RepositoryStatus {
	checkout, metadata := reporter.inspector.Inspect(executionContext, reporter.layout, workspaceName, spec)
	repositoryStatus := RepositoryStatus{
		Name:         spec.Name,
		State:        checkout.State,
		BrokenReason: checkout.BrokenReason,
		Configured:   configured,
	}
	if !checkout.State.IsHealthy() {
		return repositoryStatus
	}

	repositoryStatus.RefLabel = RefLabel(spec, metadata, checkout.State)
	clean, cleanError := reporter.repositoryManager.CheckCleanWorktree(executionContext, checkout.Path)
	if cleanError != nil {
		repositoryStatus.Err = cleanError
		return repositoryStatus
	}
	repositoryStatus.Dirty = !clean
	return repositoryStatus
}

// RefLabel names what a healthy checkout points at: its branch, its pinned reference, or
// detached@<short hash>. Full hashes are shortened.
func RefLabel(spec shared.RepositorySpec, metadata checkouts.CheckoutMetadata, state shared.CheckoutState) string {
	switch {
	case state == shared.CheckoutPinned:
		return shortenHash(spec.PinnedRef)
	case metadata.Detached:
		return detachedLabelPrefixConstant + shortenHash(metadata.HeadHash)
	default:
		return metadata.BranchName
	}
}

func shortenHash(reference string) string {
	if fullHashPattern.MatchString(reference) {
		return reference[:shortHashLengthConstant]
	}
	return reference
}
