package workspaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/workspace/internal/branches/refresh"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	notCheckedOutMessageConstant      = "not checked out; run switch"
	pinnedSkipTemplateConstant        = "pinned at %s"
	detachedSkipMessageConstant       = "detached HEAD without a pin"
	branchWhilePinnedTemplateConstant = "on branch %s while pinned at %s"
	noUpstreamTemplateConstant        = "no upstream %s/%s"
	brokenSyncTemplateConstant        = "broken: %s"
	centralMissingSyncMessageConstant = "central repository missing"
	fastForwardedTemplateConstant     = "fast-forwarded %s"
	remoteBranchTemplateConstant      = "%s/%s"
)

// Sync fetches the central repository of every tracking checkout once and fast-forwards the checkout.
// Pinned, detached and missing checkouts are skipped with a message; divergence is a failure.
func (manager *Manager) Sync(executionContext context.Context, workspaceName string) (SyncReport, error) {
	report := SyncReport{BatchReport: BatchReport{
		Operation:     repoerrors.OperationSync,
		WorkspaceName: workspaceName,
		WorkspacePath: manager.layout.WorkspacePath(workspaceName),
	}}
	if workspaceError := manager.requireWorkspace(workspaceName, repoerrors.OperationSync); workspaceError != nil {
		return report, workspaceError
	}

	specs, resolveError := manager.resolver.Resolve(executionContext, workspaceName)
	if resolveError != nil {
		return report, resolveError
	}

	fetchResults := make(map[string]error)
	for _, spec := range specs {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}
		outcome := manager.syncRepository(executionContext, workspaceName, spec, fetchResults)
		report.record(outcome)
		if outcome.Kind == OutcomeFailed && !manager.failurePolicy.ContinueAfterFailure() {
			break
		}
	}

	return report, report.Err()
}

func (manager *Manager) syncRepository(executionContext context.Context, workspaceName string, spec shared.RepositorySpec, fetchResults map[string]error) RepositoryOutcome {
	checkout, metadata := manager.inspector.Inspect(executionContext, manager.layout, workspaceName, spec)
	outcome := RepositoryOutcome{Repository: spec.Name, Path: checkout.Path, Kind: OutcomeSkipped}

	switch {
	case checkout.State == shared.CheckoutAbsent:
		outcome.Message = notCheckedOutMessageConstant
		return outcome
	case checkout.State == shared.CheckoutBroken:
		outcome.Kind = OutcomeFailed
		outcome.Err = repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationSync, fmt.Sprintf(brokenSyncTemplateConstant, checkout.BrokenReason), nil)
		return outcome
	case checkout.State == shared.CheckoutPinned:
		outcome.Message = fmt.Sprintf(pinnedSkipTemplateConstant, spec.PinnedRef)
		return outcome
	case checkout.State == shared.CheckoutLinked && metadata.Detached:
		outcome.Message = detachedSkipMessageConstant
		return outcome
	case checkout.State == shared.CheckoutLinked:
		outcome.Message = fmt.Sprintf(branchWhilePinnedTemplateConstant, metadata.BranchName, spec.PinnedRef)
		return outcome
	}

	central, centralExists := manager.registry.Central(spec.Name)
	if !centralExists {
		outcome.Kind = OutcomeFailed
		outcome.Err = repoerrors.Wrap(nil, workspaceName, spec.Name, repoerrors.OperationSync, centralMissingSyncMessageConstant, nil)
		return outcome
	}
	fetchError, fetched := fetchResults[central.Path]
	if !fetched {
		fetchError = manager.registry.FetchCentral(executionContext, central)
		fetchResults[central.Path] = fetchError
	}
	if fetchError != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = fetchError
		return outcome
	}

	branchName := metadata.BranchName
	if len(branchName) == 0 {
		branchName = spec.EffectiveBranch(workspaceName)
	}
	result, refreshError := manager.refresher.Refresh(executionContext, refresh.Options{
		RepositoryPath: checkout.Path,
		BranchName:     branchName,
		RemoteName:     manager.registry.RemoteName(),
		WorkspaceName:  workspaceName,
		RepositoryName: spec.Name,
	})
	if errors.Is(refreshError, refresh.ErrUpstreamMissing) {
		outcome.Message = fmt.Sprintf(noUpstreamTemplateConstant, manager.registry.RemoteName(), branchName)
		return outcome
	}
	if refreshError != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = refreshError
		return outcome
	}

	outcome.Message = result.Outcome.String()
	outcome.Kind = OutcomeUnchanged
	if result.Outcome == refresh.OutcomeFastForwarded {
		outcome.Kind = OutcomeUpdated
		outcome.Message = fmt.Sprintf(fastForwardedTemplateConstant, fmt.Sprintf(remoteBranchTemplateConstant, manager.registry.RemoteName(), branchName))
	}
	return outcome
}
