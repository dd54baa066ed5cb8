package workspaces

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/checkouts"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	repairNothingMessageConstant         = "checkout is healthy; nothing to repair"
	repairStandaloneDirtyMessageConstant = "standalone clone has uncommitted changes"
	repairRemovedStandaloneStepConstant  = "removed standalone clone"
	repairMovedBrokenStepTemplate        = "moved broken checkout to %s"
	repairAsidePathTemplateConstant      = "%s.broken-%d"
	repairPrunedStepConstant             = "pruned stale worktree metadata"
	repairClonedStepConstant             = "cloned central repository"
	repairReusedStepConstant             = "reused central repository"
	repairLinkedStepTemplateConstant     = "linked %s"
	repairPinnedStepTemplateConstant     = "pinned %s"
	repairAbsentReasonConstant           = "checkout missing"
	repairStartedLogConstant             = "Repairing checkout"
	reasonLogFieldConstant               = "reason"
)

// Repair rebuilds one broken or missing checkout and relinks it in its configured mode.
// A standalone clone is only replaced when its working tree is clean. Any other broken checkout is moved aside
// to <path>.broken-<n> so files in it survive.
func (manager *Manager) Repair(executionContext context.Context, workspaceName string, repositoryName string) (RepairReport, error) {
	report := RepairReport{WorkspaceName: workspaceName, Repository: repositoryName}
	if workspaceError := manager.requireWorkspace(workspaceName, repoerrors.OperationRepair); workspaceError != nil {
		return report, workspaceError
	}

	specs, resolveError := manager.resolver.Resolve(executionContext, workspaceName)
	if resolveError != nil {
		return report, resolveError
	}
	spec, found := findSpec(specs, repositoryName)
	if !found {
		return report, repoerrors.NewNotFoundError(workspaceName, repositoryName, repoerrors.OperationRepair, repositoryNotFoundMessageConstant)
	}

	checkout, _ := manager.inspector.Inspect(executionContext, manager.layout, workspaceName, spec)
	report.Path = checkout.Path
	report.Reason = checkout.BrokenReason

	switch checkout.State {
	case shared.CheckoutAbsent:
		report.Reason = repairAbsentReasonConstant
	case shared.CheckoutBroken:
		manager.logger.Info(repairStartedLogConstant,
			zap.String(workspaceLogFieldConstant, workspaceName),
			zap.String(repositoryLogFieldConstant, repositoryName),
			zap.String(reasonLogFieldConstant, checkout.BrokenReason),
		)
		step, removalError := manager.removeBrokenCheckout(executionContext, workspaceName, checkout)
		if removalError != nil {
			return report, removalError
		}
		report.Steps = append(report.Steps, step)
	default:
		report.Steps = append(report.Steps, repairNothingMessageConstant)
		return report, nil
	}

	if central, centralExists := manager.registry.Central(spec.Name); centralExists {
		if pruneError := manager.registry.PruneWorktrees(executionContext, central.Path); pruneError == nil {
			report.Steps = append(report.Steps, repairPrunedStepConstant)
		}
		report.Steps = append(report.Steps, repairReusedStepConstant)
	} else {
		report.Steps = append(report.Steps, repairClonedStepConstant)
	}

	central, ensureError := manager.registry.EnsureCentral(executionContext, spec, false)
	if ensureError != nil {
		return report, ensureError
	}
	if _, linkError := manager.registry.LinkCheckout(executionContext, central, workspaceName, spec); linkError != nil {
		return report, linkError
	}

	if spec.IsPinned() {
		report.Steps = append(report.Steps, fmt.Sprintf(repairPinnedStepTemplateConstant, spec.Describe(workspaceName)))
	} else {
		report.Steps = append(report.Steps, fmt.Sprintf(repairLinkedStepTemplateConstant, spec.Describe(workspaceName)))
	}
	report.Repaired = true
	return report, nil
}

func (manager *Manager) removeBrokenCheckout(executionContext context.Context, workspaceName string, checkout shared.RepositoryCheckout) (string, error) {
	if checkout.BrokenReason == checkouts.BrokenReasonStandalone {
		clean, cleanError := manager.repositoryManager.CheckCleanWorktree(executionContext, checkout.Path)
		if cleanError != nil || !clean {
			return "", repoerrors.Wrap(repoerrors.ErrLinkConflict, workspaceName, checkout.Spec.Name, repoerrors.OperationRepair, repairStandaloneDirtyMessageConstant+" "+checkout.Path, cleanError)
		}
		if removalError := manager.fileSystem.RemoveAll(checkout.Path); removalError != nil {
			return "", repoerrors.Wrap(nil, workspaceName, checkout.Spec.Name, repoerrors.OperationRepair, "", removalError)
		}
		return repairRemovedStandaloneStepConstant, nil
	}

	asidePath := manager.asidePath(checkout.Path)
	if renameError := manager.fileSystem.Rename(checkout.Path, asidePath); renameError != nil {
		return "", repoerrors.Wrap(nil, workspaceName, checkout.Spec.Name, repoerrors.OperationRepair, "", renameError)
	}
	return fmt.Sprintf(repairMovedBrokenStepTemplate, asidePath), nil
}

func (manager *Manager) asidePath(checkoutPath string) string {
	for attempt := 1; ; attempt++ {
		candidatePath := fmt.Sprintf(repairAsidePathTemplateConstant, checkoutPath, attempt)
		if !manager.entryExists(candidatePath) {
			return candidatePath
		}
	}
}

func findSpec(specs []shared.RepositorySpec, repositoryName string) (shared.RepositorySpec, bool) {
	for _, spec := range specs {
		if spec.Name == repositoryName {
			return spec, true
		}
	}
	return shared.RepositorySpec{}, false
}
