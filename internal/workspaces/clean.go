package workspaces

import (
	"context"

	"go.uber.org/zap"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	cleanUnlinkFailedLogConstant = "Failed to unlink checkout"
	cleanRemovedLogConstant      = "Removed workspace"
)

// Clean unlinks every checkout of a workspace, deletes its directory and forgets its overrides.
// Central repositories are kept. Under ConfirmationPrompt nothing is removed and ErrConfirmationRequired is returned.
func (manager *Manager) Clean(executionContext context.Context, workspaceName string, confirmation shared.ConfirmationPolicy) (CleanReport, error) {
	report := CleanReport{WorkspaceName: workspaceName, WorkspacePath: manager.layout.WorkspacePath(workspaceName)}
	if workspaceError := manager.requireWorkspace(workspaceName, repoerrors.OperationClean); workspaceError != nil {
		return report, workspaceError
	}
	if confirmation.ShouldPrompt() {
		return report, ErrConfirmationRequired
	}

	repositoryNames, discoveryError := manager.discoverer.DiscoverCheckouts(report.WorkspacePath)
	if discoveryError != nil {
		return report, repoerrors.Wrap(nil, workspaceName, "", repoerrors.OperationClean, "", discoveryError)
	}

	var failures []error
	for _, repositoryName := range repositoryNames {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}
		checkout := shared.RepositoryCheckout{
			Path:        manager.layout.CheckoutPath(workspaceName, repositoryName),
			Spec:        shared.RepositorySpec{Name: repositoryName},
			CentralPath: manager.layout.CentralPath(repositoryName),
		}
		if unlinkError := manager.registry.UnlinkCheckout(executionContext, checkout); unlinkError != nil {
			manager.logger.Warn(cleanUnlinkFailedLogConstant, zap.String(repositoryLogFieldConstant, repositoryName), zap.Error(unlinkError))
			failures = append(failures, unlinkError)
			continue
		}
		report.RemovedCheckouts = append(report.RemovedCheckouts, repositoryName)
	}
	if len(failures) > 0 {
		return report, repoerrors.BatchError{Operation: repoerrors.OperationClean, Total: len(repositoryNames), Failures: failures}
	}

	if removalError := manager.removeWorkspaceDirectory(workspaceName); removalError != nil {
		return report, repoerrors.Wrap(nil, workspaceName, "", repoerrors.OperationClean, "", removalError)
	}
	if storeError := manager.store.RemoveWorkspace(workspaceName); storeError != nil {
		return report, storeError
	}

	manager.logger.Info(cleanRemovedLogConstant, zap.String(workspaceLogFieldConstant, workspaceName))
	return report, nil
}
