package workspaces

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	noRepositoriesMessageConstant     = "no repositories configured"
	brokenNeedsRepairTemplateConstant = "broken (%s); run repair"
	linkedMessageConstant             = "linked"
	pinnedMessageConstant             = "pinned"
	brokenMessageConstant             = "broken checkout; run repair"
	workspaceRemovedLogConstant       = "Removed workspace directory with no linked checkouts"
	switchStartedLogConstant          = "Switching workspace"
	repositoryLogFieldConstant        = "repository"
	workspaceLogFieldConstant         = "workspace"
	stateLogFieldConstant             = "state"
)

// Switch makes every configured repository of a workspace present, creating the workspace when needed.
// Existing healthy checkouts are left untouched, broken ones are reported and left for repair. A workspace
// without repositories is created empty. A freshly created workspace where every link failed is removed again.
func (manager *Manager) Switch(executionContext context.Context, workspaceName string) (SwitchReport, error) {
	report := SwitchReport{BatchReport: BatchReport{
		Operation:     repoerrors.OperationSwitch,
		WorkspaceName: workspaceName,
		WorkspacePath: manager.layout.WorkspacePath(workspaceName),
	}}

	specs, resolveError := manager.resolver.Resolve(executionContext, workspaceName)
	if resolveError != nil {
		return report, resolveError
	}

	manager.logger.Debug(switchStartedLogConstant, zap.String(workspaceLogFieldConstant, workspaceName))
	created, directoryError := manager.ensureWorkspaceDirectory(workspaceName)
	report.Created = created
	if directoryError != nil {
		return report, directoryError
	}
	if len(specs) == 0 {
		manager.logger.Warn(noRepositoriesMessageConstant, zap.String(workspaceLogFieldConstant, workspaceName))
		return report, nil
	}

	for _, spec := range specs {
		if contextError := executionContext.Err(); contextError != nil {
			return report, contextError
		}
		outcome := manager.switchRepository(executionContext, workspaceName, spec)
		report.record(outcome)
		if outcome.Kind == OutcomeFailed && !manager.failurePolicy.ContinueAfterFailure() {
			break
		}
	}

	if created && report.Count(OutcomeLinked) == 0 && report.Count(OutcomeFailed) > 0 {
		if removalError := manager.removeWorkspaceDirectory(workspaceName); removalError == nil {
			report.Removed = true
			manager.logger.Debug(workspaceRemovedLogConstant, zap.String(workspaceLogFieldConstant, workspaceName))
		}
	}

	return report, report.Err()
}

func (manager *Manager) switchRepository(executionContext context.Context, workspaceName string, spec shared.RepositorySpec) RepositoryOutcome {
	checkout, _ := manager.inspector.Inspect(executionContext, manager.layout, workspaceName, spec)
	outcome := RepositoryOutcome{Repository: spec.Name, Path: checkout.Path}
	manager.logger.Debug(switchStartedLogConstant,
		zap.String(workspaceLogFieldConstant, workspaceName),
		zap.String(repositoryLogFieldConstant, spec.Name),
		zap.String(stateLogFieldConstant, checkout.State.String()),
	)

	switch checkout.State {
	case shared.CheckoutAbsent:
	case shared.CheckoutBroken:
		outcome.Kind = OutcomeSkipped
		outcome.Message = brokenMessageConstant
		if len(checkout.BrokenReason) > 0 {
			outcome.Message = fmt.Sprintf(brokenNeedsRepairTemplateConstant, checkout.BrokenReason)
		}
		return outcome
	default:
		outcome.Kind = OutcomeUnchanged
		outcome.Message = checkout.State.String()
		return outcome
	}

	_, centralExists := manager.registry.Central(spec.Name)
	central, ensureError := manager.registry.EnsureCentral(executionContext, spec, centralExists)
	if ensureError != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = ensureError
		return outcome
	}

	linkedCheckout, linkError := manager.registry.LinkCheckout(executionContext, central, workspaceName, spec)
	if linkError != nil {
		outcome.Kind = OutcomeFailed
		outcome.Err = linkError
		return outcome
	}

	outcome.Kind = OutcomeLinked
	outcome.Path = linkedCheckout.Path
	outcome.Message = linkedMessageConstant + " " + spec.Describe(workspaceName)
	if spec.IsPinned() {
		outcome.Message = pinnedMessageConstant + " " + spec.Describe(workspaceName)
	}
	return outcome
}
