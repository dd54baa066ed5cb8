package status_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/workspace/internal/checkouts"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
	"github.com/temirov/workspace/internal/status"
)

const testFullHashConstant = "0123456789abcdef0123456789abcdef01234567"

type stubResolver struct {
	specs    map[string][]shared.RepositorySpec
	failures map[string]error
}

func (resolver stubResolver) Resolve(executionContext context.Context, workspaceName string) ([]shared.RepositorySpec, error) {
	return resolver.specs[workspaceName], resolver.failures[workspaceName]
}

type stubInspector struct {
	states   map[string]shared.CheckoutState
	metadata map[string]checkouts.CheckoutMetadata
}

func (inspector stubInspector) Inspect(executionContext context.Context, layout shared.Layout, workspaceName string, spec shared.RepositorySpec) (shared.RepositoryCheckout, checkouts.CheckoutMetadata) {
	key := workspaceName + "/" + spec.Name
	checkout := shared.RepositoryCheckout{Path: layout.CheckoutPath(workspaceName, spec.Name), Spec: spec, State: inspector.states[key]}
	if checkout.State == shared.CheckoutBroken {
		checkout.BrokenReason = checkouts.BrokenReasonInvalidWorktreeLink
	}
	return checkout, inspector.metadata[key]
}

type stubDiscoverer struct {
	workspaces []string
	checkouts  map[string][]string
	layout     shared.Layout
}

func (discoverer stubDiscoverer) DiscoverWorkspaces(worktreesRoot string) ([]string, error) {
	return discoverer.workspaces, nil
}

func (discoverer stubDiscoverer) DiscoverCheckouts(workspacePath string) ([]string, error) {
	for _, workspaceName := range discoverer.workspaces {
		if discoverer.layout.WorkspacePath(workspaceName) == workspacePath {
			return discoverer.checkouts[workspaceName], nil
		}
	}
	return nil, nil
}

type stubRepositoryManager struct {
	dirty    map[string]bool
	failures map[string]error
}

func (manager stubRepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	if failure, failing := manager.failures[repositoryPath]; failing {
		return false, failure
	}
	return !manager.dirty[repositoryPath], nil
}

func (stubRepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	return "", nil
}

func (stubRepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	return "", nil
}

func (stubRepositoryManager) ReferenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error) {
	return true, nil
}

func (stubRepositoryManager) ResolveRevision(executionContext context.Context, repositoryPath string, revision string) (string, error) {
	return "", nil
}

func (stubRepositoryManager) IsAncestor(executionContext context.Context, repositoryPath string, ancestor string, descendant string) (bool, error) {
	return true, nil
}

func (stubRepositoryManager) RemoteDefaultBranch(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	return "main", nil
}

func TestRefLabel(testInstance *testing.T) {
	testCases := []struct {
		name          string
		spec          shared.RepositorySpec
		metadata      checkouts.CheckoutMetadata
		state         shared.CheckoutState
		expectedLabel string
	}{
		{name: "tracking", metadata: checkouts.CheckoutMetadata{BranchName: "feature"}, state: shared.CheckoutTracking, expectedLabel: "feature"},
		{name: "pinned_tag", spec: shared.RepositorySpec{PinnedRef: "v1.0"}, metadata: checkouts.CheckoutMetadata{Detached: true}, state: shared.CheckoutPinned, expectedLabel: "v1.0"},
		{name: "pinned_hash", spec: shared.RepositorySpec{PinnedRef: testFullHashConstant}, metadata: checkouts.CheckoutMetadata{Detached: true}, state: shared.CheckoutPinned, expectedLabel: "0123456"},
		{name: "detached_without_pin", metadata: checkouts.CheckoutMetadata{Detached: true, HeadHash: testFullHashConstant}, state: shared.CheckoutLinked, expectedLabel: "detached@0123456"},
		{name: "branch_despite_pin", spec: shared.RepositorySpec{PinnedRef: "v1.0"}, metadata: checkouts.CheckoutMetadata{BranchName: "main"}, state: shared.CheckoutLinked, expectedLabel: "main"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedLabel, status.RefLabel(testCase.spec, testCase.metadata, testCase.state))
		})
	}
}

func TestReportAndRender(testInstance *testing.T) {
	layout := shared.NewLayout("/work")
	configurationFailure := repoerrors.NewConfigError("broken", repoerrors.OperationResolve, "malformed workspace.yaml", nil)
	reporter, creationError := status.NewReporter(status.Dependencies{
		Resolver: stubResolver{
			specs: map[string][]shared.RepositorySpec{
				"main": {{Name: "app"}, {Name: "lib", PinnedRef: "v1.0"}, {Name: "docs"}, {Name: "tools"}, {Name: "site"}},
			},
			failures: map[string]error{"broken": configurationFailure},
		},
		Inspector: stubInspector{
			states: map[string]shared.CheckoutState{
				"main/app":   shared.CheckoutTracking,
				"main/lib":   shared.CheckoutPinned,
				"main/docs":  shared.CheckoutBroken,
				"main/site":  shared.CheckoutTracking,
				"main/extra": shared.CheckoutLinked,
				"broken/app": shared.CheckoutTracking,
			},
			metadata: map[string]checkouts.CheckoutMetadata{
				"main/app":   {BranchName: "main"},
				"main/lib":   {Detached: true},
				"main/site":  {BranchName: "main"},
				"main/extra": {Detached: true, HeadHash: testFullHashConstant},
				"broken/app": {BranchName: "broken"},
			},
		},
		RepositoryManager: stubRepositoryManager{
			dirty:    map[string]bool{layout.CheckoutPath("main", "lib"): true},
			failures: map[string]error{layout.CheckoutPath("main", "site"): errors.New("index locked")},
		},
		Discoverer: stubDiscoverer{
			workspaces: []string{"main", "broken"},
			checkouts:  map[string][]string{"main": {"extra", "app"}, "broken": {"app"}},
			layout:     layout,
		},
	}, layout)
	require.NoError(testInstance, creationError)

	statuses, reportError := reporter.Report(context.Background())
	require.NoError(testInstance, reportError)
	require.Len(testInstance, statuses, 2)
	require.Equal(testInstance, "broken", statuses[0].Name)
	require.ErrorIs(testInstance, statuses[0].Err, repoerrors.ErrConfig)
	require.Len(testInstance, statuses[0].Repositories, 1)
	require.False(testInstance, statuses[0].Repositories[0].Configured)

	var rendered bytes.Buffer
	require.NoError(testInstance, status.NewRenderer(false).Render(&rendered, statuses))
	require.Equal(testInstance, "Workspace Status\n"+
		"broken:\n"+
		"  [error: "+configurationFailure.Error()+"]\n"+
		"  app: broken [clean] (not configured)\n"+
		"main:\n"+
		"  app: main [clean]\n"+
		"  lib: v1.0 [modified]\n"+
		"  docs: [broken: invalid worktree link]\n"+
		"  tools: [missing]\n"+
		"  site: [error: index locked]\n"+
		"  extra: detached@0123456 [clean] (not configured)\n", rendered.String())
}

func TestRenderWithoutWorkspaces(testInstance *testing.T) {
	var rendered bytes.Buffer
	require.NoError(testInstance, status.NewRenderer(false).Render(&rendered, nil))
	require.Equal(testInstance, "Workspace Status\nNo workspaces found\n", rendered.String())
}
