package checkouts_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/workspace/internal/checkouts"
	"github.com/temirov/workspace/internal/repos/shared"
)

func healthyMetadata() checkouts.CheckoutMetadata {
	return checkouts.CheckoutMetadata{
		PathExists:         true,
		GitEntryExists:     true,
		GitEntryIsFile:     true,
		GitDirTarget:       "/root/repos/app/.git/worktrees/app",
		GitDirTargetExists: true,
		CentralExists:      true,
		HeadResolvable:     true,
		HasCommits:         true,
		BranchName:         "main",
	}
}

func TestDetectState(testInstance *testing.T) {
	trackingSpec := shared.RepositorySpec{Name: "app", URL: "https://x/app.git"}
	pinnedSpec := shared.RepositorySpec{Name: "app", URL: "https://x/app.git", PinnedRef: "v1.0"}

	testCases := []struct {
		name           string
		mutate         func(metadata *checkouts.CheckoutMetadata)
		spec           shared.RepositorySpec
		expectedState  shared.CheckoutState
		expectedReason string
	}{
		{name: "absent", mutate: func(metadata *checkouts.CheckoutMetadata) { *metadata = checkouts.CheckoutMetadata{} }, spec: trackingSpec, expectedState: shared.CheckoutAbsent},
		{name: "tracking", mutate: func(*checkouts.CheckoutMetadata) {}, spec: trackingSpec, expectedState: shared.CheckoutTracking},
		{name: "pinned", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.Detached = true }, spec: pinnedSpec, expectedState: shared.CheckoutPinned},
		{name: "detached_without_pin", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.Detached = true }, spec: trackingSpec, expectedState: shared.CheckoutLinked},
		{name: "branch_despite_pin", mutate: func(*checkouts.CheckoutMetadata) {}, spec: pinnedSpec, expectedState: shared.CheckoutLinked},
		{name: "empty_directory", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.GitEntryExists = false }, spec: trackingSpec, expectedState: shared.CheckoutBroken, expectedReason: checkouts.BrokenReasonMissingGitMetadata},
		{name: "standalone", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.GitEntryIsFile = false }, spec: trackingSpec, expectedState: shared.CheckoutBroken, expectedReason: checkouts.BrokenReasonStandalone},
		{name: "missing_central", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.CentralExists = false }, spec: trackingSpec, expectedState: shared.CheckoutBroken, expectedReason: checkouts.BrokenReasonMissingCentral},
		{name: "dangling_gitdir", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.GitDirTargetExists = false }, spec: trackingSpec, expectedState: shared.CheckoutBroken, expectedReason: checkouts.BrokenReasonInvalidWorktreeLink},
		{name: "unresolvable_head", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.HeadResolvable = false }, spec: trackingSpec, expectedState: shared.CheckoutBroken, expectedReason: checkouts.BrokenReasonUnresolvableHead},
		{name: "no_commits", mutate: func(metadata *checkouts.CheckoutMetadata) { metadata.HasCommits = false }, spec: trackingSpec, expectedState: shared.CheckoutBroken, expectedReason: checkouts.BrokenReasonNoCommits},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			metadata := healthyMetadata()
			testCase.mutate(&metadata)
			state, reason := checkouts.DetectState(metadata, testCase.spec)
			require.Equal(testInstance, testCase.expectedState, state)
			require.Equal(testInstance, testCase.expectedReason, reason)
		})
	}
}
