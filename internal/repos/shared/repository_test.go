package shared_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

func TestNewRepositorySpecDerivesName(testInstance *testing.T) {
	testCases := []struct {
		name         string
		url          string
		expectedName string
		expectError  bool
	}{
		{name: "https_with_suffix", url: "https://example.com/org/app.git", expectedName: "app"},
		{name: "trailing_slash", url: "https://example.com/org/app/", expectedName: "app"},
		{name: "scp_style", url: "git@example.com:lib.git", expectedName: "lib"},
		{name: "scp_style_nested", url: "git@example.com:org/tools.git", expectedName: "tools"},
		{name: "backup_suffix_kept", url: "https://example.com/repo.git.backup", expectedName: "repo.git.backup"},
		{name: "local_path", url: "/srv/git/service", expectedName: "service"},
		{name: "empty", url: "  ", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			spec, specError := shared.NewRepositorySpec(testCase.url, "", "")
			if testCase.expectError {
				require.ErrorIs(testInstance, specError, repoerrors.ErrConfig)
				return
			}
			require.NoError(testInstance, specError)
			require.Equal(testInstance, testCase.expectedName, spec.Name)
		})
	}
}

func TestRepositorySpecEffectiveBranchAndPin(testInstance *testing.T) {
	tracking, trackingError := shared.NewRepositorySpec("https://example.com/app.git", "", "")
	require.NoError(testInstance, trackingError)
	require.Equal(testInstance, "feature-x", tracking.EffectiveBranch("feature-x"))
	require.False(testInstance, tracking.IsPinned())

	pinned, pinnedError := shared.NewRepositorySpec("https://example.com/lib.git", "main", "v1.0")
	require.NoError(testInstance, pinnedError)
	require.Equal(testInstance, "main", pinned.EffectiveBranch("feature-x"))
	require.True(testInstance, pinned.IsPinned())
	require.Equal(testInstance, "lib (main @ v1.0)", pinned.Describe("feature-x"))
}

func TestValidateWorkspaceName(testInstance *testing.T) {
	testCases := []struct {
		name          string
		workspaceName string
		expectError   bool
	}{
		{name: "simple", workspaceName: "main"},
		{name: "nested", workspaceName: "release/v2.0.0"},
		{name: "empty", workspaceName: "", expectError: true},
		{name: "whitespace", workspaceName: "my branch", expectError: true},
		{name: "leading_dash", workspaceName: "-x", expectError: true},
		{name: "absolute", workspaceName: "/tmp", expectError: true},
		{name: "traversal", workspaceName: "a/../b", expectError: true},
		{name: "current_directory", workspaceName: ".", expectError: true},
		{name: "current_directory_segment", workspaceName: "release/./v2", expectError: true},
		{name: "trailing_current_directory", workspaceName: "release/.", expectError: true},
		{name: "dotted_segment", workspaceName: "release/.v2"},
		{name: "empty_segment", workspaceName: "a//b", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			validationError := shared.ValidateWorkspaceName(testCase.workspaceName)
			if testCase.expectError {
				require.ErrorIs(testInstance, validationError, repoerrors.ErrConfig)
				return
			}
			require.NoError(testInstance, validationError)
		})
	}
}

func TestLayoutPaths(testInstance *testing.T) {
	rootPath := filepath.Join(testInstance.TempDir(), "root")
	layout := shared.NewLayout(rootPath)

	require.Equal(testInstance, filepath.Join(rootPath, "repos", "app"), layout.CentralPath("app"))
	require.Equal(testInstance, filepath.Join(rootPath, "worktrees", "release", "v2", "app"), layout.CheckoutPath("release/v2", "app"))
	require.Equal(testInstance, filepath.Join(rootPath, "worktrees", "main", ".workspace"), layout.MarkerPath("main"))
	require.Equal(testInstance, filepath.Join(rootPath, "workspace.yaml"), layout.StorePath())
	require.Equal(testInstance, filepath.Join(rootPath, "workspace.conf"), layout.LegacyPath())
	require.Equal(testInstance, ".app.partial-*", layout.StagingPattern("app"))
	require.True(testInstance, layout.IsStagingEntry("app", ".app.partial-12345"))
	require.False(testInstance, layout.IsStagingEntry("app", ".application.partial-1"))
}

func TestLayoutCandidateWorkspaceNames(testInstance *testing.T) {
	layout := shared.NewLayout("/srv/root")

	require.Equal(testInstance, []string{"release", "release/v2", "release/v2/app"}, layout.CandidateWorkspaceNames("/srv/root/worktrees/release/v2/app"))
	require.Nil(testInstance, layout.CandidateWorkspaceNames("/srv/root/repos/app"))
	require.Nil(testInstance, layout.CandidateWorkspaceNames("/srv/root/worktrees"))
}
