package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/workspace/internal/gitrepo"
)

func TestRepositoryNameFromURL(testInstance *testing.T) {
	testCases := []struct {
		name         string
		remoteURL    string
		expectedName string
	}{
		{name: "https", remoteURL: "https://example.com/org/app.git", expectedName: "app"},
		{name: "https_without_suffix", remoteURL: "https://example.com/org/app", expectedName: "app"},
		{name: "trailing_slash", remoteURL: "https://example.com/org/app.git/", expectedName: "app"},
		{name: "scp_without_path", remoteURL: "host:repo.git", expectedName: "repo"},
		{name: "scp_with_path", remoteURL: "git@github.com:org/lib.git", expectedName: "lib"},
		{name: "ssh_scheme", remoteURL: "ssh://git@example.com:2222/org/svc.git", expectedName: "svc"},
		{name: "only_one_suffix_removed", remoteURL: "https://example.com/app.git.git", expectedName: "app.git"},
		{name: "backup_kept", remoteURL: "https://example.com/repo.git.backup", expectedName: "repo.git.backup"},
		{name: "empty", remoteURL: "", expectedName: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedName, gitrepo.RepositoryNameFromURL(testCase.remoteURL))
		})
	}
}

func TestRemoteURLsEquivalent(testInstance *testing.T) {
	require.True(testInstance, gitrepo.RemoteURLsEquivalent("https://example.com/app.git", "https://example.com/app/"))
	require.False(testInstance, gitrepo.RemoteURLsEquivalent("https://example.com/app.git", "https://mirror.example.com/app.git"))
}
