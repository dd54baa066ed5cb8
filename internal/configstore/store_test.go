package configstore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/workspace/internal/configstore"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/filesystem"
	"github.com/temirov/workspace/internal/repos/shared"
)

func newTestStore(testInstance *testing.T) (*configstore.FileStore, shared.Layout) {
	testInstance.Helper()
	layout := shared.NewLayout(testInstance.TempDir())
	store, creationError := configstore.NewFileStore(configstore.Dependencies{FileSystem: filesystem.OSFileSystem{}}, layout)
	require.NoError(testInstance, creationError)
	return store, layout
}

func mustSpec(testInstance *testing.T, url string, branch string, ref string) shared.RepositorySpec {
	testInstance.Helper()
	spec, specError := shared.NewRepositorySpec(url, branch, ref)
	require.NoError(testInstance, specError)
	return spec
}

func TestNewFileStoreValidatesDependencies(testInstance *testing.T) {
	_, creationError := configstore.NewFileStore(configstore.Dependencies{}, shared.NewLayout("/tmp"))
	require.ErrorIs(testInstance, creationError, configstore.ErrFileSystemNotConfigured)
}

func TestFileStoreMissingFilesYieldEmptyTiers(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)

	overrides, overridesError := store.Overrides("main")
	require.NoError(testInstance, overridesError)
	require.Empty(testInstance, overrides)

	defaults, defaultsError := store.Defaults()
	require.NoError(testInstance, defaultsError)
	require.Empty(testInstance, defaults)

	legacy, legacyError := store.Legacy()
	require.NoError(testInstance, legacyError)
	require.Empty(testInstance, legacy)
}

func TestFileStoreUpsertKeepsPosition(testInstance *testing.T) {
	store, layout := newTestStore(testInstance)

	require.NoError(testInstance, store.SetDefault(mustSpec(testInstance, "https://x/app.git", "", "")))
	require.NoError(testInstance, store.SetDefault(mustSpec(testInstance, "https://x/lib.git", "", "")))
	require.NoError(testInstance, store.SetDefault(mustSpec(testInstance, "https://mirror/app.git", "develop", "")))

	defaults, defaultsError := store.Defaults()
	require.NoError(testInstance, defaultsError)
	expected := []shared.RepositorySpec{
		{Name: "app", URL: "https://mirror/app.git", Branch: "develop"},
		{Name: "lib", URL: "https://x/lib.git"},
	}
	require.Empty(testInstance, cmp.Diff(expected, defaults))

	content, readError := os.ReadFile(layout.StorePath())
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(content), "defaults:")
	require.Contains(testInstance, string(content), "branch: develop")
}

func TestFileStoreOverridesArePerWorkspace(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)

	require.NoError(testInstance, store.SetOverride("feature-x", mustSpec(testInstance, "https://x/app.git", "feature", "")))
	require.NoError(testInstance, store.SetOverride("release/v2", mustSpec(testInstance, "https://x/lib.git", "", "v2.0.0")))

	overrides, overridesError := store.Overrides("feature-x")
	require.NoError(testInstance, overridesError)
	require.Len(testInstance, overrides, 1)
	require.Equal(testInstance, "feature", overrides[0].Branch)

	workspaces, workspacesError := store.OverriddenWorkspaces()
	require.NoError(testInstance, workspacesError)
	require.Equal(testInstance, []string{"feature-x", "release/v2"}, workspaces)

	require.NoError(testInstance, store.RemoveWorkspace("feature-x"))
	overrides, overridesError = store.Overrides("feature-x")
	require.NoError(testInstance, overridesError)
	require.Empty(testInstance, overrides)

	workspaces, workspacesError = store.OverriddenWorkspaces()
	require.NoError(testInstance, workspacesError)
	require.Equal(testInstance, []string{"release/v2"}, workspaces)
}

func TestFileStoreRejectsInvalidWorkspaceName(testInstance *testing.T) {
	store, _ := newTestStore(testInstance)
	setError := store.SetOverride("bad name", mustSpec(testInstance, "https://x/app.git", "", ""))
	require.ErrorIs(testInstance, setError, repoerrors.ErrConfig)
}

func TestFileStoreUnparsableDocumentIsConfigError(testInstance *testing.T) {
	store, layout := newTestStore(testInstance)
	require.NoError(testInstance, os.WriteFile(layout.StorePath(), []byte("defaults: [unterminated\n"), 0o644))

	_, defaultsError := store.Defaults()
	require.ErrorIs(testInstance, defaultsError, repoerrors.ErrConfig)
}

func TestFileStoreImportLegacy(testInstance *testing.T) {
	testCases := []struct {
		name            string
		content         string
		expectError     bool
		expectedEntries []shared.RepositorySpec
	}{
		{
			name:    "pinned_entry",
			content: "https://x/y.git main v1.0\n",
			expectedEntries: []shared.RepositorySpec{
				{Name: "y", URL: "https://x/y.git", Branch: "main", PinnedRef: "v1.0"},
			},
		},
		{
			name:        "malformed_line_writes_nothing",
			content:     "https://x/a.git\nhttps://x/b.git 1 2 3\n",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			store, layout := newTestStore(testInstance)

			result, importError := store.ImportLegacy("w2", strings.NewReader(testCase.content))
			if testCase.expectError {
				require.ErrorIs(testInstance, importError, repoerrors.ErrConfig)
				_, statError := os.Stat(layout.StorePath())
				require.True(testInstance, os.IsNotExist(statError))
				return
			}
			require.NoError(testInstance, importError)
			require.Equal(testInstance, "w2", result.WorkspaceName)

			overrides, overridesError := store.Overrides("w2")
			require.NoError(testInstance, overridesError)
			require.Empty(testInstance, cmp.Diff(testCase.expectedEntries, overrides))
			require.True(testInstance, overrides[0].IsPinned())
		})
	}
}

func TestFileStoreLegacyTier(testInstance *testing.T) {
	store, layout := newTestStore(testInstance)
	require.NoError(testInstance, os.WriteFile(layout.LegacyPath(), []byte("# legacy\nhttps://x/old.git\n"), 0o644))

	legacy, legacyError := store.Legacy()
	require.NoError(testInstance, legacyError)
	require.Len(testInstance, legacy, 1)
	require.Equal(testInstance, "old", legacy[0].Name)
	require.Equal(testInstance, filepath.Join(layout.RootPath, "workspace.conf"), layout.LegacyPath())
}
