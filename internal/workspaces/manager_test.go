package workspaces_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/workspace/internal/branches/refresh"
	"github.com/temirov/workspace/internal/checkouts"
	"github.com/temirov/workspace/internal/configstore"
	"github.com/temirov/workspace/internal/registry"
	"github.com/temirov/workspace/internal/repos/discovery"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/filesystem"
	"github.com/temirov/workspace/internal/repos/shared"
	"github.com/temirov/workspace/internal/resolver"
	"github.com/temirov/workspace/internal/testsupport"
	"github.com/temirov/workspace/internal/workspaces"
)

const (
	testApplicationNameConstant  = "app"
	testLibraryNameConstant      = "lib"
	testLibraryTagConstant       = "v1.0"
	testFeatureWorkspaceConstant = "feature"
	testMainWorkspaceConstant    = "main"
)

type managerFixture struct {
	manager         *workspaces.Manager
	store           *configstore.FileStore
	layout          shared.Layout
	applicationPath string
	libraryPath     string
}

func newManagerFixture(testInstance *testing.T) managerFixture {
	testInstance.Helper()
	fixture := newEmptyManagerFixture(testInstance)

	upstreamDirectory := testInstance.TempDir()
	fixture.applicationPath = testsupport.InitUpstream(testInstance, upstreamDirectory, testApplicationNameConstant)
	fixture.libraryPath = testsupport.InitUpstream(testInstance, upstreamDirectory, testLibraryNameConstant)
	testsupport.RunGit(testInstance, fixture.libraryPath, "tag", testLibraryTagConstant)

	applicationSpec, specError := shared.NewRepositorySpec(fixture.applicationPath, "", "")
	require.NoError(testInstance, specError)
	require.NoError(testInstance, fixture.store.SetDefault(applicationSpec))
	librarySpec, specError := shared.NewRepositorySpec(fixture.libraryPath, testMainWorkspaceConstant, testLibraryTagConstant)
	require.NoError(testInstance, specError)
	require.NoError(testInstance, fixture.store.SetDefault(librarySpec))
	return fixture
}

func newEmptyManagerFixture(testInstance *testing.T) managerFixture {
	testInstance.Helper()
	testsupport.RequireGit(testInstance)

	layout := shared.NewLayout(testInstance.TempDir())
	fileSystem := filesystem.OSFileSystem{}
	executor, repositoryManager := testsupport.NewGitCollaborators(testInstance, zap.NewNop())

	store, storeError := configstore.NewFileStore(configstore.Dependencies{FileSystem: fileSystem}, layout)
	require.NoError(testInstance, storeError)
	configResolver, resolverError := resolver.NewResolver(store)
	require.NoError(testInstance, resolverError)
	repositoryRegistry, registryError := registry.NewRegistry(registry.Dependencies{
		GitExecutor:       executor,
		RepositoryManager: repositoryManager,
		FileSystem:        fileSystem,
	}, layout, "")
	require.NoError(testInstance, registryError)
	inspector, inspectorError := checkouts.NewInspector(fileSystem)
	require.NoError(testInstance, inspectorError)
	refresher, refreshError := refresh.NewService(refresh.Dependencies{GitExecutor: executor, RepositoryManager: repositoryManager})
	require.NoError(testInstance, refreshError)

	manager, managerError := workspaces.NewManager(workspaces.Dependencies{
		Resolver:          configResolver,
		Store:             store,
		Registry:          repositoryRegistry,
		Inspector:         inspector,
		Refresher:         refresher,
		RepositoryManager: repositoryManager,
		Discoverer:        discovery.NewFilesystemWorkspaceDiscoverer(),
		FileSystem:        fileSystem,
	}, layout)
	require.NoError(testInstance, managerError)

	return managerFixture{manager: manager, store: store, layout: layout}
}

// trackStableInRelease keeps the release workspace off the branch name release so release/v2 can be created.
func trackStableInRelease(testInstance *testing.T, fixture managerFixture) {
	testInstance.Helper()
	stableSpec, specError := shared.NewRepositorySpec(fixture.applicationPath, "stable", "")
	require.NoError(testInstance, specError)
	require.NoError(testInstance, fixture.store.SetOverride("release", stableSpec))
}

func TestNewManagerValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(dependencies *workspaces.Dependencies)
		expectedError error
	}{
		{name: "resolver", mutate: func(dependencies *workspaces.Dependencies) { dependencies.Resolver = nil }, expectedError: workspaces.ErrResolverNotConfigured},
		{name: "store", mutate: func(dependencies *workspaces.Dependencies) { dependencies.Store = nil }, expectedError: workspaces.ErrStoreNotConfigured},
		{name: "registry", mutate: func(dependencies *workspaces.Dependencies) { dependencies.Registry = nil }, expectedError: workspaces.ErrRegistryNotConfigured},
		{name: "inspector", mutate: func(dependencies *workspaces.Dependencies) { dependencies.Inspector = nil }, expectedError: workspaces.ErrInspectorNotConfigured},
		{name: "refresher", mutate: func(dependencies *workspaces.Dependencies) { dependencies.Refresher = nil }, expectedError: workspaces.ErrRefresherNotConfigured},
		{name: "repository_manager", mutate: func(dependencies *workspaces.Dependencies) { dependencies.RepositoryManager = nil }, expectedError: workspaces.ErrRepositoryManagerNotConfigured},
		{name: "discoverer", mutate: func(dependencies *workspaces.Dependencies) { dependencies.Discoverer = nil }, expectedError: workspaces.ErrDiscovererNotConfigured},
		{name: "file_system", mutate: func(dependencies *workspaces.Dependencies) { dependencies.FileSystem = nil }, expectedError: workspaces.ErrFileSystemNotConfigured},
	}

	layout := shared.NewLayout(testInstance.TempDir())
	fileSystem := filesystem.OSFileSystem{}
	store, storeError := configstore.NewFileStore(configstore.Dependencies{FileSystem: fileSystem}, layout)
	require.NoError(testInstance, storeError)

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			dependencies := workspaces.Dependencies{
				Resolver:          &stubResolver{},
				Store:             store,
				Registry:          &stubRegistry{},
				Inspector:         &stubInspector{},
				Refresher:         &stubRefresher{},
				RepositoryManager: stubRepositoryManager{},
				Discoverer:        discovery.NewFilesystemWorkspaceDiscoverer(),
				FileSystem:        fileSystem,
			}
			testCase.mutate(&dependencies)
			manager, managerError := workspaces.NewManager(dependencies, layout)
			require.ErrorIs(testInstance, managerError, testCase.expectedError)
			require.Nil(testInstance, manager)
		})
	}
}

func TestSwitchLinksEveryConfiguredRepository(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)

	report, switchError := fixture.manager.Switch(context.Background(), testFeatureWorkspaceConstant)
	require.NoError(testInstance, switchError)
	require.True(testInstance, report.Created)
	require.False(testInstance, report.Removed)
	require.Len(testInstance, report.Outcomes, 2)
	require.Equal(testInstance, 2, report.Count(workspaces.OutcomeLinked))

	require.FileExists(testInstance, fixture.layout.MarkerPath(testFeatureWorkspaceConstant))
	applicationCheckout := fixture.layout.CheckoutPath(testFeatureWorkspaceConstant, testApplicationNameConstant)
	require.FileExists(testInstance, filepath.Join(applicationCheckout, "README.md"))
	require.Equal(testInstance, testFeatureWorkspaceConstant, testsupport.RunGit(testInstance, applicationCheckout, "rev-parse", "--abbrev-ref", "HEAD"))

	libraryCheckout := fixture.layout.CheckoutPath(testFeatureWorkspaceConstant, testLibraryNameConstant)
	require.Equal(testInstance, "HEAD", testsupport.RunGit(testInstance, libraryCheckout, "rev-parse", "--abbrev-ref", "HEAD"))

	secondReport, secondError := fixture.manager.Switch(context.Background(), testFeatureWorkspaceConstant)
	require.NoError(testInstance, secondError)
	require.False(testInstance, secondReport.Created)
	require.Equal(testInstance, 2, secondReport.Count(workspaces.OutcomeUnchanged))
}

func TestSwitchWithoutRepositoriesCreatesEmptyWorkspace(testInstance *testing.T) {
	fixture := newEmptyManagerFixture(testInstance)

	report, switchError := fixture.manager.Switch(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, switchError)
	require.True(testInstance, report.Created)
	require.False(testInstance, report.Removed)
	require.Empty(testInstance, report.Outcomes)
	require.FileExists(testInstance, fixture.layout.MarkerPath(testMainWorkspaceConstant))

	workspaceNames, listError := fixture.manager.List(context.Background())
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{testMainWorkspaceConstant}, workspaceNames)
}

func TestSwitchRefusesWorkspaceInsideCheckout(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), "release")
	require.NoError(testInstance, switchError)

	nestedName := "release/" + testApplicationNameConstant
	_, nestedError := fixture.manager.Switch(context.Background(), nestedName)
	require.ErrorIs(testInstance, nestedError, repoerrors.ErrLinkConflict)
	require.NoFileExists(testInstance, fixture.layout.MarkerPath(nestedName))
	require.Empty(testInstance, testsupport.RunGit(testInstance, fixture.layout.CheckoutPath("release", testApplicationNameConstant), "status", "--porcelain"))

	_, deeperError := fixture.manager.Switch(context.Background(), nestedName+"/docs")
	require.ErrorIs(testInstance, deeperError, repoerrors.ErrLinkConflict)
	require.NoDirExists(testInstance, fixture.layout.WorkspacePath(nestedName+"/docs"))
}

func TestSwitchRefusesBranchHeldByAnotherWorkspace(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	mainSpec, specError := shared.NewRepositorySpec(fixture.applicationPath, "main", "")
	require.NoError(testInstance, specError)
	for _, workspaceName := range []string{"w1", "w2"} {
		require.NoError(testInstance, fixture.store.SetOverride(workspaceName, mainSpec))
	}

	_, firstError := fixture.manager.Switch(context.Background(), "w1")
	require.NoError(testInstance, firstError)

	report, secondError := fixture.manager.Switch(context.Background(), "w2")
	require.ErrorIs(testInstance, secondError, repoerrors.ErrLinkConflict)
	require.Equal(testInstance, 1, report.Count(workspaces.OutcomeFailed))
	require.NoDirExists(testInstance, fixture.layout.CheckoutPath("w2", testApplicationNameConstant))
	require.Equal(testInstance, "main", testsupport.RunGit(testInstance, fixture.layout.CheckoutPath("w1", testApplicationNameConstant), "rev-parse", "--abbrev-ref", "HEAD"))
}

func TestSwitchRemovesFreshWorkspaceWhenNothingLinks(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	unreachableSpec, specError := shared.NewRepositorySpec(filepath.Join(testInstance.TempDir(), "missing"), "", "")
	require.NoError(testInstance, specError)
	for _, repositoryName := range []string{testApplicationNameConstant, testLibraryNameConstant} {
		require.NoError(testInstance, fixture.store.SetOverride("broken", shared.RepositorySpec{Name: repositoryName, URL: unreachableSpec.URL}))
	}

	report, switchError := fixture.manager.Switch(context.Background(), "broken")
	require.Error(testInstance, switchError)
	require.ErrorIs(testInstance, switchError, repoerrors.ErrNetwork)
	require.Equal(testInstance, 2, report.Count(workspaces.OutcomeFailed))
	require.True(testInstance, report.Removed)
	require.NoDirExists(testInstance, fixture.layout.WorkspacePath("broken"))
}

func TestSyncFastForwardsTrackingCheckouts(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, switchError)

	testsupport.CommitFile(testInstance, fixture.applicationPath, "README.md", "# app v2\n")

	report, syncError := fixture.manager.Sync(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, syncError)
	require.Len(testInstance, report.Outcomes, 2)
	require.Equal(testInstance, workspaces.OutcomeUpdated, report.Outcomes[0].Kind)
	require.Equal(testInstance, workspaces.OutcomeSkipped, report.Outcomes[1].Kind)
	require.Equal(testInstance, "pinned at "+testLibraryTagConstant, report.Outcomes[1].Message)

	content, readError := os.ReadFile(filepath.Join(fixture.layout.CheckoutPath(testMainWorkspaceConstant, testApplicationNameConstant), "README.md"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "# app v2\n", string(content))
}

func TestSyncLeavesPinnedCheckoutAtItsReference(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, switchError)

	libraryCheckout := fixture.layout.CheckoutPath(testMainWorkspaceConstant, testLibraryNameConstant)
	pinnedHead := testsupport.RunGit(testInstance, libraryCheckout, "rev-parse", "HEAD")
	require.Equal(testInstance, testsupport.RunGit(testInstance, fixture.libraryPath, "rev-parse", testLibraryTagConstant+"^{commit}"), pinnedHead)

	testsupport.CommitFile(testInstance, fixture.libraryPath, "README.md", "# lib v2\n")
	upstreamHead := testsupport.RunGit(testInstance, fixture.libraryPath, "rev-parse", "HEAD")
	require.NotEqual(testInstance, pinnedHead, upstreamHead)

	report, syncError := fixture.manager.Sync(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, syncError)
	for _, outcome := range report.Outcomes {
		if outcome.Repository == testLibraryNameConstant {
			require.Equal(testInstance, workspaces.OutcomeSkipped, outcome.Kind)
		}
	}
	require.Equal(testInstance, pinnedHead, testsupport.RunGit(testInstance, libraryCheckout, "rev-parse", "HEAD"))
	require.Equal(testInstance, "HEAD", testsupport.RunGit(testInstance, libraryCheckout, "rev-parse", "--abbrev-ref", "HEAD"))
}

func TestSyncReportsDivergedCheckout(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, switchError)

	applicationCheckout := fixture.layout.CheckoutPath(testMainWorkspaceConstant, testApplicationNameConstant)
	testsupport.CommitFile(testInstance, applicationCheckout, "local.txt", "local\n")
	testsupport.CommitFile(testInstance, fixture.applicationPath, "remote.txt", "remote\n")
	localHead := testsupport.RunGit(testInstance, applicationCheckout, "rev-parse", "HEAD")
	require.NoError(testInstance, os.WriteFile(filepath.Join(applicationCheckout, "README.md"), []byte("# edited locally\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(applicationCheckout, "scratch.txt"), []byte("scratch\n"), 0o644))
	statusBefore := testsupport.RunGit(testInstance, applicationCheckout, "status", "--porcelain")
	require.NotEmpty(testInstance, statusBefore)

	report, syncError := fixture.manager.Sync(context.Background(), testMainWorkspaceConstant)
	require.ErrorIs(testInstance, syncError, repoerrors.ErrSyncConflict)
	require.Equal(testInstance, 1, report.Count(workspaces.OutcomeFailed))
	require.Equal(testInstance, localHead, testsupport.RunGit(testInstance, applicationCheckout, "rev-parse", "HEAD"))
	require.Equal(testInstance, statusBefore, testsupport.RunGit(testInstance, applicationCheckout, "status", "--porcelain"))

	for fileName, expectedContent := range map[string]string{"README.md": "# edited locally\n", "scratch.txt": "scratch\n", "local.txt": "local\n"} {
		content, readError := os.ReadFile(filepath.Join(applicationCheckout, fileName))
		require.NoError(testInstance, readError)
		require.Equal(testInstance, expectedContent, string(content), fileName)
	}
	require.NoFileExists(testInstance, filepath.Join(applicationCheckout, "remote.txt"))
}

func TestSyncUnknownWorkspace(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, syncError := fixture.manager.Sync(context.Background(), "nowhere")
	require.ErrorIs(testInstance, syncError, repoerrors.ErrNotFound)
}

func TestCleanRemovesWorkspaceAndOverrides(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	override, specError := shared.NewRepositorySpec(fixture.applicationPath, "topic", "")
	require.NoError(testInstance, specError)
	require.NoError(testInstance, fixture.store.SetOverride(testFeatureWorkspaceConstant, override))
	_, switchError := fixture.manager.Switch(context.Background(), testFeatureWorkspaceConstant)
	require.NoError(testInstance, switchError)

	_, refusedError := fixture.manager.Clean(context.Background(), testFeatureWorkspaceConstant, shared.ConfirmationPrompt)
	require.ErrorIs(testInstance, refusedError, workspaces.ErrConfirmationRequired)
	require.DirExists(testInstance, fixture.layout.WorkspacePath(testFeatureWorkspaceConstant))

	report, cleanError := fixture.manager.Clean(context.Background(), testFeatureWorkspaceConstant, shared.ConfirmationAssumeYes)
	require.NoError(testInstance, cleanError)
	require.Equal(testInstance, []string{testApplicationNameConstant, testLibraryNameConstant}, report.RemovedCheckouts)
	require.NoDirExists(testInstance, fixture.layout.WorkspacePath(testFeatureWorkspaceConstant))
	require.DirExists(testInstance, fixture.layout.CentralPath(testApplicationNameConstant))

	overrides, overridesError := fixture.store.Overrides(testFeatureWorkspaceConstant)
	require.NoError(testInstance, overridesError)
	require.Empty(testInstance, overrides)

	_, missingError := fixture.manager.Clean(context.Background(), testFeatureWorkspaceConstant, shared.ConfirmationAssumeYes)
	require.ErrorIs(testInstance, missingError, repoerrors.ErrNotFound)
}

func TestCleanKeepsNestedWorkspaces(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	trackStableInRelease(testInstance, fixture)
	_, parentError := fixture.manager.Switch(context.Background(), "release")
	require.NoError(testInstance, parentError)
	_, nestedError := fixture.manager.Switch(context.Background(), "release/v2")
	require.NoError(testInstance, nestedError)

	_, cleanError := fixture.manager.Clean(context.Background(), "release", shared.ConfirmationAssumeYes)
	require.NoError(testInstance, cleanError)
	require.DirExists(testInstance, fixture.layout.CheckoutPath("release/v2", testApplicationNameConstant))
	require.NoDirExists(testInstance, fixture.layout.CheckoutPath("release", testApplicationNameConstant))
}

func TestCleanRefusesPathsThatAreNotWorkspaces(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), "release/v2")
	require.NoError(testInstance, switchError)
	nestedCheckout := fixture.layout.CheckoutPath("release/v2", testApplicationNameConstant)
	workPath := filepath.Join(nestedCheckout, "work.txt")
	require.NoError(testInstance, os.WriteFile(workPath, []byte("uncommitted\n"), 0o644))

	testCases := []struct {
		name          string
		workspaceName string
		expectedError error
	}{
		{name: "worktrees_directory", workspaceName: ".", expectedError: repoerrors.ErrConfig},
		{name: "current_directory_segment", workspaceName: "release/.", expectedError: repoerrors.ErrConfig},
		{name: "unmarked_parent_directory", workspaceName: "release", expectedError: repoerrors.ErrNotFound},
		{name: "checkout_directory", workspaceName: "release/v2/" + testApplicationNameConstant, expectedError: repoerrors.ErrNotFound},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, cleanError := fixture.manager.Clean(context.Background(), testCase.workspaceName, shared.ConfirmationAssumeYes)
			require.ErrorIs(testInstance, cleanError, testCase.expectedError)

			content, readError := os.ReadFile(workPath)
			require.NoError(testInstance, readError)
			require.Equal(testInstance, "uncommitted\n", string(content))
			workspaceNames, listError := fixture.manager.List(context.Background())
			require.NoError(testInstance, listError)
			require.Equal(testInstance, []string{"release/v2"}, workspaceNames)
		})
	}
}

func TestRepairMovesBrokenCheckoutAside(testInstance *testing.T) {
	testCases := []struct {
		name           string
		breakCheckout  func(testInstance *testing.T, fixture managerFixture, checkoutPath string)
		expectedReason string
	}{
		{
			name: "missing_central",
			breakCheckout: func(testInstance *testing.T, fixture managerFixture, checkoutPath string) {
				require.NoError(testInstance, os.RemoveAll(fixture.layout.CentralPath(testApplicationNameConstant)))
			},
			expectedReason: checkouts.BrokenReasonMissingCentral,
		},
		{
			name: "invalid_worktree_link",
			breakCheckout: func(testInstance *testing.T, fixture managerFixture, checkoutPath string) {
				require.NoError(testInstance, os.WriteFile(filepath.Join(checkoutPath, ".git"), []byte("gitdir: /nonexistent/worktree\n"), 0o644))
			},
			expectedReason: checkouts.BrokenReasonInvalidWorktreeLink,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newManagerFixture(testInstance)
			_, switchError := fixture.manager.Switch(context.Background(), "w1")
			require.NoError(testInstance, switchError)

			applicationCheckout := fixture.layout.CheckoutPath("w1", testApplicationNameConstant)
			require.NoError(testInstance, os.WriteFile(filepath.Join(applicationCheckout, "work.txt"), []byte("draft\n"), 0o644))
			testCase.breakCheckout(testInstance, fixture, applicationCheckout)

			report, repairError := fixture.manager.Repair(context.Background(), "w1", testApplicationNameConstant)
			require.NoError(testInstance, repairError)
			require.True(testInstance, report.Repaired)
			require.Equal(testInstance, testCase.expectedReason, report.Reason)

			asidePath := applicationCheckout + ".broken-1"
			require.Contains(testInstance, report.Steps, "moved broken checkout to "+asidePath)
			content, readError := os.ReadFile(filepath.Join(asidePath, "work.txt"))
			require.NoError(testInstance, readError)
			require.Equal(testInstance, "draft\n", string(content))

			require.FileExists(testInstance, filepath.Join(applicationCheckout, "README.md"))
			require.NoFileExists(testInstance, filepath.Join(applicationCheckout, "work.txt"))
			require.Equal(testInstance, "w1", testsupport.RunGit(testInstance, applicationCheckout, "rev-parse", "--abbrev-ref", "HEAD"))
		})
	}
}

func TestRepairRelinksDanglingCheckout(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), "w1")
	require.NoError(testInstance, switchError)

	applicationCheckout := fixture.layout.CheckoutPath("w1", testApplicationNameConstant)
	require.NoError(testInstance, os.WriteFile(filepath.Join(applicationCheckout, ".git"), []byte("gitdir: /nonexistent/worktree\n"), 0o644))

	report, repairError := fixture.manager.Repair(context.Background(), "w1", testApplicationNameConstant)
	require.NoError(testInstance, repairError)
	require.True(testInstance, report.Repaired)
	require.Equal(testInstance, checkouts.BrokenReasonInvalidWorktreeLink, report.Reason)
	require.NotEmpty(testInstance, report.Steps)
	require.Equal(testInstance, "w1", testsupport.RunGit(testInstance, applicationCheckout, "rev-parse", "--abbrev-ref", "HEAD"))

	healthyReport, healthyError := fixture.manager.Repair(context.Background(), "w1", testLibraryNameConstant)
	require.NoError(testInstance, healthyError)
	require.False(testInstance, healthyReport.Repaired)
}

func TestRepairStandaloneClone(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dirty         bool
		expectedError error
	}{
		{name: "clean_clone_is_converted"},
		{name: "dirty_clone_is_refused", dirty: true, expectedError: repoerrors.ErrLinkConflict},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newManagerFixture(testInstance)
			_, switchError := fixture.manager.Switch(context.Background(), testMainWorkspaceConstant)
			require.NoError(testInstance, switchError)

			applicationCheckout := fixture.layout.CheckoutPath(testMainWorkspaceConstant, testApplicationNameConstant)
			require.NoError(testInstance, os.RemoveAll(applicationCheckout))
			testsupport.RunGit(testInstance, filepath.Dir(applicationCheckout), "clone", "--quiet", fixture.applicationPath, applicationCheckout)
			if testCase.dirty {
				require.NoError(testInstance, os.WriteFile(filepath.Join(applicationCheckout, "notes.txt"), []byte("draft\n"), 0o644))
			}

			report, repairError := fixture.manager.Repair(context.Background(), testMainWorkspaceConstant, testApplicationNameConstant)
			require.Equal(testInstance, checkouts.BrokenReasonStandalone, report.Reason)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, repairError, testCase.expectedError)
				require.FileExists(testInstance, filepath.Join(applicationCheckout, "notes.txt"))
				return
			}
			require.NoError(testInstance, repairError)
			require.True(testInstance, report.Repaired)
			gitEntry, statError := os.Stat(filepath.Join(applicationCheckout, ".git"))
			require.NoError(testInstance, statError)
			require.False(testInstance, gitEntry.IsDir())
		})
	}
}

func TestRepairUnknownRepository(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	_, switchError := fixture.manager.Switch(context.Background(), testMainWorkspaceConstant)
	require.NoError(testInstance, switchError)

	_, repairError := fixture.manager.Repair(context.Background(), testMainWorkspaceConstant, "ghost")
	require.ErrorIs(testInstance, repairError, repoerrors.ErrNotFound)
}

func TestListAndCurrentWorkspace(testInstance *testing.T) {
	fixture := newManagerFixture(testInstance)
	trackStableInRelease(testInstance, fixture)
	for _, workspaceName := range []string{testMainWorkspaceConstant, "release", "release/v2"} {
		_, switchError := fixture.manager.Switch(context.Background(), workspaceName)
		require.NoError(testInstance, switchError)
	}

	workspaceNames, listError := fixture.manager.List(context.Background())
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []string{testMainWorkspaceConstant, "release", "release/v2"}, workspaceNames)

	nestedDirectory := filepath.Join(fixture.layout.CheckoutPath("release/v2", testApplicationNameConstant), "docs")
	require.NoError(testInstance, os.MkdirAll(nestedDirectory, 0o755))
	currentWorkspace, currentError := fixture.manager.CurrentWorkspace(nestedDirectory)
	require.NoError(testInstance, currentError)
	require.Equal(testInstance, "release/v2", currentWorkspace)

	_, outsideError := fixture.manager.CurrentWorkspace(testInstance.TempDir())
	require.ErrorIs(testInstance, outsideError, repoerrors.ErrNotInWorkspace)
}
