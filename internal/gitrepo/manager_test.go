package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/workspace/internal/execshell"
	"github.com/temirov/workspace/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/srv/root/repos/app"
)

type scriptedGitExecutor struct {
	responses       map[string]execshell.ExecutionResult
	recordedDetails []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	key := strings.Join(details.Arguments, " ")
	result, found := executor.responses[key]
	if !found {
		result = execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: unexpected command " + key}
	}
	if result.ExitCode != 0 {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  result,
		}
	}
	return result, nil
}

func newScriptedManager(testInstance *testing.T, responses map[string]execshell.ExecutionResult) (*gitrepo.RepositoryManager, *scriptedGitExecutor) {
	testInstance.Helper()
	executor := &scriptedGitExecutor{responses: responses}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)
	return manager, executor
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	_, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
}

func TestCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name          string
		statusOutput  string
		expectedClean bool
	}{
		{name: "clean", statusOutput: "", expectedClean: true},
		{name: "modified", statusOutput: " M README.md\n", expectedClean: false},
		{name: "untracked", statusOutput: "?? notes.txt\n", expectedClean: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, executor := newScriptedManager(testInstance, map[string]execshell.ExecutionResult{
				"status --porcelain": {StandardOutput: testCase.statusOutput},
			})
			clean, cleanError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, cleanError)
			require.Equal(testInstance, testCase.expectedClean, clean)
			require.Equal(testInstance, testRepositoryPathConstant, executor.recordedDetails[0].WorkingDirectory)
			require.Equal(testInstance, "0", executor.recordedDetails[0].EnvironmentVariables["GIT_TERMINAL_PROMPT"])
		})
	}
}

func TestReferenceExistsTreatsFailedVerificationAsMissing(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, map[string]execshell.ExecutionResult{
		"rev-parse --verify --quiet refs/heads/main^{commit}":    {StandardOutput: "0123456789abcdef0123456789abcdef01234567\n"},
		"rev-parse --verify --quiet refs/heads/missing^{commit}": {ExitCode: 1},
	})

	exists, existsError := manager.ReferenceExists(context.Background(), testRepositoryPathConstant, "refs/heads/main")
	require.NoError(testInstance, existsError)
	require.True(testInstance, exists)

	exists, existsError = manager.ReferenceExists(context.Background(), testRepositoryPathConstant, "refs/heads/missing")
	require.NoError(testInstance, existsError)
	require.False(testInstance, exists)
}

func TestIsAncestorDistinguishesDivergenceFromErrors(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, map[string]execshell.ExecutionResult{
		"merge-base --is-ancestor HEAD origin/main":    {},
		"merge-base --is-ancestor HEAD origin/feature": {ExitCode: 1},
	})

	ancestor, ancestorError := manager.IsAncestor(context.Background(), testRepositoryPathConstant, "HEAD", "origin/main")
	require.NoError(testInstance, ancestorError)
	require.True(testInstance, ancestor)

	ancestor, ancestorError = manager.IsAncestor(context.Background(), testRepositoryPathConstant, "HEAD", "origin/feature")
	require.NoError(testInstance, ancestorError)
	require.False(testInstance, ancestor)

	_, ancestorError = manager.IsAncestor(context.Background(), testRepositoryPathConstant, "HEAD", "origin/unknown")
	require.Error(testInstance, ancestorError)
}

func TestRemoteDefaultBranch(testInstance *testing.T) {
	testCases := []struct {
		name           string
		responses      map[string]execshell.ExecutionResult
		expectedBranch string
		expectError    error
	}{
		{
			name: "symbolic_head",
			responses: map[string]execshell.ExecutionResult{
				"symbolic-ref --quiet --short refs/remotes/origin/HEAD": {StandardOutput: "origin/trunk\n"},
			},
			expectedBranch: "trunk",
		},
		{
			name: "fallback_master",
			responses: map[string]execshell.ExecutionResult{
				"rev-parse --verify --quiet refs/remotes/origin/main^{commit}":   {ExitCode: 1},
				"rev-parse --verify --quiet refs/remotes/origin/master^{commit}": {StandardOutput: "abc\n"},
			},
			expectedBranch: "master",
		},
		{
			name: "none",
			responses: map[string]execshell.ExecutionResult{
				"rev-parse --verify --quiet refs/remotes/origin/main^{commit}":   {ExitCode: 1},
				"rev-parse --verify --quiet refs/remotes/origin/master^{commit}": {ExitCode: 1},
			},
			expectError: gitrepo.ErrDefaultBranchNotFound,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, _ := newScriptedManager(testInstance, testCase.responses)
			branch, branchError := manager.RemoteDefaultBranch(context.Background(), testRepositoryPathConstant, "origin")
			if testCase.expectError != nil {
				require.ErrorIs(testInstance, branchError, testCase.expectError)
				return
			}
			require.NoError(testInstance, branchError)
			require.Equal(testInstance, testCase.expectedBranch, branch)
		})
	}
}

func TestRepositoryManagerRejectsEmptyPath(testInstance *testing.T) {
	manager, _ := newScriptedManager(testInstance, nil)
	_, branchError := manager.GetCurrentBranch(context.Background(), "  ")
	require.ErrorIs(testInstance, branchError, gitrepo.ErrRepositoryPathRequired)
}
