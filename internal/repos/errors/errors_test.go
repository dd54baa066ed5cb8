package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
)

type exitCodeError struct {
	code int
}

func (failure exitCodeError) Error() string {
	return fmt.Sprintf("exit %d", failure.code)
}

func (failure exitCodeError) ExitCode() int {
	return failure.code
}

func TestOperationErrorMessages(testInstance *testing.T) {
	testCases := []struct {
		name            string
		err             error
		expectedMessage string
		expectedKind    error
	}{
		{
			name:            "config",
			err:             repoerrors.NewConfigError("main", repoerrors.OperationResolve, "workspace.yaml line 3: malformed", nil),
			expectedMessage: "main resolve: workspace.yaml line 3: malformed",
			expectedKind:    repoerrors.ErrConfig,
		},
		{
			name:            "network_with_cause",
			err:             repoerrors.NewNetworkError("app", repoerrors.OperationClone, errors.New("could not resolve host")),
			expectedMessage: "app clone: remote unreachable: could not resolve host",
			expectedKind:    repoerrors.ErrNetwork,
		},
		{
			name:            "link_conflict",
			err:             repoerrors.NewLinkConflictError("main", "app", "/root/worktrees/main/app"),
			expectedMessage: "main/app link: path occupied /root/worktrees/main/app",
			expectedKind:    repoerrors.ErrLinkConflict,
		},
		{
			name:            "not_in_workspace",
			err:             repoerrors.NewNotInWorkspaceError("/tmp"),
			expectedMessage: "workspace locate: not in workspace: /tmp",
			expectedKind:    repoerrors.ErrNotInWorkspace,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.EqualError(testInstance, testCase.err, testCase.expectedMessage)
			require.ErrorIs(testInstance, testCase.err, testCase.expectedKind)
		})
	}
}

func TestOperationErrorUnwrapsCause(testInstance *testing.T) {
	cause := errors.New("permission denied")
	wrapped := repoerrors.Wrap(nil, "main", "app", repoerrors.OperationUnlink, "", cause)
	require.ErrorIs(testInstance, wrapped, cause)
	require.EqualError(testInstance, wrapped, "main/app unlink: permission denied")
}

func TestBatchErrorSummarizesFailures(testInstance *testing.T) {
	batchError := repoerrors.BatchError{
		Operation: repoerrors.OperationSync,
		Total:     3,
		Failures: []error{
			repoerrors.NewSyncConflictError("main", "app", "diverged", nil),
			repoerrors.NewNetworkError("lib", repoerrors.OperationFetch, nil),
		},
	}
	require.EqualError(testInstance, batchError, "sync failed for 2 of 3 repositories")
	require.ErrorIs(testInstance, batchError, repoerrors.ErrSyncConflict)
	require.ErrorIs(testInstance, batchError, repoerrors.ErrNetwork)
}

func TestExitCode(testInstance *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{name: "success", expectedCode: repoerrors.ExitCodeSuccess},
		{name: "config", err: repoerrors.NewConfigError("", repoerrors.OperationStore, "", nil), expectedCode: repoerrors.ExitCodeConfiguration},
		{name: "usage", err: repoerrors.NewUsageError(errors.New("unknown flag")), expectedCode: repoerrors.ExitCodeConfiguration},
		{name: "not_found", err: repoerrors.NewNotFoundError("ghost", "", repoerrors.OperationSync, "workspace not found"), expectedCode: repoerrors.ExitCodeNotFound},
		{name: "not_in_workspace", err: repoerrors.NewNotInWorkspaceError("/"), expectedCode: repoerrors.ExitCodeNotInWorkspace},
		{name: "network", err: repoerrors.NewNetworkError("app", repoerrors.OperationFetch, nil), expectedCode: repoerrors.ExitCodeOperational},
		{name: "exit_coder", err: fmt.Errorf("wrapped: %w", exitCodeError{code: 7}), expectedCode: 7},
		{name: "exit_coder_zero", err: exitCodeError{}, expectedCode: repoerrors.ExitCodeOperational},
		{
			name: "batch_uses_first_failure",
			err: repoerrors.BatchError{Operation: repoerrors.OperationSwitch, Total: 2, Failures: []error{
				repoerrors.NewNotFoundError("main", "app", repoerrors.OperationLink, ""),
				repoerrors.NewConfigError("main", repoerrors.OperationResolve, "", nil),
			}},
			expectedCode: repoerrors.ExitCodeNotFound,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedCode, repoerrors.ExitCode(testCase.err))
		})
	}
}
