package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageDescribesGitOperations(t *testing.T) {
	testCases := []struct {
		name             string
		arguments        []string
		workingDirectory string
		expectedMessage  string
	}{
		{
			name:             "clone",
			arguments:        []string{"clone", "--no-checkout", "https://example.com/app.git", "/root/repos/.app.partial-1"},
			workingDirectory: "/root/repos",
			expectedMessage:  "Cloning https://example.com/app.git into /root/repos/.app.partial-1",
		},
		{
			name:             "fetch",
			arguments:        []string{"fetch", "--prune", "origin"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Fetching from origin in /root/repos/app",
		},
		{
			name:             "fetch_without_remote",
			arguments:        []string{"fetch", "--prune"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Fetching from all remotes in /root/repos/app",
		},
		{
			name:             "worktree_add_existing_branch",
			arguments:        []string{"worktree", "add", "--force", "/root/worktrees/main/app", "main"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Adding worktree for main at /root/worktrees/main/app",
		},
		{
			name:             "worktree_add_new_branch",
			arguments:        []string{"worktree", "add", "--force", "--no-track", "-b", "relX", "/root/worktrees/relX/app", "origin/main"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Adding worktree for relX at /root/worktrees/relX/app",
		},
		{
			name:             "worktree_remove",
			arguments:        []string{"worktree", "remove", "--force", "/root/worktrees/main/app"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Removing worktree /root/worktrees/main/app",
		},
		{
			name:             "worktree_prune",
			arguments:        []string{"worktree", "prune"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Pruning stale worktree metadata in /root/repos/app",
		},
		{
			name:             "merge_fast_forward",
			arguments:        []string{"merge", "--ff-only", "origin/main"},
			workingDirectory: "/root/worktrees/main/app",
			expectedMessage:  "Fast-forwarding /root/worktrees/main/app to origin/main",
		},
		{
			name:             "detached_checkout",
			arguments:        []string{"checkout", "--detach", "v1.0.0"},
			workingDirectory: "/root/worktrees/main/lib",
			expectedMessage:  "Pinning /root/worktrees/main/lib at v1.0.0",
		},
		{
			name:             "current_branch",
			arguments:        []string{"rev-parse", "--abbrev-ref", "HEAD"},
			workingDirectory: "/root/worktrees/main/app",
			expectedMessage:  "Identifying current branch in /root/worktrees/main/app",
		},
		{
			name:             "unknown_subcommand",
			arguments:        []string{"gc"},
			workingDirectory: "/root/repos/app",
			expectedMessage:  "Running git gc (in /root/repos/app)",
		},
	}

	formatter := CommandMessageFormatter{}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := ShellCommand{
				Name: CommandGit,
				Details: CommandDetails{
					Arguments:        testCase.arguments,
					WorkingDirectory: testCase.workingDirectory,
				},
			}
			require.Equal(t, testCase.expectedMessage, formatter.BuildStartedMessage(command))
		})
	}
}

func TestBuildFailureMessageIncludesStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"merge", "--ff-only", "origin/main"},
			WorkingDirectory: "/root/worktrees/main/app",
		},
	}

	message := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 128, StandardError: "fatal: Not possible to fast-forward, aborting.\n"})

	require.Equal(t, "Failed to fast-forward /root/worktrees/main/app to origin/main (exit code 128: fatal: Not possible to fast-forward, aborting.)", message)
}

func TestShellMessagesDescribeScript(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandShell,
		Details: CommandDetails{
			Arguments:        []string{"-c", "git status --short"},
			WorkingDirectory: "/root/worktrees/main/app",
		},
	}

	require.Equal(t, "Running `git status --short` in /root/worktrees/main/app", formatter.BuildStartedMessage(command))
	require.Equal(t, "`git status --short` exited with code 2 in /root/worktrees/main/app", formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 2}))
	require.Equal(t, "Unable to run `git status --short` in /root/worktrees/main/app: boom", formatter.BuildExecutionFailureMessage(command, errors.New("boom")))
}
