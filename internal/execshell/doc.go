// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with lifecycle logging and converts
// non-zero exits into typed errors. OSCommandRunner is the os/exec backed
// runner used for git and for the shell that evaluates foreach commands.
package execshell
