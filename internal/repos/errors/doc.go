// Package errors defines the failure taxonomy shared by workspace operations
// and the mapping from failures to process exit codes.
package errors
