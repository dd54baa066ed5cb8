// Package workspaces manages the lifecycle of workspaces: creating and switching to them, syncing tracked
// checkouts, repairing broken ones, listing and cleaning them up.
//
// Batch operations isolate per-repository failures: every repository is attempted and the report lists
// what happened to each. A report with failures converts to a BatchError.
package workspaces
