// Package configstore persists repository configuration in three tiers: per-workspace overrides and
// inherited defaults in workspace.yaml, and the read-only legacy workspace.conf.
//
// Every mutation rewrites the whole store document through an atomic temp-file rename.
package configstore
