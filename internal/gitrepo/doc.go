// Package gitrepo answers repository-level questions through the git CLI.
//
// RepositoryManager reports working tree cleanliness, the current branch,
// remote URLs, reference existence, ancestry and a remote's default branch.
// RepositoryNameFromURL derives the name a repository is stored under.
package gitrepo
