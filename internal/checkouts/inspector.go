package checkouts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	gitDirectoryPrefixConstant     = "gitdir:"
	fileSystemNotConfiguredMessage = "checkout inspector file system not configured"
)

// ErrFileSystemNotConfigured indicates the inspector was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)

// Inspector collects CheckoutMetadata.
type Inspector struct {
	fileSystem shared.FileSystem
}

// NewInspector constructs an Inspector.
func NewInspector(fileSystem shared.FileSystem) (*Inspector, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &Inspector{fileSystem: fileSystem}, nil
}

// Collect gathers facts about the checkout at checkoutPath, expected to be linked to centralPath.
// Collection stops at the first missing fact; it never fails.
func (inspector *Inspector) Collect(executionContext context.Context, checkoutPath string, centralPath string) CheckoutMetadata {
	var metadata CheckoutMetadata

	if info, statError := inspector.fileSystem.Stat(checkoutPath); statError != nil || !info.IsDir() {
		return metadata
	}
	metadata.PathExists = true

	if info, statError := inspector.fileSystem.Stat(centralPath); statError == nil && info.IsDir() {
		metadata.CentralExists = true
	}

	gitEntryPath := filepath.Join(checkoutPath, shared.GitMetadataEntryNameConstant)
	gitEntryInfo, gitEntryError := inspector.fileSystem.Lstat(gitEntryPath)
	if gitEntryError != nil {
		return metadata
	}
	metadata.GitEntryExists = true
	metadata.GitEntryIsFile = gitEntryInfo.Mode().IsRegular()
	if !metadata.GitEntryIsFile {
		inspector.collectHead(executionContext, checkoutPath, &metadata)
		return metadata
	}

	metadata.GitDirTarget = inspector.readGitDirTarget(checkoutPath, gitEntryPath)
	if len(metadata.GitDirTarget) == 0 {
		return metadata
	}
	if info, statError := inspector.fileSystem.Stat(metadata.GitDirTarget); statError == nil && info.IsDir() {
		metadata.GitDirTargetExists = true
	}
	if !metadata.GitDirTargetExists || !metadata.CentralExists {
		return metadata
	}

	inspector.collectHead(executionContext, checkoutPath, &metadata)
	return metadata
}

func (inspector *Inspector) collectHead(executionContext context.Context, checkoutPath string, metadata *CheckoutMetadata) {
	if executionContext.Err() != nil {
		return
	}
	repository, openError := git.PlainOpenWithOptions(checkoutPath, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if openError != nil {
		return
	}

	headReference, headError := repository.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			metadata.HeadResolvable = true
		}
		return
	}
	metadata.HeadResolvable = true
	metadata.HeadHash = headReference.Hash().String()
	metadata.Detached = !headReference.Name().IsBranch()
	if !metadata.Detached {
		metadata.BranchName = headReference.Name().Short()
	}

	if _, commitError := repository.CommitObject(headReference.Hash()); commitError == nil {
		metadata.HasCommits = true
	}
}

func (inspector *Inspector) readGitDirTarget(checkoutPath string, gitEntryPath string) string {
	content, readError := inspector.fileSystem.ReadFile(gitEntryPath)
	if readError != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, gitDirectoryPrefixConstant) {
			continue
		}
		target := strings.TrimSpace(strings.TrimPrefix(line, gitDirectoryPrefixConstant))
		if len(target) == 0 {
			return ""
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(checkoutPath, target)
		}
		return filepath.Clean(target)
	}
	return ""
}

// Inspect collects and classifies the checkout of spec inside a workspace.
func (inspector *Inspector) Inspect(executionContext context.Context, layout shared.Layout, workspaceName string, spec shared.RepositorySpec) (shared.RepositoryCheckout, CheckoutMetadata) {
	checkout := shared.RepositoryCheckout{
		Path:        layout.CheckoutPath(workspaceName, spec.Name),
		Spec:        spec,
		CentralPath: layout.CentralPath(spec.Name),
	}
	metadata := inspector.Collect(executionContext, checkout.Path, checkout.CentralPath)
	checkout.State, checkout.BrokenReason = DetectState(metadata, spec)
	return checkout, metadata
}
