package checkouts

import "github.com/temirov/workspace/internal/repos/shared"

// Broken reasons reported by DetectState.
const (
	BrokenReasonMissingGitMetadata  = "missing git metadata"
	BrokenReasonInvalidWorktreeLink = "invalid worktree link"
	BrokenReasonMissingCentral      = "missing central repository"
	BrokenReasonStandalone          = "standalone repository"
	BrokenReasonUnresolvableHead    = "unresolvable HEAD"
	BrokenReasonNoCommits           = "no commits"
)

// CheckoutMetadata holds the facts DetectState classifies.
type CheckoutMetadata struct {
	PathExists         bool
	GitEntryExists     bool
	GitEntryIsFile     bool
	GitDirTarget       string
	GitDirTargetExists bool
	CentralExists      bool
	HeadResolvable     bool
	HasCommits         bool
	Detached           bool
	BranchName         string
	HeadHash           string
}

// DetectState classifies a checkout against the spec it should follow. A healthy checkout whose mode
// disagrees with the spec (detached without a pin, or on a branch despite one) is reported as linked.
func DetectState(metadata CheckoutMetadata, spec shared.RepositorySpec) (shared.CheckoutState, string) {
	switch {
	case !metadata.PathExists:
		return shared.CheckoutAbsent, ""
	case !metadata.GitEntryExists:
		return shared.CheckoutBroken, BrokenReasonMissingGitMetadata
	case !metadata.GitEntryIsFile:
		return shared.CheckoutBroken, BrokenReasonStandalone
	case !metadata.CentralExists:
		return shared.CheckoutBroken, BrokenReasonMissingCentral
	case !metadata.GitDirTargetExists:
		return shared.CheckoutBroken, BrokenReasonInvalidWorktreeLink
	case !metadata.HeadResolvable:
		return shared.CheckoutBroken, BrokenReasonUnresolvableHead
	case !metadata.HasCommits:
		return shared.CheckoutBroken, BrokenReasonNoCommits
	case metadata.Detached != spec.IsPinned():
		return shared.CheckoutLinked, ""
	case metadata.Detached:
		return shared.CheckoutPinned, ""
	default:
		return shared.CheckoutTracking, ""
	}
}
