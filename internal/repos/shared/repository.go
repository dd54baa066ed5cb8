package shared

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/temirov/workspace/internal/gitrepo"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
)

const (
	repositoryURLRequiredMessageConstant      = "repository url is required"
	repositoryNameInvalidTemplateConstant     = "cannot derive a repository name from %q"
	workspaceNameRequiredMessageConstant      = "workspace name is required"
	workspaceNameWhitespaceTemplateConstant   = "workspace name %q must not contain whitespace"
	workspaceNameLeadingTemplateConstant      = "workspace name %q must not start with %q"
	workspaceNameTraversalTemplateConstant    = "workspace name %q must not contain %q segments"
	workspaceNameEmptySegmentTemplateConstant = "workspace name %q must not contain empty segments"
	workspaceNameSegmentSeparatorConstant     = "/"
	workspaceNameParentSegmentConstant        = ".."
	workspaceNameCurrentSegmentConstant       = "."
	forbiddenLeadingDashConstant              = "-"
	repositoryDescriptionTemplateConstant     = "%s (%s)"
	repositoryPinnedDescriptionTemplate       = "%s (%s @ %s)"
)

// RepositorySpec describes one repository of a workspace: where it comes from and which line of history it follows.
type RepositorySpec struct {
	Name      string
	URL       string
	Branch    string
	PinnedRef string
}

// NewRepositorySpec builds a spec deriving its name from the URL.
func NewRepositorySpec(repositoryURL string, branch string, pinnedRef string) (RepositorySpec, error) {
	trimmedURL := strings.TrimSpace(repositoryURL)
	if len(trimmedURL) == 0 {
		return RepositorySpec{}, repoerrors.NewConfigError("", repoerrors.OperationConfigure, repositoryURLRequiredMessageConstant, nil)
	}
	repositoryName := gitrepo.RepositoryNameFromURL(trimmedURL)
	if len(repositoryName) == 0 || repositoryName == "." || repositoryName == workspaceNameParentSegmentConstant {
		return RepositorySpec{}, repoerrors.NewConfigError("", repoerrors.OperationConfigure, fmt.Sprintf(repositoryNameInvalidTemplateConstant, trimmedURL), nil)
	}
	return RepositorySpec{
		Name:      repositoryName,
		URL:       trimmedURL,
		Branch:    strings.TrimSpace(branch),
		PinnedRef: strings.TrimSpace(pinnedRef),
	}, nil
}

// EffectiveBranch returns the branch the checkout follows inside the named workspace.
func (spec RepositorySpec) EffectiveBranch(workspaceName string) string {
	if len(spec.Branch) > 0 {
		return spec.Branch
	}
	return workspaceName
}

// IsPinned reports whether the repository is fixed to a reference.
func (spec RepositorySpec) IsPinned() bool {
	return len(spec.PinnedRef) > 0
}

// Describe renders the spec for progress output.
func (spec RepositorySpec) Describe(workspaceName string) string {
	if spec.IsPinned() {
		return fmt.Sprintf(repositoryPinnedDescriptionTemplate, spec.Name, spec.EffectiveBranch(workspaceName), spec.PinnedRef)
	}
	return fmt.Sprintf(repositoryDescriptionTemplateConstant, spec.Name, spec.EffectiveBranch(workspaceName))
}

// ConfigTier identifies where a resolved spec came from. Lower values take precedence.
type ConfigTier int

const (
	// TierWorkspaceOverride holds entries configured for a single workspace.
	TierWorkspaceOverride ConfigTier = iota
	// TierDefaultTemplate holds entries inherited by every workspace.
	TierDefaultTemplate
	// TierLegacyFile holds entries read from the flat legacy file.
	TierLegacyFile
)

// String returns the label used in listings.
func (tier ConfigTier) String() string {
	switch tier {
	case TierWorkspaceOverride:
		return "override"
	case TierDefaultTemplate:
		return "default"
	case TierLegacyFile:
		return "legacy"
	default:
		return "unknown"
	}
}

// TieredRepositorySpec couples a resolved spec with its provenance.
type TieredRepositorySpec struct {
	Spec RepositorySpec
	Tier ConfigTier
}

// CheckoutState is the lifecycle state of one repository checkout.
type CheckoutState int

const (
	// CheckoutAbsent means no checkout directory exists.
	CheckoutAbsent CheckoutState = iota
	// CheckoutLinked means the checkout exists but its mode was not determined.
	CheckoutLinked
	// CheckoutTracking means the checkout follows a branch.
	CheckoutTracking
	// CheckoutPinned means the checkout is detached at a fixed reference.
	CheckoutPinned
	// CheckoutBroken means the checkout exists but its linkage is unusable.
	CheckoutBroken
)

// String returns the state label.
func (state CheckoutState) String() string {
	switch state {
	case CheckoutAbsent:
		return "absent"
	case CheckoutLinked:
		return "linked"
	case CheckoutTracking:
		return "tracking"
	case CheckoutPinned:
		return "pinned"
	case CheckoutBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// IsHealthy reports whether the checkout is usable as-is.
func (state CheckoutState) IsHealthy() bool {
	return state == CheckoutLinked || state == CheckoutTracking || state == CheckoutPinned
}

// CentralRepository is the shared clone every checkout of a repository is linked to.
type CentralRepository struct {
	Name string
	URL  string
	Path string
}

// RepositoryCheckout is one repository's working directory inside a workspace.
type RepositoryCheckout struct {
	Path         string
	Spec         RepositorySpec
	State        CheckoutState
	CentralPath  string
	BrokenReason string
}

// Workspace is a named set of checkouts.
type Workspace struct {
	Name         string
	RootPath     string
	Repositories map[string]RepositoryCheckout
}

// ValidateWorkspaceName rejects names that cannot be mapped onto a directory under the worktrees directory.
func ValidateWorkspaceName(workspaceName string) error {
	if len(workspaceName) == 0 {
		return repoerrors.NewConfigError(workspaceName, repoerrors.OperationResolve, workspaceNameRequiredMessageConstant, nil)
	}
	if strings.IndexFunc(workspaceName, unicode.IsSpace) >= 0 {
		return repoerrors.NewConfigError(workspaceName, repoerrors.OperationResolve, fmt.Sprintf(workspaceNameWhitespaceTemplateConstant, workspaceName), nil)
	}
	for _, forbiddenPrefix := range []string{forbiddenLeadingDashConstant, workspaceNameSegmentSeparatorConstant} {
		if strings.HasPrefix(workspaceName, forbiddenPrefix) {
			return repoerrors.NewConfigError(workspaceName, repoerrors.OperationResolve, fmt.Sprintf(workspaceNameLeadingTemplateConstant, workspaceName, forbiddenPrefix), nil)
		}
	}
	for _, segment := range strings.Split(workspaceName, workspaceNameSegmentSeparatorConstant) {
		if segment == workspaceNameParentSegmentConstant || segment == workspaceNameCurrentSegmentConstant {
			return repoerrors.NewConfigError(workspaceName, repoerrors.OperationResolve, fmt.Sprintf(workspaceNameTraversalTemplateConstant, workspaceName, segment), nil)
		}
		if len(segment) == 0 {
			return repoerrors.NewConfigError(workspaceName, repoerrors.OperationResolve, fmt.Sprintf(workspaceNameEmptySegmentTemplateConstant, workspaceName), nil)
		}
	}
	return nil
}
