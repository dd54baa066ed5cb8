// Package resolver merges the configuration tiers into the ordered repository list of a workspace.
package resolver

import (
	"context"
	"errors"

	"github.com/temirov/workspace/internal/configstore"
	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	storeNotConfiguredMessageConstant = "resolver configuration store not configured"
	overridesReadMessageConstant      = "unable to read workspace overrides"
	defaultsReadMessageConstant       = "unable to read default repositories"
	legacyReadMessageConstant         = "unable to read legacy configuration"
)

// ErrStoreNotConfigured indicates the resolver was constructed without a store.
var ErrStoreNotConfigured = errors.New(storeNotConfiguredMessageConstant)

// Resolver merges override, default and legacy tiers. The repository name is the merge key.
type Resolver struct {
	store configstore.Store
}

// NewResolver constructs a Resolver over store.
func NewResolver(store configstore.Store) (*Resolver, error) {
	if store == nil {
		return nil, ErrStoreNotConfigured
	}
	return &Resolver{store: store}, nil
}

// Resolve returns the effective specs of a workspace: overrides first, then the remaining defaults,
// then the remaining legacy entries.
func (resolver *Resolver) Resolve(executionContext context.Context, workspaceName string) ([]shared.RepositorySpec, error) {
	tieredSpecs, resolveError := resolver.ResolveWithTiers(executionContext, workspaceName)
	if resolveError != nil {
		return nil, resolveError
	}
	specs := make([]shared.RepositorySpec, 0, len(tieredSpecs))
	for _, tieredSpec := range tieredSpecs {
		specs = append(specs, tieredSpec.Spec)
	}
	return specs, nil
}

// ResolveWithTiers is Resolve with the tier each spec was taken from.
func (resolver *Resolver) ResolveWithTiers(executionContext context.Context, workspaceName string) ([]shared.TieredRepositorySpec, error) {
	if validationError := shared.ValidateWorkspaceName(workspaceName); validationError != nil {
		return nil, validationError
	}
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}

	overrides, overridesError := resolver.store.Overrides(workspaceName)
	if overridesError != nil {
		return nil, asConfigError(workspaceName, overridesReadMessageConstant, overridesError)
	}
	defaults, defaultsError := resolver.store.Defaults()
	if defaultsError != nil {
		return nil, asConfigError(workspaceName, defaultsReadMessageConstant, defaultsError)
	}
	legacy, legacyError := resolver.store.Legacy()
	if legacyError != nil {
		return nil, asConfigError(workspaceName, legacyReadMessageConstant, legacyError)
	}

	return Merge(
		TierEntries{Tier: shared.TierWorkspaceOverride, Specs: overrides},
		TierEntries{Tier: shared.TierDefaultTemplate, Specs: defaults},
		TierEntries{Tier: shared.TierLegacyFile, Specs: legacy},
	), nil
}

// TierEntries holds the specs read from one tier.
type TierEntries struct {
	Tier  shared.ConfigTier
	Specs []shared.RepositorySpec
}

// Merge combines tiers given in precedence order. Each name appears once, taken from the first tier
// that defines it; inside a tier a repeated name keeps its first position and the last entry's values.
func Merge(tiers ...TierEntries) []shared.TieredRepositorySpec {
	var merged []shared.TieredRepositorySpec
	claimedNames := make(map[string]struct{})

	for _, tier := range tiers {
		tierPositions := make(map[string]int)
		for _, spec := range tier.Specs {
			if _, claimedByHigherTier := claimedNames[spec.Name]; claimedByHigherTier {
				continue
			}
			if position, seenInTier := tierPositions[spec.Name]; seenInTier {
				merged[position].Spec = spec
				continue
			}
			tierPositions[spec.Name] = len(merged)
			merged = append(merged, shared.TieredRepositorySpec{Spec: spec, Tier: tier.Tier})
		}
		for name := range tierPositions {
			claimedNames[name] = struct{}{}
		}
	}

	return merged
}

func asConfigError(workspaceName string, message string, cause error) error {
	if errors.Is(cause, repoerrors.ErrConfig) {
		return cause
	}
	return repoerrors.NewConfigError(workspaceName, repoerrors.OperationResolve, message, cause)
}
