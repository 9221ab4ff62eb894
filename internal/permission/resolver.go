// Package permission maps a caller's role onto the set of modules their
// searches may touch. The role/menu grant model lives in an external system
// and is consumed as a read-only lookup.
package permission

import (
	"context"
	"fmt"

	"github.com/meridianhq/searchcore/internal/domain/module"
)

// GrantLookup resolves a role to its granted menu codes.
type GrantLookup interface {
	GrantedMenuCodes(ctx context.Context, role string) ([]string, error)
}

// Resolver computes permitted module sets.
type Resolver struct {
	registry *module.Registry
	grants   GrantLookup
}

// New creates a resolver.
func New(registry *module.Registry, grants GrantLookup) *Resolver {
	return &Resolver{registry: registry, grants: grants}
}

// Resolve returns the modules the role may search. A module with no menu
// code is always visible; one with a menu code is visible only when the
// role's grants include it.
func (r *Resolver) Resolve(ctx context.Context, role string) (map[module.Module]bool, error) {
	codes, err := r.grants.GrantedMenuCodes(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("lookup grants for role %q: %w", role, err)
	}

	granted := make(map[string]bool, len(codes))
	for _, c := range codes {
		granted[c] = true
	}

	permitted := make(map[module.Module]bool)
	for _, m := range r.registry.Modules() {
		spec, _ := r.registry.Spec(m)
		if spec.MenuCode == "" || granted[spec.MenuCode] {
			permitted[m] = true
		}
	}
	return permitted, nil
}
