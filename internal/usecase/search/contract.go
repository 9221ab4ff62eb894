package search

import (
	"context"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/module"
)

// Repository executes a composed query against the index backend. A failure
// here is fatal to the request (the read path has no fallback).
type Repository interface {
	Search(ctx context.Context, raw string, returnFields []string, window int) (int, []domain.SearchHit, error)
}

// PermissionResolver computes the caller's permitted module set.
type PermissionResolver interface {
	Resolve(ctx context.Context, role string) (map[module.Module]bool, error)
}
