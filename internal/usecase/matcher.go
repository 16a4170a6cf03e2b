package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/mealsense/backend/internal/domain"
)

// Package-level compiled regex patterns for performance.
// queryCharRegex keeps letters (including CJK), digits and whitespace.
var (
	queryCharRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// Matcher resolves a free-text food mention to a single catalog entry.
// It is a top-1 resolver: the caller receives at most one match, ranked by
// the store's index (exact name prefix above alias-only prefix).
type Matcher struct {
	catalog domain.CatalogRepository
}

// NewMatcher creates a matcher backed by the given catalog.
func NewMatcher(catalog domain.CatalogRepository) *Matcher {
	return &Matcher{catalog: catalog}
}

// Match resolves rawName to its best catalog entry. Empty or garbage input
// returns ErrFoodNotFound, never an error of any other kind from this layer.
func (m *Matcher) Match(ctx context.Context, rawName string) (*domain.FoodEntry, error) {
	query := NormalizeQuery(rawName)
	if query == "" {
		return nil, domain.ErrFoodNotFound
	}
	return m.catalog.SearchBest(ctx, query)
}

// NormalizeQuery lower-cases s, strips characters outside letters, digits and
// whitespace, and collapses runs of whitespace.
func NormalizeQuery(s string) string {
	result := strings.ToLower(s)
	result = queryCharRegex.ReplaceAllString(result, " ")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
