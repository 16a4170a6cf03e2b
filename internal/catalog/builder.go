package catalog

import (
	"context"
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/mealsense/backend/internal/domain"
)

// Builder merges ranked raw sources into the canonical catalog. It runs
// offline, outside the request path, and is idempotent: the same inputs
// always produce the same merged catalog.
type Builder struct {
	store *Store
}

// NewBuilder creates a builder that writes into store.
func NewBuilder(store *Store) *Builder {
	return &Builder{store: store}
}

// Build merges the sources (highest priority first) and replaces the store
// contents in one atomic step. Returns the number of merged entries.
func (b *Builder) Build(ctx context.Context, sources []Source) (int, error) {
	entries := Merge(sources)
	if err := b.store.ReplaceAll(ctx, entries); err != nil {
		return 0, err
	}
	log.Printf("[BUILD] catalog replaced: %d entries from %d sources", len(entries), len(sources))
	return len(entries), nil
}

// Merge folds the ranked sources into one FoodEntry per distinct food
// concept. The first record seen under a merge key becomes the base; later
// (lower-priority) records only fill fields the base left empty. Nutrient
// vectors fill per field, so a curated record missing sodium still picks it
// up from a bulk source. Aliases union across all contributing records.
func Merge(sources []Source) []domain.FoodEntry {
	byKey := make(map[string]*domain.FoodEntry)
	order := make([]string, 0)

	for _, src := range sources {
		for _, rec := range src.Records {
			entry, ok := normalizeRecord(rec, src.Name)
			if !ok {
				continue
			}

			key := mergeKey(entry.Name)
			if key == "" {
				continue
			}

			base, seen := byKey[key]
			if !seen {
				e := entry
				byKey[key] = &e
				order = append(order, key)
				continue
			}
			fillEntry(base, &entry)
		}
	}

	merged := make([]domain.FoodEntry, 0, len(order))
	for _, key := range order {
		e := byKey[key]
		e.Aliases = dedupeSorted(e.Aliases)
		merged = append(merged, *e)
	}

	// Deterministic output regardless of map iteration or source file order
	// within a priority tier.
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

// fillEntry merges a lower-priority record into base, only filling gaps.
// The base's populated fields, including its id, are never overwritten.
func fillEntry(base *domain.FoodEntry, other *domain.FoodEntry) {
	if base.Category == "" {
		base.Category = other.Category
	}
	if base.DefaultPortion == nil {
		base.DefaultPortion = other.DefaultPortion
	}
	if base.Source == "" {
		base.Source = other.Source
	}

	if other.Per100g != nil {
		if base.Per100g == nil {
			base.Per100g = &domain.NutrientVector{}
		}
		base.Per100g.FillFrom(other.Per100g)
	}
	if other.Per100ml != nil {
		if base.Per100ml == nil {
			base.Per100ml = &domain.NutrientVector{}
		}
		base.Per100ml.FillFrom(other.Per100ml)
	}

	for key, effect := range other.Modifiers {
		if base.Modifiers == nil {
			base.Modifiers = make(map[string]domain.ModifierEffect)
		}
		if _, exists := base.Modifiers[key]; !exists {
			base.Modifiers[key] = effect
		}
	}

	base.Aliases = append(base.Aliases, other.Aliases...)
	if otherName := strings.ToLower(other.Name); otherName != strings.ToLower(base.Name) {
		base.Aliases = append(base.Aliases, otherName)
	}
}

// mergeKey lower-cases a name and strips everything that is not a letter or
// digit, so "Nasi Lemak" and "nasi-lemak" collapse to the same key.
func mergeKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dedupeSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
