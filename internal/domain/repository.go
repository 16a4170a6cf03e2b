package domain

import "context"

// CatalogRepository defines read and replace access to the merged food catalog.
// Reads are safe to call concurrently while ReplaceAll swaps the contents.
type CatalogRepository interface {
	// SearchBest resolves a normalized free-text query to the single
	// best-ranked entry, or ErrFoodNotFound.
	SearchBest(ctx context.Context, query string) (*FoodEntry, error)

	// SearchSummaries returns up to limit ranked summaries for a query.
	SearchSummaries(ctx context.Context, query string, limit int) ([]FoodSummary, error)

	// GetByID fetches the full entry for an id, or ErrFoodNotFound.
	GetByID(ctx context.Context, id string) (*FoodEntry, error)

	// ReplaceAll atomically replaces the whole catalog and its search index.
	// Readers never observe a partially replaced catalog.
	ReplaceAll(ctx context.Context, entries []FoodEntry) error
}

// ExtractionInput is the raw material handed to the external extraction
// service. Any combination of fields may be set.
type ExtractionInput struct {
	Text        string
	ImageBase64 string
	ImageURL    string
}

// ExtractionClient defines the interface to the external OCR/LLM extraction
// service. The returned string is the service's raw output, possibly prose
// wrapped around JSON; callers normalize it downstream.
type ExtractionClient interface {
	Extract(ctx context.Context, input ExtractionInput) (string, error)
}
