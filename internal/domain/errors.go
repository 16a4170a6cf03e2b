package domain

import "errors"

var (
	// ErrFoodNotFound is returned when a query or id resolves to no catalog entry
	ErrFoodNotFound = errors.New("food not found in catalog")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrExtractionUnavailable is returned when the external extraction service
	// cannot be reached or errors outright
	ErrExtractionUnavailable = errors.New("extraction service unavailable")

	// ErrStorage is returned when the catalog store is unreadable or corrupt
	ErrStorage = errors.New("catalog storage failure")
)
