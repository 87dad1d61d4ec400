package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrChapterUnknown = errors.New("chapter not found")
	ErrLoadCatalog    = errors.New("failed to load catalog")
)
