package catalog

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for goal catalog validation
var (
	ErrCatalogMissing    = goerr.New("goal catalog file is missing")
	ErrCatalogEmpty      = goerr.New("goal catalog contains no goal IDs")
	ErrNoReferences      = goerr.New("no goal references provided")
	ErrUnknownReferences = goerr.New("unknown goal IDs referenced")
)
