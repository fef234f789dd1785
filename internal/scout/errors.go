// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scout

import (
	"fmt"

	"github.com/pdiddy/game-scout/pkg/types"
)

// QueryError is the failure of one executed query, carrying the provider and
// category context for display.
type QueryError struct {
	Query    string
	Provider types.Provider
	Category types.Category
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query %q (%s): %v", e.Category, e.Query, e.Provider, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
