package roster

import "errors"

var (
	// ErrCriterionNotFound indicates an operation referenced a criterion
	// that is not in the collection.
	ErrCriterionNotFound = errors.New("roster: criterion not found")
)
