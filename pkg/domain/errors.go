package domain

import (
	"errors"
	"fmt"
)

// NotFoundError signals that a lookup by id missed. Lookups in the read path
// return an absent boolean instead; this error exists for the one mutation
// path (report status review) where the caller must learn the miss.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
