package settings

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no settings document exists for a culture.
var ErrNotFound = errors.New("settings not found")

// NotFoundError reports a culture without settings and without a usable fallback.
type NotFoundError struct {
	Culture string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no settings exist for %s", e.Culture)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
