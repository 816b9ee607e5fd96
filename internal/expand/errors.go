package expand

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec marks a malformed or ambiguous hyperparameter declaration.
// Expansion never emits partial output: the first such error aborts the
// whole expansion.
var ErrInvalidSpec = errors.New("invalid spec")

// invalidSpec wraps ErrInvalidSpec with the offending key so users can see
// which declaration triggered the failure.
func invalidSpec(key, format string, args ...any) error {
	return fmt.Errorf("%w: key %q: %s", ErrInvalidSpec, key, fmt.Sprintf(format, args...))
}
