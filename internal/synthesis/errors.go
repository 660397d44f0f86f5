package synthesis

import (
	"errors"
	"fmt"

	"tidybox/internal/services"
)

var (
	// ErrExternalCall marks a failed model request. Item-scoped.
	ErrExternalCall = fmt.Errorf("%w: call failed", services.ErrProvider)
	// ErrSchemaViolation marks a response that is not JSON or does not match
	// the pass schema. Item-scoped.
	ErrSchemaViolation = errors.New("response schema violation")
	// ErrBudgetExceeded stops the whole run.
	ErrBudgetExceeded = errors.New("budget exceeded")
)

// itemScoped reports whether err should skip one item rather than stop the run.
func itemScoped(err error) bool {
	return errors.Is(err, ErrExternalCall) || errors.Is(err, ErrSchemaViolation)
}
