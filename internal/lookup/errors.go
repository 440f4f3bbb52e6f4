package lookup

import (
	"fmt"

	"vodsieve/internal/services"
	"vodsieve/internal/tmdb"
)

// LookupError is returned when a request fails permanently or exhausts its
// retries.
type LookupError struct {
	Class     tmdb.Class
	Op        string
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *LookupError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("%s: failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s failure after %d attempt(s): %v", e.Op, e.Class, e.Attempts, e.Err)
}

// Unwrap exposes the classification markers alongside the cause.
func (e *LookupError) Unwrap() []error {
	errs := make([]error, 0, 3)
	if e.Class == tmdb.Transient {
		errs = append(errs, services.ErrTransient)
	} else {
		errs = append(errs, services.ErrPermanent)
	}
	if e.Exhausted {
		errs = append(errs, services.ErrLookupFailed)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
