package vellum

import (
	"github.com/pkg/errors"
)

// Error kinds reported by the node tree. Returned errors wrap one of these
// sentinels with context; test for them with errors.Is.
var (
	// ErrStructuralViolation reports an edit that would break the tree
	// invariants: attaching a node that already has a parent, creating a
	// cycle, attaching a root, or editing a composite while it is being
	// traversed.
	ErrStructuralViolation = errors.New("vellum: structural violation")

	// ErrSingularTransform reports that an inverse was requested for a
	// matrix with a zero determinant.
	ErrSingularTransform = errors.New("vellum: singular transform")

	// ErrUnresolvedResource reports that a filter, mask, clip or image
	// refers to content that is not available yet or was denied.
	ErrUnresolvedResource = errors.New("vellum: unresolved resource")

	// ErrInvalidQuery reports a query made with a missing or non-finite
	// required argument.
	ErrInvalidQuery = errors.New("vellum: invalid query")

	// ErrResourceDenied is returned by a ResourceSecurity policy that
	// refuses an external load. Nodes convert it into ErrUnresolvedResource.
	ErrResourceDenied = errors.New("vellum: external resource not allowed")
)

// structural wraps ErrStructuralViolation with a formatted reason.
// In debug mode the violation is also logged.
func structural(format string, args ...any) error {
	err := errors.Wrapf(ErrStructuralViolation, format, args...)
	if debugEnabled() {
		logger().Debug("structural violation", "err", err)
	}
	return err
}

// unresolved wraps cause so that it matches both ErrUnresolvedResource and
// the original cause.
func unresolved(cause error, what string) error {
	if cause == nil {
		return errors.Wrap(ErrUnresolvedResource, what)
	}
	if errors.Is(cause, ErrUnresolvedResource) {
		return cause
	}
	return &unresolvedError{what: what, cause: cause}
}

type unresolvedError struct {
	what  string
	cause error
}

func (e *unresolvedError) Error() string {
	return ErrUnresolvedResource.Error() + ": " + e.what + ": " + e.cause.Error()
}

func (e *unresolvedError) Is(target error) bool { return target == ErrUnresolvedResource }

func (e *unresolvedError) Unwrap() error { return e.cause }
